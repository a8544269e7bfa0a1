package craft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kasuganosora/rpgcraft/audit"
	"github.com/kasuganosora/rpgcraft/cache"
	"github.com/kasuganosora/rpgcraft/metrics"
	"github.com/kasuganosora/rpgcraft/model"
	"github.com/kasuganosora/rpgcraft/plugin/hook"
	"github.com/kasuganosora/rpgcraft/resource"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventChannel is the pubsub channel craft events are published on.
const EventChannel = "craft"

var (
	// ErrCraftNotFound is returned by Get for unknown ids or another crafter's items.
	ErrCraftNotFound = errors.New("craft: crafted item not found")
	// ErrCraftBlocked is returned when a before-craft hook vetoes the attempt.
	ErrCraftBlocked = errors.New("craft: blocked")
)

// Crafter identifies who asked for a craft.
type Crafter struct {
	AccountID int64
	TraceID   string
	IP        string
}

// Event is published after every successful craft.
type Event struct {
	ID         string    `json:"id"`
	AccountID  int64     `json:"account_id"`
	Kind       Kind      `json:"kind"`
	Archetype  string    `json:"archetype"`
	Name       string    `json:"name"`
	MassKg     float64   `json:"mass_kg"`
	Durability float64   `json:"durability"`
	CraftedAt  time.Time `json:"crafted_at"`
}

// ---- orders: name-based requests resolved through the catalog ----

type ArmorOrder struct {
	Slot       string `json:"slot" binding:"required"`
	Class      string `json:"class"`
	SlotFactor int    `json:"slot_factor" binding:"min=0"`
	Outer      string `json:"outer"`
	Inner      string `json:"inner"`
	Binding    string `json:"binding"`
	Name       string `json:"name" binding:"max=64"`
}

type ComponentOrder struct {
	Component string `json:"component" binding:"required"`
	Material  string `json:"material"`
}

type WeaponOrder struct {
	Type         string           `json:"type" binding:"required"`
	Components   []ComponentOrder `json:"components" binding:"dive"`
	HollowFactor float64          `json:"hollow_factor"`
	Name         string           `json:"name" binding:"max=64"`
}

// PartsOrder covers shields and siege weapons.
type PartsOrder struct {
	Type       string           `json:"type" binding:"required"`
	Components []ComponentOrder `json:"components" binding:"dive"`
	Name       string           `json:"name" binding:"max=64"`
}

type JewelryOrder struct {
	Kind  string `json:"kind" binding:"required"`
	Metal string `json:"metal"`
	Tier  int    `json:"tier"`
	Name  string `json:"name" binding:"max=64"`
}

// Service wraps the Engine with catalog lookups, the crafted-item ledger,
// the per-crafter recent list, events, metrics and auditing.
type Service struct {
	engine      *Engine
	catalog     *resource.Catalog
	db          *gorm.DB
	cache       cache.Cache
	pubsub      cache.PubSub
	audit       *audit.Service
	hooks       *hook.HookCenter
	logger      *zap.Logger
	recentLimit int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache enables the recent list and craft events.
func WithCache(c cache.Cache, ps cache.PubSub) ServiceOption {
	return func(s *Service) {
		s.cache = c
		s.pubsub = ps
	}
}

// WithAudit records every craft attempt.
func WithAudit(a *audit.Service) ServiceOption {
	return func(s *Service) { s.audit = a }
}

// WithHooks runs BeforeCraft and AfterCraft hooks around every craft.
func WithHooks(hc *hook.HookCenter) ServiceOption {
	return func(s *Service) { s.hooks = hc }
}

// WithRecentLimit caps the per-crafter recent list.
func WithRecentLimit(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// NewService creates a Service. The catalog count is exported as a gauge.
func NewService(engine *Engine, catalog *resource.Catalog, db *gorm.DB, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		engine:      engine,
		catalog:     catalog,
		db:          db,
		logger:      logger,
		recentLimit: 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.CatalogMaterials.Set(float64(catalog.Count()))
	return s
}

// Catalog returns the material catalog the service resolves names against.
func (s *Service) Catalog() *resource.Catalog { return s.catalog }

// Engine returns the underlying resolver.
func (s *Service) Engine() *Engine { return s.engine }

// lookup resolves a material name; a blank name yields nil so the engine
// reports the missing material.
func (s *Service) lookup(name string) (*resource.Material, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return s.catalog.Lookup(name)
}

func (s *Service) components(orders []ComponentOrder) ([]ComponentMaterial, error) {
	out := make([]ComponentMaterial, 0, len(orders))
	for _, o := range orders {
		m, err := s.lookup(o.Material)
		if err != nil {
			return nil, err
		}
		out = append(out, ComponentMaterial{Component: o.Component, Material: m})
	}
	return out, nil
}

func (s *Service) CraftArmor(ctx context.Context, who Crafter, o ArmorOrder) (*Armor, error) {
	var out *Armor
	err := s.run(ctx, who, string(KindArmor), o, func() (Item, error) {
		var err error
		class := ClassNone
		if strings.TrimSpace(o.Class) != "" {
			if class, err = ParseArmorClass(o.Class); err != nil {
				return nil, err
			}
		}
		mats := make([]*resource.Material, 0, 3)
		for _, name := range []string{o.Outer, o.Inner, o.Binding} {
			m, err := s.lookup(name)
			if err != nil {
				return nil, err
			}
			mats = append(mats, m)
		}
		factor := o.SlotFactor
		if factor == 0 {
			factor = DefaultSlotFactor(o.Slot)
		}
		out, err = s.engine.CraftArmor(ArmorRequest{
			Materials:  mats,
			Class:      class,
			Slot:       o.Slot,
			SlotFactor: factor,
			Name:       o.Name,
		})
		return out, err
	})
	return out, err
}

func (s *Service) CraftWeapon(ctx context.Context, who Crafter, o WeaponOrder) (*Weapon, error) {
	return s.craftWeapon(ctx, who, o, s.engine.CraftWeapon)
}

func (s *Service) CraftBow(ctx context.Context, who Crafter, o WeaponOrder) (*Weapon, error) {
	return s.craftWeapon(ctx, who, o, s.engine.CraftBow)
}

func (s *Service) craftWeapon(ctx context.Context, who Crafter, o WeaponOrder, craft func(WeaponRequest) (*Weapon, error)) (*Weapon, error) {
	var out *Weapon
	err := s.run(ctx, who, string(KindWeapon), o, func() (Item, error) {
		comps, err := s.components(o.Components)
		if err != nil {
			return nil, err
		}
		out, err = craft(WeaponRequest{
			Type:         o.Type,
			Components:   comps,
			HollowFactor: o.HollowFactor,
			Name:         o.Name,
		})
		return out, err
	})
	return out, err
}

func (s *Service) CraftShield(ctx context.Context, who Crafter, o PartsOrder) (*Shield, error) {
	var out *Shield
	err := s.run(ctx, who, string(KindShield), o, func() (Item, error) {
		comps, err := s.components(o.Components)
		if err != nil {
			return nil, err
		}
		out, err = s.engine.CraftShield(ShieldRequest{Type: o.Type, Components: comps, Name: o.Name})
		return out, err
	})
	return out, err
}

func (s *Service) CraftSiege(ctx context.Context, who Crafter, o PartsOrder) (*SiegeWeapon, error) {
	var out *SiegeWeapon
	err := s.run(ctx, who, string(KindSiegeWeapon), o, func() (Item, error) {
		comps, err := s.components(o.Components)
		if err != nil {
			return nil, err
		}
		out, err = s.engine.CraftSiegeWeapon(SiegeRequest{Type: o.Type, Components: comps, Name: o.Name})
		return out, err
	})
	return out, err
}

func (s *Service) CraftJewelry(ctx context.Context, who Crafter, o JewelryOrder) (*Jewelry, error) {
	var out *Jewelry
	err := s.run(ctx, who, "jewelry", o, func() (Item, error) {
		metal, err := s.lookup(o.Metal)
		if err != nil {
			return nil, err
		}
		out, err = s.engine.CraftJewelry(JewelryRequest{
			Kind:  JewelryKind(o.Kind),
			Metal: metal,
			Tier:  o.Tier,
			Name:  o.Name,
		})
		return out, err
	})
	return out, err
}

// run crafts, records the outcome and, on success, writes the ledger row,
// recent list and event.
func (s *Service) run(ctx context.Context, who Crafter, family string, order interface{}, craft func() (Item, error)) error {
	start := time.Now()
	var item Item
	err := s.before(ctx, who, family, order)
	if err == nil {
		item, err = craft()
	}
	if err == nil {
		err = s.persist(ctx, who, item)
	}
	elapsed := time.Since(start)

	kind := ErrorKind(err)
	metrics.RecordCraft(family, elapsed.Seconds(), kind)
	s.recordAudit(who, family, order, item, err, elapsed)

	if err != nil {
		s.logger.Info("craft rejected",
			zap.String("family", family),
			zap.Int64("account_id", who.AccountID),
			zap.String("kind", kind),
			zap.Error(err))
		return err
	}

	b := item.Base()
	s.logger.Debug("crafted",
		zap.String("id", b.ID),
		zap.String("family", family),
		zap.String("archetype", b.Archetype),
		zap.Float64("mass_kg", b.MassKg),
		zap.Float64("durability", b.MaxDurability))
	s.remember(ctx, who, b.ID)
	s.publish(ctx, who, item)
	s.after(ctx, who, family, item)
	return nil
}

func (s *Service) before(ctx context.Context, who Crafter, family string, order interface{}) error {
	attempt := &hook.Attempt{AccountID: who.AccountID, Family: family, Order: order}
	if _, err := s.hooks.Trigger(ctx, hook.BeforeCraft, attempt); err != nil {
		if errors.Is(err, hook.ErrInterrupt) {
			return fmt.Errorf("%w: %w", ErrCraftBlocked, err)
		}
		return fmt.Errorf("craft: %w", err)
	}
	return nil
}

// after-craft hook failures are logged; the item is already saved.
func (s *Service) after(ctx context.Context, who Crafter, family string, item Item) {
	crafted := &hook.Crafted{AccountID: who.AccountID, Family: family, Item: item}
	if _, err := s.hooks.Trigger(ctx, hook.AfterCraft, crafted); err != nil && !errors.Is(err, hook.ErrInterrupt) {
		s.logger.Warn("after-craft hook failed", zap.String("id", item.Base().ID), zap.Error(err))
	}
}

func (s *Service) persist(ctx context.Context, who Crafter, item Item) error {
	stats, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("craft: encode item: %w", err)
	}
	b := item.Base()
	row := &model.CraftedItem{
		ID:            b.ID,
		AccountID:     who.AccountID,
		Kind:          string(item.Kind()),
		Archetype:     b.Archetype,
		Name:          b.Name,
		MassKg:        b.MassKg,
		VolumeCm3:     b.VolumeCm3,
		Durability:    b.Durability,
		MaxDurability: b.MaxDurability,
		Stats:         datatypes.JSON(stats),
		CreatedAt:     b.CraftedAt,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return tx.Model(&model.Account{}).Where("id = ?", who.AccountID).Updates(map[string]interface{}{
			"craft_count":   gorm.Expr("craft_count + ?", 1),
			"last_craft_at": b.CraftedAt,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("craft: save item: %w", err)
	}
	return nil
}

func recentKey(accountID int64) string {
	return fmt.Sprintf("crafter:%d:recent", accountID)
}

func (s *Service) remember(ctx context.Context, who Crafter, id string) {
	if s.cache == nil {
		return
	}
	key := recentKey(who.AccountID)
	if err := s.cache.PushCapped(ctx, key, s.recentLimit, id); err != nil {
		s.logger.Warn("recent list push failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, who Crafter, item Item) {
	if s.pubsub == nil {
		return
	}
	b := item.Base()
	payload, err := json.Marshal(Event{
		ID:         b.ID,
		AccountID:  who.AccountID,
		Kind:       item.Kind(),
		Archetype:  b.Archetype,
		Name:       b.Name,
		MassKg:     b.MassKg,
		Durability: b.Durability,
		CraftedAt:  b.CraftedAt,
	})
	if err != nil {
		return
	}
	if err := s.pubsub.Publish(ctx, EventChannel, string(payload)); err != nil {
		s.logger.Warn("craft event publish failed", zap.Error(err))
	}
}

func (s *Service) recordAudit(who Crafter, family string, order interface{}, item Item, err error, elapsed time.Duration) {
	if s.audit == nil {
		return
	}
	var accountID *int64
	if who.AccountID != 0 {
		id := who.AccountID
		accountID = &id
	}
	entry := audit.AuditEntry{
		TraceID:    who.TraceID,
		AccountID:  accountID,
		Action:     "craft." + family,
		Request:    order,
		IP:         who.IP,
		DurationMs: int(elapsed.Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
	} else {
		b := item.Base()
		entry.Response = map[string]interface{}{
			"id":             b.ID,
			"mass_kg":        b.MassKg,
			"max_durability": b.MaxDurability,
		}
	}
	s.audit.Log(entry)
}

// Recent returns the crafter's latest items, newest first. The cached id
// list is used when available; otherwise the ledger is queried.
func (s *Service) Recent(ctx context.Context, accountID int64) ([]model.CraftedItem, error) {
	var ids []string
	if s.cache != nil {
		var err error
		ids, err = s.cache.Range(ctx, recentKey(accountID), s.recentLimit)
		if err != nil && !cache.IsNotFound(err) {
			s.logger.Warn("recent list read failed", zap.Error(err))
			ids = nil
		}
	}

	var rows []model.CraftedItem
	if len(ids) == 0 {
		err := s.db.WithContext(ctx).
			Where("account_id = ?", accountID).
			Order("created_at DESC").
			Limit(s.recentLimit).
			Find(&rows).Error
		return rows, err
	}

	if err := s.db.WithContext(ctx).
		Where("account_id = ? AND id IN ?", accountID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]model.CraftedItem, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]model.CraftedItem, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Get returns one of the crafter's ledger rows.
func (s *Service) Get(ctx context.Context, accountID int64, id string) (*model.CraftedItem, error) {
	var row model.CraftedItem
	err := s.db.WithContext(ctx).Where("id = ? AND account_id = ?", id, accountID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCraftNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ErrorKind names the failure class of err for metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMaterialNotFound):
		return "material_not_found"
	case errors.Is(err, ErrUnknownArchetype):
		return "unknown_archetype"
	case errors.Is(err, ErrUnknownComponent):
		return "unknown_component"
	case errors.Is(err, ErrUnknownFamily):
		return "unknown_family"
	case errors.Is(err, ErrInsufficientMaterials):
		return "insufficient_materials"
	case errors.Is(err, ErrInvalidArchetypeForOperation):
		return "invalid_archetype_for_operation"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrBannedName):
		return "banned_name"
	case errors.Is(err, ErrDataSourceUnavailable):
		return "data_source_unavailable"
	case errors.Is(err, ErrMalformedData):
		return "malformed_data"
	case errors.Is(err, ErrCraftNotFound):
		return "not_found"
	case errors.Is(err, ErrCraftBlocked):
		return "craft_blocked"
	default:
		return "internal"
	}
}
