// Package craft turns component/material assignments into finished items.
package craft

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kasuganosora/rpgcraft/resource"
)

// DamageFormula overrides the built-in weapon damage modifier.
type DamageFormula interface {
	DamageModifier(head *resource.Material) (float64, error)
}

// Engine resolves craft requests against the volume tables. It is safe
// for concurrent use.
type Engine struct {
	volumes *resource.VolumeStore
	banned  *resource.BannedNames
	formula DamageFormula
	now     func() time.Time
	newID   func() string

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithBannedNames rejects custom names containing any listed fragment.
func WithBannedNames(b *resource.BannedNames) Option {
	return func(e *Engine) { e.banned = b }
}

// WithDamageFormula replaces the default weapon damage modifier.
func WithDamageFormula(f DamageFormula) Option {
	return func(e *Engine) { e.formula = f }
}

// WithSeed makes jewelry rolls reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithRand supplies the random source used for jewelry rolls.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock overrides the craft timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine reading volumes from vs.
func NewEngine(vs *resource.VolumeStore, opts ...Option) *Engine {
	e := &Engine{
		volumes: vs,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return e
}

// Volumes exposes the store the engine reads from.
func (e *Engine) Volumes() *resource.VolumeStore { return e.volumes }

// roll returns a uniform integer in [1, n].
func (e *Engine) roll(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.IntN(n) + 1
}

func (e *Engine) pick(options []string) string {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return options[e.rng.IntN(len(options))]
}

// itemName returns the custom name when allowed, or fallback when name is blank.
func (e *Engine) itemName(name, fallback string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback, nil
	}
	if hit, banned := e.banned.Match(name); banned {
		return "", fmt.Errorf("%w: %q contains %q", ErrBannedName, name, hit)
	}
	return name, nil
}

// ComponentMaterial assigns a material to one named component.
type ComponentMaterial struct {
	Component string             `json:"component"`
	Material  *resource.Material `json:"material"`
}

type part struct {
	component string
	material  *resource.Material
	volume    float64
}

// assemble matches assignments to the archetype's table. Every table
// component needs exactly one material; hollow shrinks eligible parts.
func (e *Engine) assemble(fam resource.Family, archetype string, assigns []ComponentMaterial, hollow float64) (string, []part, error) {
	comps, err := e.volumes.Components(fam, archetype)
	if err != nil {
		return "", nil, err
	}
	canonical, err := e.volumes.CanonicalArchetype(fam, archetype)
	if err != nil {
		return "", nil, err
	}

	known := make(map[string]bool, len(comps))
	for _, c := range comps {
		known[strings.ToLower(c.Name)] = true
	}
	assigned := make(map[string]*resource.Material, len(assigns))
	for _, a := range assigns {
		key := strings.ToLower(strings.TrimSpace(a.Component))
		if !known[key] {
			return "", nil, fmt.Errorf("%w: %s %q has no %q", ErrUnknownComponent, fam, canonical, a.Component)
		}
		if _, dup := assigned[key]; dup {
			return "", nil, fmt.Errorf("%w: component %q assigned twice", ErrInvalidParameter, a.Component)
		}
		if a.Material == nil {
			return "", nil, fmt.Errorf("%w: no material for %q", ErrInsufficientMaterials, a.Component)
		}
		assigned[key] = a.Material
	}

	parts := make([]part, 0, len(comps))
	for _, c := range comps {
		key := strings.ToLower(c.Name)
		m, ok := assigned[key]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s %q needs %q", ErrInsufficientMaterials, fam, canonical, c.Name)
		}
		v := c.Volume
		if hollowEligible[key] {
			v *= 1 - hollow
		}
		parts = append(parts, part{component: c.Name, material: m, volume: v})
	}
	return canonical, parts, nil
}

// newBase sums the parts into the shared item fields.
func (e *Engine) newBase(name, archetype string, parts []part) ItemBase {
	var volume, massG, toughVol float64
	bill := make([]BillLine, 0, len(parts))
	for _, p := range parts {
		g := p.volume * p.material.Density
		volume += p.volume
		massG += g
		toughVol += p.volume * p.material.Toughness
		bill = append(bill, BillLine{
			Component:    p.component,
			MaterialID:   p.material.ID,
			MaterialName: p.material.Name,
			VolumeCm3:    p.volume,
			MassG:        g,
			Units:        g / 100,
		})
	}
	// volume-weighted toughness scaled by volume/100
	var maxDur float64
	if volume > 0 {
		maxDur = (toughVol / volume) * (volume / 100)
	}
	return ItemBase{
		ID:            e.newID(),
		Name:          name,
		Archetype:     archetype,
		MassKg:        massG / 1000,
		VolumeCm3:     volume,
		Durability:    maxDur,
		MaxDurability: maxDur,
		Bill:          bill,
		CraftedAt:     e.now().UTC(),
	}
}
