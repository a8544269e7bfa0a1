package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rpgcraft/model"
	"github.com/kasuganosora/rpgcraft/resource"
	"github.com/kasuganosora/rpgcraft/scheduler"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Announcer publishes operator messages to connected event streams.
type Announcer interface {
	Announce(ctx context.Context, message string) error
}

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by middleware.AdminKey.
type AdminHandler struct {
	db        *gorm.DB
	res       *resource.ResourceLoader
	sched     *scheduler.Scheduler
	announcer Announcer
	logger    *zap.Logger
	started   time.Time
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	db *gorm.DB,
	res *resource.ResourceLoader,
	sched *scheduler.Scheduler,
	announcer Announcer,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{db: db, res: res, sched: sched, announcer: announcer, logger: logger, started: time.Now()}
}

// Status reports data and maintenance state.
// GET /api/admin/status
func (h *AdminHandler) Status(c *gin.Context) {
	loaded := make(map[resource.Family]bool, len(resource.Families))
	for _, fam := range resource.Families {
		loaded[fam] = h.res.Volumes.Loaded(fam)
	}
	var crafted, accounts int64
	if err := h.db.Model(&model.CraftedItem{}).Count(&crafted).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := h.db.Model(&model.Account{}).Count(&accounts).Error; err != nil {
		respondError(c, err)
		return
	}
	byKind, err := model.CountByKind(h.db, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"uptime_s":        int64(time.Since(h.started).Seconds()),
		"materials":       h.res.Materials.Count(),
		"material_family": h.res.Materials.Families(),
		"banned_names":    h.res.BannedNames.Len(),
		"volumes_loaded":  loaded,
		"crafted_items":   crafted,
		"crafted_by_kind": byKind,
		"accounts":        accounts,
		"scheduler_tasks": h.sched.Status(),
	})
}

// LoadVolumes forces a family's volume table into memory.
// POST /api/admin/volumes/:family/load
func (h *AdminHandler) LoadVolumes(c *gin.Context) {
	fam, err := resource.ParseFamily(c.Param("family"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.res.Volumes.EnsureLoaded(fam); err != nil {
		respondError(c, err)
		return
	}
	names, err := h.res.Volumes.Archetypes(fam)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("admin loaded volume table", zap.String("family", string(fam)))
	c.JSON(http.StatusOK, gin.H{"family": fam, "archetypes": len(names)})
}

// BanAccount bans or unbans a crafter account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := model.StatusActive
	if req.Ban {
		status = model.StatusBanned
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	h.logger.Info("admin set account status", zap.Int64("account_id", accountID), zap.Int("status", int(status)))
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// Announce pushes a message to every event stream.
// POST /api/admin/announce
func (h *AdminHandler) Announce(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.announcer.Announce(c.Request.Context(), req.Message); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
