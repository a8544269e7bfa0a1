package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rpgcraft/game/craft"
	mw "github.com/kasuganosora/rpgcraft/middleware"
)

// CraftHandler exposes the craft service. Every route requires Auth.
type CraftHandler struct {
	svc *craft.Service
}

// NewCraftHandler creates a CraftHandler.
func NewCraftHandler(svc *craft.Service) *CraftHandler {
	return &CraftHandler{svc: svc}
}

func crafter(c *gin.Context) craft.Crafter {
	return craft.Crafter{
		AccountID: mw.GetAccountID(c),
		TraceID:   mw.GetTraceID(c),
		IP:        c.ClientIP(),
	}
}

// bindAndCraft decodes the order, runs fn and writes the crafted item.
func bindAndCraft[O any, I craft.Item](c *gin.Context, fn func(context.Context, craft.Crafter, O) (I, error)) {
	var order O
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := fn(c.Request.Context(), crafter(c), order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"kind": item.Kind(), "item": item})
}

// Armor handles POST /api/craft/armor.
func (h *CraftHandler) Armor(c *gin.Context) { bindAndCraft(c, h.svc.CraftArmor) }

// Weapon handles POST /api/craft/weapon.
func (h *CraftHandler) Weapon(c *gin.Context) { bindAndCraft(c, h.svc.CraftWeapon) }

// Bow handles POST /api/craft/bow.
func (h *CraftHandler) Bow(c *gin.Context) { bindAndCraft(c, h.svc.CraftBow) }

// Shield handles POST /api/craft/shield.
func (h *CraftHandler) Shield(c *gin.Context) { bindAndCraft(c, h.svc.CraftShield) }

// Siege handles POST /api/craft/siege.
func (h *CraftHandler) Siege(c *gin.Context) { bindAndCraft(c, h.svc.CraftSiege) }

// Jewelry handles POST /api/craft/jewelry.
func (h *CraftHandler) Jewelry(c *gin.Context) { bindAndCraft(c, h.svc.CraftJewelry) }

// Recent handles GET /api/crafts.
func (h *CraftHandler) Recent(c *gin.Context) {
	rows, err := h.svc.Recent(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"crafts": rows, "count": len(rows)})
}

// Get handles GET /api/crafts/:id.
func (h *CraftHandler) Get(c *gin.Context) {
	row, err := h.svc.Get(c.Request.Context(), mw.GetAccountID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
