package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rpgcraft/resource"
)

// MaterialHandler serves the read-only material catalog and volume tables.
type MaterialHandler struct {
	catalog *resource.Catalog
	volumes *resource.VolumeStore
}

// NewMaterialHandler creates a MaterialHandler.
func NewMaterialHandler(catalog *resource.Catalog, volumes *resource.VolumeStore) *MaterialHandler {
	return &MaterialHandler{catalog: catalog, volumes: volumes}
}

// List handles GET /api/materials?family=metal.
func (h *MaterialHandler) List(c *gin.Context) {
	family := c.Query("family")
	mats := h.catalog.List(family)
	if family != "" && len(mats) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":    "unknown material family",
			"families": h.catalog.Families(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": mats, "count": len(mats)})
}

// Get handles GET /api/materials/:name. Misses include close matches.
func (h *MaterialHandler) Get(c *gin.Context) {
	name := c.Param("name")
	m, err := h.catalog.Lookup(name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":       err.Error(),
			"suggestions": h.catalog.Suggest(name, 3),
		})
		return
	}
	c.JSON(http.StatusOK, m)
}

type archetypeView struct {
	Name       string               `json:"name"`
	Components []resource.Component `json:"components"`
	VolumeCm3  float64              `json:"volume_cm3"`
}

// Archetypes handles GET /api/archetypes/:family. The family table is
// loaded on first request if it was not loaded at startup.
func (h *MaterialHandler) Archetypes(c *gin.Context) {
	fam, err := resource.ParseFamily(c.Param("family"))
	if err != nil {
		respondError(c, err)
		return
	}
	names, err := h.volumes.Archetypes(fam)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]archetypeView, 0, len(names))
	for _, n := range names {
		comps, err := h.volumes.Components(fam, n)
		if err != nil {
			respondError(c, err)
			return
		}
		v := archetypeView{Name: n, Components: comps}
		for _, comp := range comps {
			v.VolumeCm3 += comp.Volume
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"family": fam, "archetypes": out})
}
