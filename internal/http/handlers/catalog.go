package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/luminex/nursery-backend/internal/data/repos"
	"github.com/luminex/nursery-backend/internal/http/response"
	"github.com/luminex/nursery-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type bedRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Capacity int    `json:"capacity" binding:"required,min=1,max=10000"`
}

// GET /api/species?search=&isActive=&page=&limit=
func (h *CatalogHandler) ListSpecies(c *gin.Context) {
	q := newQuery(c)
	f := repos.SpeciesFilter{Search: q.String("search"), IsActive: q.Bool("isActive"), Page: q.Page()}
	if !q.Done() {
		return
	}
	rows, meta, err := h.catalog.ListSpecies(c.Request.Context(), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// GET /api/species/:id
func (h *CatalogHandler) GetSpecies(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sp, err := h.catalog.GetSpecies(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, sp)
}

// POST /api/species
func (h *CatalogHandler) CreateSpecies(c *gin.Context) {
	var req struct {
		Name           string  `json:"name" binding:"required,min=2,max=100"`
		ScientificName *string `json:"scientificName" binding:"omitempty,max=150"`
		Description    *string `json:"description" binding:"omitempty,max=500"`
		TargetGirth    float64 `json:"targetGirth" binding:"required,gt=0"`
		TargetHeight   float64 `json:"targetHeight" binding:"required,gt=0"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.catalog.CreateSpecies(c.Request.Context(), services.SpeciesInput{
		Name:           req.Name,
		ScientificName: req.ScientificName,
		Description:    req.Description,
		TargetGirth:    req.TargetGirth,
		TargetHeight:   req.TargetHeight,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, "species created", sp)
}

// PUT /api/species/:id
func (h *CatalogHandler) UpdateSpecies(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name           *string  `json:"name" binding:"omitempty,min=2,max=100"`
		ScientificName *string  `json:"scientificName" binding:"omitempty,max=150"`
		Description    *string  `json:"description" binding:"omitempty,max=500"`
		TargetGirth    *float64 `json:"targetGirth" binding:"omitempty,gt=0"`
		TargetHeight   *float64 `json:"targetHeight" binding:"omitempty,gt=0"`
		IsActive       *bool    `json:"isActive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sp, err := h.catalog.UpdateSpecies(c.Request.Context(), id, services.SpeciesPatch{
		Name:           req.Name,
		ScientificName: req.ScientificName,
		Description:    req.Description,
		TargetGirth:    req.TargetGirth,
		TargetHeight:   req.TargetHeight,
		IsActive:       req.IsActive,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "species updated", sp)
}

// DELETE /api/species/:id
func (h *CatalogHandler) DeleteSpecies(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteSpecies(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "species deleted", nil)
}

// GET /api/zones?search=&isActive=&page=&limit=
func (h *CatalogHandler) ListZones(c *gin.Context) {
	q := newQuery(c)
	f := repos.ZoneFilter{Search: q.String("search"), IsActive: q.Bool("isActive"), Page: q.Page()}
	if !q.Done() {
		return
	}
	rows, meta, err := h.catalog.ListZones(c.Request.Context(), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// GET /api/zones/:id
func (h *CatalogHandler) GetZone(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	z, err := h.catalog.GetZone(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, z)
}

// POST /api/zones
func (h *CatalogHandler) CreateZone(c *gin.Context) {
	var req struct {
		Name        string       `json:"name" binding:"required,min=2,max=100"`
		Description *string      `json:"description" binding:"omitempty,max=500"`
		Capacity    int          `json:"capacity" binding:"required,min=1,max=50000"`
		Beds        []bedRequest `json:"beds" binding:"omitempty,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	in := services.ZoneInput{Name: req.Name, Description: req.Description, Capacity: req.Capacity}
	for _, b := range req.Beds {
		in.Beds = append(in.Beds, services.BedInput{Name: b.Name, Capacity: b.Capacity})
	}
	z, err := h.catalog.CreateZone(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, "zone created", z)
}

// PUT /api/zones/:id
func (h *CatalogHandler) UpdateZone(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name" binding:"omitempty,min=2,max=100"`
		Description *string `json:"description" binding:"omitempty,max=500"`
		Capacity    *int    `json:"capacity" binding:"omitempty,min=1,max=50000"`
		IsActive    *bool   `json:"isActive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	z, err := h.catalog.UpdateZone(c.Request.Context(), id, services.ZonePatch{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		IsActive:    req.IsActive,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "zone updated", z)
}

// DELETE /api/zones/:id
func (h *CatalogHandler) DeleteZone(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteZone(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "zone deleted", nil)
}

// GET /api/zones/:id/beds
func (h *CatalogHandler) ListBeds(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	beds, err := h.catalog.ListBeds(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, beds)
}

// POST /api/zones/:id/beds
func (h *CatalogHandler) CreateBed(c *gin.Context) {
	zoneID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req bedRequest
	if !bindJSON(c, &req) {
		return
	}
	bed, err := h.catalog.CreateBed(c.Request.Context(), zoneID, services.BedInput{Name: req.Name, Capacity: req.Capacity})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, "bed created", bed)
}

// PUT /api/beds/:id
func (h *CatalogHandler) UpdateBed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"name" binding:"omitempty,min=2,max=50"`
		Capacity *int    `json:"capacity" binding:"omitempty,min=1,max=10000"`
		IsActive *bool   `json:"isActive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	bed, err := h.catalog.UpdateBed(c.Request.Context(), id, services.BedPatch{
		Name:     req.Name,
		Capacity: req.Capacity,
		IsActive: req.IsActive,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "bed updated", bed)
}

// DELETE /api/beds/:id
func (h *CatalogHandler) DeleteBed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteBed(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "bed deleted", nil)
}

// POST /api/beds/:id/reconcile
func (h *CatalogHandler) ReconcileBed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.catalog.ReconcileBed(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reconciliation": res, "drifted": res.Drifted()})
}
