package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/luminex/nursery-backend/internal/data/repos"
	"github.com/luminex/nursery-backend/internal/http/response"
	"github.com/luminex/nursery-backend/internal/services"
)

type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func windowFrom(q *query) repos.TimeWindow {
	return repos.TimeWindow{From: q.Time("startDate"), To: q.Time("endDate")}
}

// GET /api/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	stats, err := h.analytics.Dashboard(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// GET /api/analytics/zones
func (h *AnalyticsHandler) Zones(c *gin.Context) {
	rows, err := h.analytics.ZoneUtilization(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/analytics/species
func (h *AnalyticsHandler) Species(c *gin.Context) {
	rows, err := h.analytics.SpeciesDistribution(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/analytics/stages
func (h *AnalyticsHandler) Stages(c *gin.Context) {
	rows, err := h.analytics.StagePipeline(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/analytics/growth?speciesId=&startDate=&endDate=
func (h *AnalyticsHandler) Growth(c *gin.Context) {
	q := newQuery(c)
	speciesID := q.UUID("speciesId")
	w := windowFrom(q)
	if !q.Done() {
		return
	}
	rows, err := h.analytics.GrowthTrends(c.Request.Context(), speciesID, w)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/analytics/production?startDate=&endDate=
func (h *AnalyticsHandler) Production(c *gin.Context) {
	q := newQuery(c)
	w := windowFrom(q)
	if !q.Done() {
		return
	}
	m, err := h.analytics.Production(c.Request.Context(), w)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}
