package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/http/response"
	"github.com/luminex/nursery-backend/internal/services"
)

type MeasurementHandler struct {
	measurements services.MeasurementService
}

func NewMeasurementHandler(measurements services.MeasurementService) *MeasurementHandler {
	return &MeasurementHandler{measurements: measurements}
}

type rangeRequest struct {
	Min float64 `json:"min" binding:"gte=0"`
	Max float64 `json:"max" binding:"gte=0"`
}

// GET /api/measurements?batchId=&userId=&startDate=&endDate=&page=&limit=
func (h *MeasurementHandler) List(c *gin.Context) {
	q := newQuery(c)
	f := repos.MeasurementFilter{
		BatchID:   q.UUID("batchId"),
		UserID:    q.UUID("userId"),
		StartDate: q.Time("startDate"),
		EndDate:   q.Time("endDate"),
		Page:      q.Page(),
	}
	if !q.Done() {
		return
	}
	rows, meta, err := h.measurements.List(c.Request.Context(), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// GET /api/measurements/ranges?unit=cm
func (h *MeasurementHandler) Ranges(c *gin.Context) {
	unit := nursery.LengthUnit(c.DefaultQuery("unit", string(nursery.UnitCM)))
	r, err := h.measurements.Ranges(unit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, r)
}

// GET /api/measurements/batch/:batchId
func (h *MeasurementHandler) ListByBatch(c *gin.Context) {
	batchID, ok := pathID(c, "batchId")
	if !ok {
		return
	}
	rows, err := h.measurements.ListByBatch(c.Request.Context(), batchID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/measurements/:id
func (h *MeasurementHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.measurements.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}

// POST /api/measurements
func (h *MeasurementHandler) Create(c *gin.Context) {
	var req struct {
		BatchID    uuid.UUID `json:"batchId" binding:"required"`
		Girth      float64   `json:"girth" binding:"required,gte=0.1,lte=100"`
		Height     float64   `json:"height" binding:"required,gte=1,lte=1000"`
		SampleSize int       `json:"sampleSize" binding:"required,min=1,max=1000"`
		Notes      *string   `json:"notes" binding:"omitempty,max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.measurements.Record(c.Request.Context(), domainagg.RecordMeasurementInput{
		BatchID:    req.BatchID,
		Girth:      req.Girth,
		Height:     req.Height,
		SampleSize: req.SampleSize,
		Notes:      req.Notes,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, "measurement recorded", res.Measurement)
}

// POST /api/measurements/range
func (h *MeasurementHandler) CreateRange(c *gin.Context) {
	var req struct {
		BatchID     uuid.UUID    `json:"batchId" binding:"required"`
		GirthRange  rangeRequest `json:"girthRange"`
		HeightRange rangeRequest `json:"heightRange"`
		SampleSize  int          `json:"sampleSize" binding:"required,min=1,max=1000"`
		Notes       *string      `json:"notes" binding:"omitempty,max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.measurements.RecordRange(c.Request.Context(), domainagg.RecordRangeMeasurementInput{
		BatchID:     req.BatchID,
		GirthRange:  domainagg.MeasurementRange{Min: req.GirthRange.Min, Max: req.GirthRange.Max},
		HeightRange: domainagg.MeasurementRange{Min: req.HeightRange.Min, Max: req.HeightRange.Max},
		SampleSize:  req.SampleSize,
		Notes:       req.Notes,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, "range measurement recorded", res.Measurement)
}

// PUT /api/measurements/:id
func (h *MeasurementHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Girth      *float64 `json:"girth" binding:"omitempty,gte=0.1,lte=100"`
		Height     *float64 `json:"height" binding:"omitempty,gte=1,lte=1000"`
		SampleSize *int     `json:"sampleSize" binding:"omitempty,min=1,max=1000"`
		Notes      *string  `json:"notes" binding:"omitempty,max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.measurements.Update(c.Request.Context(), domainagg.UpdateMeasurementInput{
		MeasurementID: id,
		Girth:         req.Girth,
		Height:        req.Height,
		SampleSize:    req.SampleSize,
		Notes:         req.Notes,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "measurement updated", res.Measurement)
}

// DELETE /api/measurements/:id
func (h *MeasurementHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.measurements.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "measurement deleted", nil)
}
