package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/http/response"
	"github.com/luminex/nursery-backend/internal/services"
)

type BatchHandler struct {
	batches services.BatchService
}

func NewBatchHandler(batches services.BatchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// GET /api/batches?search=&speciesId=&zoneId=&bedId=&createdById=&status=&stage=&pathway=&isReady=&page=&limit=
func (h *BatchHandler) List(c *gin.Context) {
	q := newQuery(c)
	f := repos.BatchFilter{
		Search:      q.String("search"),
		SpeciesID:   q.UUID("speciesId"),
		ZoneID:      q.UUID("zoneId"),
		BedID:       q.UUID("bedId"),
		CreatedByID: q.UUID("createdById"),
		IsReady:     q.Bool("isReady"),
		Page:        q.Page(),
	}
	if raw := q.String("status"); raw != "" {
		s := nursery.BatchStatus(raw)
		f.Status = &s
	}
	if raw := q.String("stage"); raw != "" {
		s := nursery.Stage(raw)
		f.Stage = &s
	}
	if raw := q.String("pathway"); raw != "" {
		p := nursery.Pathway(raw)
		f.Pathway = &p
	}
	if !q.Done() {
		return
	}
	rows, meta, err := h.batches.List(c.Request.Context(), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// GET /api/batches/next-number?pathway=
func (h *BatchHandler) NextNumber(c *gin.Context) {
	pathway := nursery.Pathway(c.Query("pathway"))
	n, err := h.batches.NextBatchNumber(c.Request.Context(), pathway)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"batchNumber": n})
}

// GET /api/batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.batches.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// GET /api/batches/:id/history
func (h *BatchHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.batches.History(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

// GET /api/batches/:id/readiness
func (h *BatchHandler) Readiness(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.batches.Readiness(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, r)
}

// POST /api/batches
func (h *BatchHandler) Create(c *gin.Context) {
	var req struct {
		BatchNumber string     `json:"batchNumber" binding:"omitempty,max=50"`
		CustomName  *string    `json:"customName" binding:"omitempty,max=100"`
		Pathway     string     `json:"pathway" binding:"required"`
		SpeciesID   uuid.UUID  `json:"speciesId" binding:"required"`
		InitialQty  int        `json:"initialQty" binding:"required,min=1,max=10000"`
		ZoneID      *uuid.UUID `json:"zoneId"`
		BedID       *uuid.UUID `json:"bedId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.batches.Create(c.Request.Context(), domainagg.CreateBatchInput{
		BatchNumber: req.BatchNumber,
		CustomName:  req.CustomName,
		Pathway:     nursery.Pathway(req.Pathway),
		SpeciesID:   req.SpeciesID,
		InitialQty:  req.InitialQty,
		ZoneID:      req.ZoneID,
		BedID:       req.BedID,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, "batch created", res.Batch)
}

// PUT /api/batches/:id
func (h *BatchHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		CustomName *string    `json:"customName" binding:"omitempty,max=100"`
		CurrentQty *int       `json:"currentQty" binding:"omitempty,min=0,max=10000"`
		Status     *string    `json:"status"`
		IsReady    *bool      `json:"isReady"`
		ReadyDate  *time.Time `json:"readyDate"`
		LossReason *string    `json:"lossReason" binding:"omitempty,max=200"`
		LossQty    *int       `json:"lossQty" binding:"omitempty,min=0"`
	}
	if !bindJSON(c, &req) {
		return
	}
	in := domainagg.UpdateBatchFieldsInput{
		BatchID:    id,
		CustomName: req.CustomName,
		CurrentQty: req.CurrentQty,
		IsReady:    req.IsReady,
		ReadyDate:  req.ReadyDate,
		LossReason: req.LossReason,
		LossQty:    req.LossQty,
	}
	if req.Status != nil {
		s := nursery.BatchStatus(*req.Status)
		in.Status = &s
	}
	if in.Empty() {
		response.RespondErr(c, domainagg.NewError(domainagg.CodeValidation, "BatchHandler.Update", errNoFields.Error(), errNoFields))
		return
	}
	res, err := h.batches.Update(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "batch updated", res.Batch)
}

// POST /api/batches/:id/stage
func (h *BatchHandler) UpdateStage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ToStage  string  `json:"toStage" binding:"required"`
		Quantity int     `json:"quantity" binding:"required,min=1,max=10000"`
		Notes    *string `json:"notes" binding:"omitempty,max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.batches.UpdateStage(c.Request.Context(), domainagg.UpdateStageInput{
		BatchID:  id,
		ToStage:  nursery.Stage(req.ToStage),
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "batch stage updated", gin.H{
		"batch":           res.Batch,
		"history":         res.History,
		"historyAppended": res.History != nil,
	})
}

// POST /api/batches/:id/ready
func (h *BatchHandler) MarkReady(c *gin.Context) {
	h.transition(c, "batch marked as ready", h.batches.MarkReady)
}

// POST /api/batches/:id/deliver
func (h *BatchHandler) Deliver(c *gin.Context) {
	h.transition(c, "batch delivered", h.batches.Deliver)
}

func (h *BatchHandler) transition(c *gin.Context, message string, fn func(ctx context.Context, id uuid.UUID) (domainagg.BatchWriteResult, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, message, res.Batch)
}

// POST /api/batches/:id/cancel
func (h *BatchHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"omitempty,max=200"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	res, err := h.batches.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "batch cancelled", res.Batch)
}

// POST /api/batches/:id/loss
func (h *BatchHandler) RecordLoss(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity int    `json:"quantity" binding:"required,min=1,max=10000"`
		Reason   string `json:"reason" binding:"required,max=200"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.batches.RecordLoss(c.Request.Context(), domainagg.RecordLossInput{
		BatchID:  id,
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "loss recorded", res.Batch)
}

// POST /api/batches/:id/move
func (h *BatchHandler) Move(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ZoneID *uuid.UUID `json:"zoneId"`
		BedID  *uuid.UUID `json:"bedId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.batches.Move(c.Request.Context(), domainagg.MoveBatchInput{
		BatchID: id,
		ZoneID:  req.ZoneID,
		BedID:   req.BedID,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "batch moved", res.Batch)
}

// DELETE /api/batches/:id
func (h *BatchHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.batches.Delete(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "batch deleted", gin.H{
		"id":                  res.Batch.ID,
		"measurementsDeleted": res.MeasurementsDeleted,
		"historyDeleted":      res.HistoryDeleted,
	})
}
