package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/clients/redis"
	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/audit"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

const detailMeasurementLimit = 10

// BatchDetail is a batch with its relations, recent samples, full stage history and readiness.
type BatchDetail struct {
	*types.Batch
	Measurements []*types.Measurement  `json:"measurements"`
	StageHistory []*types.StageHistory `json:"stageHistory"`
	Readiness    Readiness             `json:"readiness"`
}

type BatchService interface {
	List(ctx context.Context, f repos.BatchFilter) ([]*types.Batch, paging.Meta, error)
	Get(ctx context.Context, id uuid.UUID) (*BatchDetail, error)
	History(ctx context.Context, id uuid.UUID) ([]*types.StageHistory, error)
	Readiness(ctx context.Context, id uuid.UUID) (*Readiness, error)
	NextBatchNumber(ctx context.Context, pathway nursery.Pathway) (string, error)

	Create(ctx context.Context, in domainagg.CreateBatchInput) (domainagg.BatchWriteResult, error)
	UpdateStage(ctx context.Context, in domainagg.UpdateStageInput) (domainagg.BatchWriteResult, error)
	MarkReady(ctx context.Context, id uuid.UUID) (domainagg.BatchWriteResult, error)
	Deliver(ctx context.Context, id uuid.UUID) (domainagg.BatchWriteResult, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (domainagg.BatchWriteResult, error)
	RecordLoss(ctx context.Context, in domainagg.RecordLossInput) (domainagg.BatchWriteResult, error)
	Move(ctx context.Context, in domainagg.MoveBatchInput) (domainagg.BatchWriteResult, error)
	Update(ctx context.Context, in domainagg.UpdateBatchFieldsInput) (domainagg.BatchWriteResult, error)
	Delete(ctx context.Context, id uuid.UUID) (domainagg.DeleteBatchResult, error)
}

type batchService struct {
	log          *logger.Logger
	lifecycle    domainagg.BatchLifecycleAggregate
	batches      repos.BatchRepo
	history      repos.StageHistoryRepo
	measurements repos.MeasurementRepo
	audit        AuditService
	cache        redis.Cache
}

func NewBatchService(
	log *logger.Logger,
	lifecycle domainagg.BatchLifecycleAggregate,
	batches repos.BatchRepo,
	history repos.StageHistoryRepo,
	measurements repos.MeasurementRepo,
	audit AuditService,
	cache redis.Cache,
) BatchService {
	return &batchService{
		log:          log.With("service", "BatchService"),
		lifecycle:    lifecycle,
		batches:      batches,
		history:      history,
		measurements: measurements,
		audit:        audit,
		cache:        cache,
	}
}

func (s *batchService) List(ctx context.Context, f repos.BatchFilter) ([]*types.Batch, paging.Meta, error) {
	f.Search = strings.TrimSpace(f.Search)
	rows, total, err := s.batches.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return nil, paging.Meta{}, mapRepoError("BatchService.List", err)
	}
	return rows, paging.NewMeta(f.Page, total), nil
}

func (s *batchService) Get(ctx context.Context, id uuid.UUID) (*BatchDetail, error) {
	const op = "BatchService.Get"
	dbc := dbctx.Context{Ctx: ctx}
	b, err := s.batches.GetDetail(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if b == nil {
		return nil, notFound(op, "batch")
	}
	ms, err := s.measurements.ListByBatch(dbc, id, detailMeasurementLimit)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	hist, err := s.history.ListByBatch(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	ready, err := s.readiness(dbc, b)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	return &BatchDetail{Batch: b, Measurements: ms, StageHistory: hist, Readiness: *ready}, nil
}

func (s *batchService) History(ctx context.Context, id uuid.UUID) ([]*types.StageHistory, error) {
	const op = "BatchService.History"
	dbc := dbctx.Context{Ctx: ctx}
	b, err := s.batches.GetByID(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if b == nil {
		return nil, notFound(op, "batch")
	}
	rows, err := s.history.ListByBatch(dbc, id)
	return rows, mapRepoError(op, err)
}

func (s *batchService) Readiness(ctx context.Context, id uuid.UUID) (*Readiness, error) {
	const op = "BatchService.Readiness"
	dbc := dbctx.Context{Ctx: ctx}
	b, err := s.batches.GetDetail(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if b == nil {
		return nil, notFound(op, "batch")
	}
	out, err := s.readiness(dbc, b)
	return out, mapRepoError(op, err)
}

// readiness expects b loaded with its species.
func (s *batchService) readiness(dbc dbctx.Context, b *types.Batch) (*Readiness, error) {
	out := &Readiness{}
	if b.Species != nil {
		out.TargetGirth = b.Species.TargetGirth
		out.TargetHeight = b.Species.TargetHeight
	}
	first, last, err := s.measurements.FirstAndLast(dbc, b.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.measurements.CountByBatch(dbc, b.ID)
	if err != nil {
		return nil, err
	}
	out.MeasurementsCount = count
	if last != nil {
		out.HasMeasurement = true
		out.LatestGirth = &last.Girth
		out.LatestHeight = &last.Height
	}
	out.Ready = CheckReadiness(b.Species, last)
	if count >= 2 {
		out.EstimatedReadyAt = EstimateReadyDate(b.Species, first, last, time.Now())
	}
	return out, nil
}

func (s *batchService) NextBatchNumber(ctx context.Context, pathway nursery.Pathway) (string, error) {
	return s.lifecycle.NextBatchNumber(ctx, pathway, time.Now())
}

func (s *batchService) Create(ctx context.Context, in domainagg.CreateBatchInput) (domainagg.BatchWriteResult, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return domainagg.BatchWriteResult{}, err
	}
	in.CreatedByID = caller.UserID
	res, err := s.lifecycle.CreateBatch(ctx, in)
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionBatchCreated, res.Batch.ID, nil, res.Batch)
	return res, nil
}

func (s *batchService) UpdateStage(ctx context.Context, in domainagg.UpdateStageInput) (domainagg.BatchWriteResult, error) {
	res, err := s.lifecycle.UpdateStage(ctx, in)
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionBatchStageUpdated, res.Batch.ID,
		map[string]any{"stage": res.Before.Stage, "currentQty": res.Before.CurrentQty},
		map[string]any{"stage": res.Batch.Stage, "currentQty": res.Batch.CurrentQty, "notes": in.Notes})
	return res, nil
}

func (s *batchService) MarkReady(ctx context.Context, id uuid.UUID) (domainagg.BatchWriteResult, error) {
	res, err := s.lifecycle.MarkReady(ctx, domainagg.MarkReadyInput{BatchID: id})
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionBatchReady, id,
		map[string]any{"isReady": res.Before.IsReady, "status": res.Before.Status},
		map[string]any{"isReady": true, "status": res.Batch.Status, "readyDate": res.Batch.ReadyDate})
	return res, nil
}

func (s *batchService) Deliver(ctx context.Context, id uuid.UUID) (domainagg.BatchWriteResult, error) {
	res, err := s.lifecycle.DeliverBatch(ctx, domainagg.BatchRefInput{BatchID: id})
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionBatchDelivered, id,
		map[string]any{"status": res.Before.Status},
		map[string]any{"status": res.Batch.Status})
	return res, nil
}

func (s *batchService) Cancel(ctx context.Context, id uuid.UUID, reason string) (domainagg.BatchWriteResult, error) {
	res, err := s.lifecycle.CancelBatch(ctx, domainagg.CancelBatchInput{BatchID: id, Reason: reason})
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionBatchCancelled, id,
		map[string]any{"status": res.Before.Status},
		map[string]any{"status": res.Batch.Status, "reason": strings.TrimSpace(reason)})
	return res, nil
}

func (s *batchService) RecordLoss(ctx context.Context, in domainagg.RecordLossInput) (domainagg.BatchWriteResult, error) {
	res, err := s.lifecycle.RecordLoss(ctx, in)
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionBatchLossRecorded, in.BatchID,
		map[string]any{"currentQty": res.Before.CurrentQty, "lossQty": res.Before.LossQty},
		map[string]any{"currentQty": res.Batch.CurrentQty, "lossQty": res.Batch.LossQty, "lossReason": res.Batch.LossReason})
	return res, nil
}

func (s *batchService) Move(ctx context.Context, in domainagg.MoveBatchInput) (domainagg.BatchWriteResult, error) {
	res, err := s.lifecycle.MoveBatch(ctx, in)
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionBatchMoved, in.BatchID,
		map[string]any{"zoneId": res.Before.ZoneID, "bedId": res.Before.BedID},
		map[string]any{"zoneId": res.Batch.ZoneID, "bedId": res.Batch.BedID})
	return res, nil
}

func (s *batchService) Update(ctx context.Context, in domainagg.UpdateBatchFieldsInput) (domainagg.BatchWriteResult, error) {
	res, err := s.lifecycle.UpdateBatchFields(ctx, in)
	if err != nil {
		return res, err
	}
	if !in.Empty() {
		s.afterWrite(ctx, audit.ActionBatchUpdated, in.BatchID, res.Before, res.Batch)
	}
	return res, nil
}

func (s *batchService) Delete(ctx context.Context, id uuid.UUID) (domainagg.DeleteBatchResult, error) {
	res, err := s.lifecycle.DeleteBatch(ctx, domainagg.BatchRefInput{BatchID: id})
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionBatchDeleted, id, res.Batch, nil)
	return res, nil
}

func (s *batchService) afterWrite(ctx context.Context, action string, batchID uuid.UUID, oldValues, newValues any) {
	s.audit.Record(ctx, action, &batchID, oldValues, newValues)
	invalidateAnalytics(ctx, s.log, s.cache)
}

// invalidateAnalytics drops cached dashboards after a write. Cache failures only cost freshness
// until the TTL runs out.
func invalidateAnalytics(ctx context.Context, log *logger.Logger, cache redis.Cache) {
	if cache == nil {
		return
	}
	if err := cache.InvalidatePrefix(context.WithoutCancel(ctx), analyticsCachePrefix); err != nil {
		log.Warn("analytics cache invalidation failed", "error", err)
	}
}
