package services

import (
	"context"

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

type GrowthRanges struct {
	Unit         nursery.LengthUnit    `json:"unit"`
	GirthRanges  []nursery.RangeOption `json:"girthRanges"`
	HeightRanges []nursery.RangeOption `json:"heightRanges"`
	GrowthBands  []nursery.GrowthBand  `json:"growthBands"`
}

type MeasurementService interface {
	List(ctx context.Context, f repos.MeasurementFilter) ([]*types.Measurement, paging.Meta, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Measurement, error)
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*types.Measurement, error)
	Ranges(unit nursery.LengthUnit) (*GrowthRanges, error)

	Record(ctx context.Context, in domainagg.RecordMeasurementInput) (domainagg.MeasurementWriteResult, error)
	RecordRange(ctx context.Context, in domainagg.RecordRangeMeasurementInput) (domainagg.MeasurementWriteResult, error)
	Update(ctx context.Context, in domainagg.UpdateMeasurementInput) (domainagg.MeasurementWriteResult, error)
	Delete(ctx context.Context, id uuid.UUID) (domainagg.MeasurementWriteResult, error)
}

type measurementService struct {
	log          *logger.Logger
	recorder     domainagg.MeasurementAggregate
	measurements repos.MeasurementRepo
	batches      repos.BatchRepo
	audit        AuditService
	cache        redis.Cache
}

func NewMeasurementService(
	log *logger.Logger,
	recorder domainagg.MeasurementAggregate,
	measurements repos.MeasurementRepo,
	batches repos.BatchRepo,
	audit AuditService,
	cache redis.Cache,
) MeasurementService {
	return &measurementService{
		log:          log.With("service", "MeasurementService"),
		recorder:     recorder,
		measurements: measurements,
		batches:      batches,
		audit:        audit,
		cache:        cache,
	}
}

func (s *measurementService) List(ctx context.Context, f repos.MeasurementFilter) ([]*types.Measurement, paging.Meta, error) {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, paging.Meta{}, invalid("MeasurementService.List", "endDate is before startDate")
	}
	rows, total, err := s.measurements.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return nil, paging.Meta{}, mapRepoError("MeasurementService.List", err)
	}
	return rows, paging.NewMeta(f.Page, total), nil
}

func (s *measurementService) Get(ctx context.Context, id uuid.UUID) (*types.Measurement, error) {
	const op = "MeasurementService.Get"
	m, err := s.measurements.GetDetail(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if m == nil {
		return nil, notFound(op, "measurement")
	}
	return m, nil
}

func (s *measurementService) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*types.Measurement, error) {
	const op = "MeasurementService.ListByBatch"
	dbc := dbctx.Context{Ctx: ctx}
	b, err := s.batches.GetByID(dbc, batchID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if b == nil {
		return nil, notFound(op, "batch")
	}
	rows, err := s.measurements.ListByBatch(dbc, batchID, 0)
	return rows, mapRepoError(op, err)
}

func (s *measurementService) Ranges(unit nursery.LengthUnit) (*GrowthRanges, error) {
	const op = "MeasurementService.Ranges"
	if unit == "" {
		unit = nursery.UnitCM
	}
	girth, err := nursery.GirthRanges(unit)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInvalidEnum, op, "unsupported unit", err)
	}
	height, err := nursery.HeightRanges(unit)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInvalidEnum, op, "unsupported unit", err)
	}
	return &GrowthRanges{
		Unit:         unit,
		GirthRanges:  girth,
		HeightRanges: height,
		GrowthBands:  nursery.GrowthBands(),
	}, nil
}

func (s *measurementService) Record(ctx context.Context, in domainagg.RecordMeasurementInput) (domainagg.MeasurementWriteResult, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return domainagg.MeasurementWriteResult{}, err
	}
	in.UserID = caller.UserID
	res, err := s.recorder.RecordMeasurement(ctx, in)
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionMeasurementCreated, res.Measurement.BatchID, nil, res.Measurement)
	return res, nil
}

func (s *measurementService) RecordRange(ctx context.Context, in domainagg.RecordRangeMeasurementInput) (domainagg.MeasurementWriteResult, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return domainagg.MeasurementWriteResult{}, err
	}
	in.UserID = caller.UserID
	res, err := s.recorder.RecordRangeMeasurement(ctx, in)
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionMeasurementCreated, res.Measurement.BatchID, nil, res.Measurement)
	return res, nil
}

func (s *measurementService) Update(ctx context.Context, in domainagg.UpdateMeasurementInput) (domainagg.MeasurementWriteResult, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return domainagg.MeasurementWriteResult{}, err
	}
	in.Caller = caller
	res, err := s.recorder.UpdateMeasurement(ctx, in)
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionMeasurementUpdated, res.Measurement.BatchID, res.Before, res.Measurement)
	return res, nil
}

func (s *measurementService) Delete(ctx context.Context, id uuid.UUID) (domainagg.MeasurementWriteResult, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return domainagg.MeasurementWriteResult{}, err
	}
	res, err := s.recorder.DeleteMeasurement(ctx, domainagg.DeleteMeasurementInput{MeasurementID: id, Caller: caller})
	if err != nil {
		return res, err
	}
	s.afterWrite(ctx, audit.ActionMeasurementDeleted, res.Before.BatchID, res.Before, nil)
	return res, nil
}

func (s *measurementService) afterWrite(ctx context.Context, action string, batchID uuid.UUID, oldValues, newValues any) {
	s.audit.Record(ctx, action, &batchID, oldValues, newValues)
	invalidateAnalytics(ctx, s.log, s.cache)
}
