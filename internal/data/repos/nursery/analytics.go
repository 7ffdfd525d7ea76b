package nursery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type TimeWindow struct {
	From *time.Time
	To   *time.Time
}

func (w TimeWindow) apply(q *gorm.DB, column string) *gorm.DB {
	if w.From != nil {
		q = q.Where(column+" >= ?", w.From.UTC())
	}
	if w.To != nil {
		q = q.Where(column+" <= ?", w.To.UTC())
	}
	return q
}

type SpeciesDistributionRow struct {
	SpeciesID   uuid.UUID `json:"speciesId"`
	SpeciesName string    `json:"speciesName"`
	BatchCount  int64     `json:"batchCount"`
	TotalPlants int64     `json:"totalPlants"`
}

// ZoneUtilizationRow sums the cached occupancy of a zone's beds.
type ZoneUtilizationRow struct {
	ZoneID   uuid.UUID `json:"zoneId"`
	ZoneName string    `json:"zoneName"`
	Capacity int64     `json:"capacity"`
	Occupied int64     `json:"occupied"`
}

type StagePipelineRow struct {
	Stage       nursery.Stage `json:"stage"`
	BatchCount  int64         `json:"batchCount"`
	TotalPlants int64         `json:"totalPlants"`
}

// AnalyticsRepo holds read-only aggregate queries. Date bucketing is done by callers so the
// SQL stays portable across drivers.
type AnalyticsRepo interface {
	CountBatches(dbc dbctx.Context, statuses []nursery.BatchStatus, w TimeWindow, windowColumn string) (int64, error)
	CountReadyUndelivered(dbc dbctx.Context) (int64, error)
	SumCurrentQty(dbc dbctx.Context, statuses []nursery.BatchStatus, w TimeWindow, windowColumn string) (int64, error)
	SumLossQty(dbc dbctx.Context, w TimeWindow) (int64, error)
	CountActiveSpecies(dbc dbctx.Context) (int64, error)
	CountActiveZones(dbc dbctx.Context) (int64, error)
	CountMeasurements(dbc dbctx.Context, w TimeWindow) (int64, error)
	RecentlyUpdatedBatches(dbc dbctx.Context, limit int) ([]*types.Batch, error)
	SpeciesDistribution(dbc dbctx.Context) ([]SpeciesDistributionRow, error)
	StagePipeline(dbc dbctx.Context) ([]StagePipelineRow, error)
	MeasurementsInWindow(dbc dbctx.Context, w TimeWindow, speciesID *uuid.UUID) ([]*types.Measurement, error)
	ZoneUtilization(dbc dbctx.Context) ([]ZoneUtilizationRow, error)
	DeliveredInWindow(dbc dbctx.Context, w TimeWindow) ([]*types.Batch, error)
}

type analyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	return &analyticsRepo{db: db, log: baseLog.With("repo", "AnalyticsRepo")}
}

func (r *analyticsRepo) CountBatches(dbc dbctx.Context, statuses []nursery.BatchStatus, w TimeWindow, windowColumn string) (int64, error) {
	q := dbc.DB(r.db).Model(&types.Batch{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if windowColumn != "" {
		q = w.apply(q, windowColumn)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *analyticsRepo) CountReadyUndelivered(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Batch{}).
		Where("is_ready = ? AND status <> ?", true, nursery.StatusDelivered).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *analyticsRepo) SumCurrentQty(dbc dbctx.Context, statuses []nursery.BatchStatus, w TimeWindow, windowColumn string) (int64, error) {
	q := dbc.DB(r.db).Model(&types.Batch{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if windowColumn != "" {
		q = w.apply(q, windowColumn)
	}
	var sum int64
	if err := q.Select("COALESCE(SUM(current_qty), 0)").Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *analyticsRepo) SumLossQty(dbc dbctx.Context, w TimeWindow) (int64, error) {
	q := w.apply(dbc.DB(r.db).Model(&types.Batch{}).Where("loss_qty > 0"), "updated_at")
	var sum int64
	if err := q.Select("COALESCE(SUM(loss_qty), 0)").Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *analyticsRepo) CountActiveSpecies(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Species{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (r *analyticsRepo) CountActiveZones(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Zone{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (r *analyticsRepo) CountMeasurements(dbc dbctx.Context, w TimeWindow) (int64, error) {
	var n int64
	err := w.apply(dbc.DB(r.db).Model(&types.Measurement{}), "created_at").Count(&n).Error
	return n, err
}

func (r *analyticsRepo) RecentlyUpdatedBatches(dbc dbctx.Context, limit int) ([]*types.Batch, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []*types.Batch
	if err := dbc.DB(r.db).
		Preload("Species").
		Preload("Zone").
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepo) SpeciesDistribution(dbc dbctx.Context) ([]SpeciesDistributionRow, error) {
	var rows []SpeciesDistributionRow
	if err := dbc.DB(r.db).
		Table("species").
		Select("species.id AS species_id, species.name AS species_name, COUNT(batches.id) AS batch_count, COALESCE(SUM(batches.current_qty), 0) AS total_plants").
		Joins("LEFT JOIN batches ON batches.species_id = species.id AND batches.status IN ?", nursery.OccupyingStatuses()).
		Where("species.is_active = ?", true).
		Group("species.id, species.name").
		Order("species.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepo) StagePipeline(dbc dbctx.Context) ([]StagePipelineRow, error) {
	var rows []StagePipelineRow
	if err := dbc.DB(r.db).
		Model(&types.Batch{}).
		Select("stage, COUNT(id) AS batch_count, COALESCE(SUM(current_qty), 0) AS total_plants").
		Where("status IN ?", []nursery.BatchStatus{nursery.StatusCreated, nursery.StatusInProgress}).
		Group("stage").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepo) MeasurementsInWindow(dbc dbctx.Context, w TimeWindow, speciesID *uuid.UUID) ([]*types.Measurement, error) {
	q := w.apply(dbc.DB(r.db).Model(&types.Measurement{}), "measurements.created_at")
	if speciesID != nil {
		q = q.Joins("JOIN batches ON batches.id = measurements.batch_id").
			Where("batches.species_id = ?", *speciesID)
	}
	var rows []*types.Measurement
	if err := q.Order("measurements.created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepo) DeliveredInWindow(dbc dbctx.Context, w TimeWindow) ([]*types.Batch, error) {
	q := w.apply(dbc.DB(r.db).Model(&types.Batch{}).Where("status = ?", nursery.StatusDelivered), "updated_at")
	var rows []*types.Batch
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepo) ZoneUtilization(dbc dbctx.Context) ([]ZoneUtilizationRow, error) {
	var rows []ZoneUtilizationRow
	if err := dbc.DB(r.db).
		Table("zones").
		Select("zones.id AS zone_id, zones.name AS zone_name, zones.capacity AS capacity, COALESCE(SUM(beds.occupied), 0) AS occupied").
		Joins("LEFT JOIN beds ON beds.zone_id = zones.id").
		Where("zones.is_active = ?", true).
		Group("zones.id, zones.name, zones.capacity").
		Order("zones.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
