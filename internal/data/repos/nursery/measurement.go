package nursery

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type MeasurementFilter struct {
	BatchID   *uuid.UUID
	UserID    *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Page      paging.Params
}

type MeasurementRepo interface {
	Create(dbc dbctx.Context, rows []*types.Measurement) ([]*types.Measurement, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Measurement, error)
	GetDetail(dbc dbctx.Context, id uuid.UUID) (*types.Measurement, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Measurement, error)
	List(dbc dbctx.Context, f MeasurementFilter) ([]*types.Measurement, int64, error)
	// ListByBatch returns newest first; limit <= 0 means all.
	ListByBatch(dbc dbctx.Context, batchID uuid.UUID, limit int) ([]*types.Measurement, error)
	// FirstAndLast returns the oldest and newest sample of a batch, nil when absent.
	FirstAndLast(dbc dbctx.Context, batchID uuid.UUID) (*types.Measurement, *types.Measurement, error)
	CountByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error)
}

type measurementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeasurementRepo(db *gorm.DB, baseLog *logger.Logger) MeasurementRepo {
	return &measurementRepo{db: db, log: baseLog.With("repo", "MeasurementRepo")}
}

func (r *measurementRepo) Create(dbc dbctx.Context, rows []*types.Measurement) ([]*types.Measurement, error) {
	if len(rows) == 0 {
		return []*types.Measurement{}, nil
	}
	if err := dbc.DB(r.db).Omit(clause.Associations).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *measurementRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Measurement, error) {
	return r.first(dbc.DB(r.db), id)
}

func (r *measurementRepo) GetDetail(dbc dbctx.Context, id uuid.UUID) (*types.Measurement, error) {
	return r.first(withMeasurementRelations(dbc.DB(r.db)), id)
}

func (r *measurementRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Measurement, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	return r.first(dbc.Tx.WithContext(dbc.Ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *measurementRepo) first(q *gorm.DB, id uuid.UUID) (*types.Measurement, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Measurement
	if err := q.Where("measurements.id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *measurementRepo) List(dbc dbctx.Context, f MeasurementFilter) ([]*types.Measurement, int64, error) {
	q := dbc.DB(r.db).Model(&types.Measurement{})
	if f.BatchID != nil {
		q = q.Where("batch_id = ?", *f.BatchID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", f.EndDate.UTC())
	}
	var rows []*types.Measurement
	total, err := paginate(q, f.Page, "created_at DESC", &rows, withMeasurementRelations)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *measurementRepo) ListByBatch(dbc dbctx.Context, batchID uuid.UUID, limit int) ([]*types.Measurement, error) {
	q := dbc.DB(r.db).Preload("User").Where("batch_id = ?", batchID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*types.Measurement
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *measurementRepo) FirstAndLast(dbc dbctx.Context, batchID uuid.UUID) (*types.Measurement, *types.Measurement, error) {
	db := dbc.DB(r.db)
	var first, last []*types.Measurement
	if err := db.Where("batch_id = ?", batchID).Order("created_at ASC").Limit(1).Find(&first).Error; err != nil {
		return nil, nil, err
	}
	if len(first) == 0 {
		return nil, nil, nil
	}
	if err := db.Where("batch_id = ?", batchID).Order("created_at DESC").Limit(1).Find(&last).Error; err != nil {
		return nil, nil, err
	}
	return first[0], last[0], nil
}

func (r *measurementRepo) CountByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Measurement{}).Where("batch_id = ?", batchID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *measurementRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing measurement id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.Measurement{}).Where("id = ?", id).Updates(updates).Error
}

func (r *measurementRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Measurement{}).Error
}

func (r *measurementRepo) DeleteByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("batch_id = ?", batchID).Delete(&types.Measurement{})
	return res.RowsAffected, res.Error
}

func withMeasurementRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Batch").Preload("Batch.Species").Preload("User")
}
