package nursery

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type BatchFilter struct {
	Search      string
	SpeciesID   *uuid.UUID
	ZoneID      *uuid.UUID
	BedID       *uuid.UUID
	CreatedByID *uuid.UUID
	Status      *nursery.BatchStatus
	Stage       *nursery.Stage
	Pathway     *nursery.Pathway
	IsReady     *bool
	Page        paging.Params
}

type BatchRepo interface {
	Create(dbc dbctx.Context, rows []*types.Batch) ([]*types.Batch, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error)
	// GetDetail loads the batch with species, zone, bed and creator.
	GetDetail(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error)
	FindByNumberFold(dbc dbctx.Context, batchNumber string) (*types.Batch, error)
	// LastNumberWithPrefix returns the highest batch number starting with prefix, or "".
	LastNumberWithPrefix(dbc dbctx.Context, prefix string) (string, error)
	List(dbc dbctx.Context, f BatchFilter) ([]*types.Batch, int64, error)
	ListOccupyingByBed(dbc dbctx.Context, bedID uuid.UUID) ([]*types.Batch, error)
	// SumOccupancy sums currentQty of the batches counted against the bed.
	SumOccupancy(dbc dbctx.Context, bedID uuid.UUID) (int, error)
	CountBySpecies(dbc dbctx.Context, speciesID uuid.UUID) (int64, error)
	CountByZone(dbc dbctx.Context, zoneID uuid.UUID) (int64, error)
	CountByBed(dbc dbctx.Context, bedID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type batchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return &batchRepo{db: db, log: baseLog.With("repo", "BatchRepo")}
}

func (r *batchRepo) Create(dbc dbctx.Context, rows []*types.Batch) ([]*types.Batch, error) {
	if len(rows) == 0 {
		return []*types.Batch{}, nil
	}
	if err := dbc.DB(r.db).Omit(clause.Associations).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *batchRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error) {
	return r.first(dbc.DB(r.db), id)
}

func (r *batchRepo) GetDetail(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error) {
	return r.first(withBatchRelations(dbc.DB(r.db)), id)
}

func (r *batchRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	return r.first(dbc.Tx.WithContext(dbc.Ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *batchRepo) first(q *gorm.DB, id uuid.UUID) (*types.Batch, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Batch
	if err := q.Where("batches.id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *batchRepo) FindByNumberFold(dbc dbctx.Context, batchNumber string) (*types.Batch, error) {
	batchNumber = strings.TrimSpace(batchNumber)
	if batchNumber == "" {
		return nil, nil
	}
	var rows []*types.Batch
	if err := dbc.DB(r.db).
		Where("LOWER(batch_number) = LOWER(?)", batchNumber).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *batchRepo) LastNumberWithPrefix(dbc dbctx.Context, prefix string) (string, error) {
	var numbers []string
	if err := dbc.DB(r.db).Model(&types.Batch{}).
		Where("batch_number LIKE ?", prefix+"%").
		Order("batch_number DESC").
		Limit(1).
		Pluck("batch_number", &numbers).Error; err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *batchRepo) List(dbc dbctx.Context, f BatchFilter) ([]*types.Batch, int64, error) {
	q := dbc.DB(r.db).Model(&types.Batch{})
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := likePattern(s)
		q = q.Where("LOWER(batch_number) LIKE ? OR LOWER(COALESCE(custom_name, '')) LIKE ?", like, like)
	}
	if f.SpeciesID != nil {
		q = q.Where("species_id = ?", *f.SpeciesID)
	}
	if f.ZoneID != nil {
		q = q.Where("zone_id = ?", *f.ZoneID)
	}
	if f.BedID != nil {
		q = q.Where("bed_id = ?", *f.BedID)
	}
	if f.CreatedByID != nil {
		q = q.Where("created_by_id = ?", *f.CreatedByID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Stage != nil {
		q = q.Where("stage = ?", *f.Stage)
	}
	if f.Pathway != nil {
		q = q.Where("pathway = ?", *f.Pathway)
	}
	if f.IsReady != nil {
		q = q.Where("is_ready = ?", *f.IsReady)
	}
	var rows []*types.Batch
	total, err := paginate(q, f.Page, "created_at DESC", &rows, withBatchRelations)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *batchRepo) ListOccupyingByBed(dbc dbctx.Context, bedID uuid.UUID) ([]*types.Batch, error) {
	var rows []*types.Batch
	if err := dbc.DB(r.db).
		Preload("Species").
		Where("bed_id = ? AND status IN ?", bedID, nursery.OccupyingStatuses()).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *batchRepo) SumOccupancy(dbc dbctx.Context, bedID uuid.UUID) (int, error) {
	var sum int64
	if err := dbc.DB(r.db).Model(&types.Batch{}).
		Where("bed_id = ? AND status IN ?", bedID, nursery.OccupyingStatuses()).
		Select("COALESCE(SUM(current_qty), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return int(sum), nil
}

func (r *batchRepo) CountBySpecies(dbc dbctx.Context, speciesID uuid.UUID) (int64, error) {
	return r.countWhere(dbc, "species_id = ?", speciesID)
}

func (r *batchRepo) CountByZone(dbc dbctx.Context, zoneID uuid.UUID) (int64, error) {
	return r.countWhere(dbc, "zone_id = ?", zoneID)
}

func (r *batchRepo) CountByBed(dbc dbctx.Context, bedID uuid.UUID) (int64, error) {
	return r.countWhere(dbc, "bed_id = ?", bedID)
}

func (r *batchRepo) countWhere(dbc dbctx.Context, cond string, arg interface{}) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Batch{}).Where(cond, arg).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *batchRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing batch id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.Batch{}).Where("id = ?", id).Updates(updates).Error
}

func (r *batchRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Batch{}).Error
}

func withBatchRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Species").Preload("Zone").Preload("Bed").Preload("CreatedBy")
}
