package nursery

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type BedRepo interface {
	Create(dbc dbctx.Context, rows []*types.Bed) ([]*types.Bed, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Bed, error)
	// LockByID takes a row lock on the bed for the rest of the transaction.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Bed, error)
	ListByZone(dbc dbctx.Context, zoneID uuid.UUID) ([]*types.Bed, error)
	ListAll(dbc dbctx.Context) ([]*types.Bed, error)
	FindByNameInZone(dbc dbctx.Context, zoneID uuid.UUID, name string, excludeID uuid.UUID) (*types.Bed, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	// AddOccupied applies a conditional increment that never exceeds capacity.
	// It reports false when the guard rejected the update.
	AddOccupied(dbc dbctx.Context, id uuid.UUID, qty int) (bool, error)
	// SubOccupied applies a conditional decrement that never goes below zero.
	SubOccupied(dbc dbctx.Context, id uuid.UUID, qty int) (bool, error)
	SetOccupied(dbc dbctx.Context, id uuid.UUID, occupied int) error

	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByZone(dbc dbctx.Context, zoneID uuid.UUID) (int64, error)
}

type bedRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBedRepo(db *gorm.DB, baseLog *logger.Logger) BedRepo {
	return &bedRepo{db: db, log: baseLog.With("repo", "BedRepo")}
}

func (r *bedRepo) Create(dbc dbctx.Context, rows []*types.Bed) ([]*types.Bed, error) {
	if len(rows) == 0 {
		return []*types.Bed{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bedRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Bed, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Bed
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *bedRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Bed, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID required dbc.Tx")
	}
	var rows []*types.Bed
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *bedRepo) ListByZone(dbc dbctx.Context, zoneID uuid.UUID) ([]*types.Bed, error) {
	var rows []*types.Bed
	if err := dbc.DB(r.db).Where("zone_id = ?", zoneID).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bedRepo) ListAll(dbc dbctx.Context) ([]*types.Bed, error) {
	var rows []*types.Bed
	if err := dbc.DB(r.db).Order("zone_id ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bedRepo) FindByNameInZone(dbc dbctx.Context, zoneID uuid.UUID, name string, excludeID uuid.UUID) (*types.Bed, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	q := dbc.DB(r.db).Where("zone_id = ? AND LOWER(name) = LOWER(?)", zoneID, name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []*types.Bed
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *bedRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing bed id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["occupied"]; ok {
		return fmt.Errorf("occupied is maintained by the capacity ledger")
	}
	return dbc.DB(r.db).Model(&types.Bed{}).Where("id = ?", id).Updates(updates).Error
}

func (r *bedRepo) AddOccupied(dbc dbctx.Context, id uuid.UUID, qty int) (bool, error) {
	res := dbc.DB(r.db).Model(&types.Bed{}).
		Where("id = ? AND occupied + ? <= capacity", id, qty).
		Updates(map[string]interface{}{
			"occupied":   gorm.Expr("occupied + ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bedRepo) SubOccupied(dbc dbctx.Context, id uuid.UUID, qty int) (bool, error) {
	res := dbc.DB(r.db).Model(&types.Bed{}).
		Where("id = ? AND occupied >= ?", id, qty).
		Updates(map[string]interface{}{
			"occupied":   gorm.Expr("occupied - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bedRepo) SetOccupied(dbc dbctx.Context, id uuid.UUID, occupied int) error {
	return dbc.DB(r.db).Model(&types.Bed{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"occupied":   occupied,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *bedRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Bed{}).Error
}

func (r *bedRepo) DeleteByZone(dbc dbctx.Context, zoneID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("zone_id = ?", zoneID).Delete(&types.Bed{})
	return res.RowsAffected, res.Error
}
