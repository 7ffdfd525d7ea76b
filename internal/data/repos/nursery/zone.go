package nursery

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type ZoneFilter struct {
	Search   string
	IsActive *bool
	Page     paging.Params
}

type ZoneRepo interface {
	Create(dbc dbctx.Context, rows []*types.Zone) ([]*types.Zone, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Zone, error)
	// GetWithBeds loads the zone with its beds ordered by name.
	GetWithBeds(dbc dbctx.Context, id uuid.UUID) (*types.Zone, error)
	FindByNameFold(dbc dbctx.Context, name string, excludeID uuid.UUID) (*types.Zone, error)
	List(dbc dbctx.Context, f ZoneFilter) ([]*types.Zone, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type zoneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewZoneRepo(db *gorm.DB, baseLog *logger.Logger) ZoneRepo {
	return &zoneRepo{db: db, log: baseLog.With("repo", "ZoneRepo")}
}

func (r *zoneRepo) Create(dbc dbctx.Context, rows []*types.Zone) ([]*types.Zone, error) {
	if len(rows) == 0 {
		return []*types.Zone{}, nil
	}
	// Beds are created explicitly through BedRepo so occupancy starts at zero.
	if err := dbc.DB(r.db).Omit("Beds").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *zoneRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Zone, error) {
	return r.get(dbc, id, false)
}

func (r *zoneRepo) GetWithBeds(dbc dbctx.Context, id uuid.UUID) (*types.Zone, error) {
	return r.get(dbc, id, true)
}

func (r *zoneRepo) get(dbc dbctx.Context, id uuid.UUID, withBeds bool) (*types.Zone, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	q := dbc.DB(r.db).Where("id = ?", id)
	if withBeds {
		q = preloadBeds(q)
	}
	var rows []*types.Zone
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *zoneRepo) FindByNameFold(dbc dbctx.Context, name string, excludeID uuid.UUID) (*types.Zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	q := dbc.DB(r.db).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []*types.Zone
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *zoneRepo) List(dbc dbctx.Context, f ZoneFilter) ([]*types.Zone, int64, error) {
	q := dbc.DB(r.db).Model(&types.Zone{})
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(s))
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	var rows []*types.Zone
	total, err := paginate(q, f.Page, "name ASC", &rows, preloadBeds)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *zoneRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing zone id")
	}
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Zone{}).Where("id = ?", id).Updates(updates).Error
}

func (r *zoneRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Zone{}).Error
}

func preloadBeds(q *gorm.DB) *gorm.DB {
	return q.Preload("Beds", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") })
}
