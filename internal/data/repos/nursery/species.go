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

type SpeciesFilter struct {
	Search   string
	IsActive *bool
	Page     paging.Params
}

type SpeciesRepo interface {
	Create(dbc dbctx.Context, rows []*types.Species) ([]*types.Species, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Species, error)
	FindByNameFold(dbc dbctx.Context, name string, excludeID uuid.UUID) (*types.Species, error)
	FindByScientificNameFold(dbc dbctx.Context, name string, excludeID uuid.UUID) (*types.Species, error)
	List(dbc dbctx.Context, f SpeciesFilter) ([]*types.Species, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type speciesRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpeciesRepo(db *gorm.DB, baseLog *logger.Logger) SpeciesRepo {
	return &speciesRepo{db: db, log: baseLog.With("repo", "SpeciesRepo")}
}

func (r *speciesRepo) Create(dbc dbctx.Context, rows []*types.Species) ([]*types.Species, error) {
	if len(rows) == 0 {
		return []*types.Species{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *speciesRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Species, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Species
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *speciesRepo) FindByNameFold(dbc dbctx.Context, name string, excludeID uuid.UUID) (*types.Species, error) {
	return r.findFold(dbc, "name", name, excludeID)
}

func (r *speciesRepo) FindByScientificNameFold(dbc dbctx.Context, name string, excludeID uuid.UUID) (*types.Species, error) {
	return r.findFold(dbc, "scientific_name", name, excludeID)
}

func (r *speciesRepo) findFold(dbc dbctx.Context, column, value string, excludeID uuid.UUID) (*types.Species, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	q := dbc.DB(r.db).Where(fmt.Sprintf("LOWER(%s) = LOWER(?)", column), value)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []*types.Species
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *speciesRepo) List(dbc dbctx.Context, f SpeciesFilter) ([]*types.Species, int64, error) {
	q := dbc.DB(r.db).Model(&types.Species{})
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := likePattern(s)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(scientific_name, '')) LIKE ?", like, like)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	var rows []*types.Species
	total, err := paginate(q, f.Page, "name ASC", &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *speciesRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing species id")
	}
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Species{}).Where("id = ?", id).Updates(updates).Error
}

func (r *speciesRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Species{}).Error
}
