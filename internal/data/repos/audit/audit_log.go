package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type AuditLogFilter struct {
	UserID   *uuid.UUID
	BatchID  *uuid.UUID
	Action   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     paging.Params
}

type AuditLogRepo interface {
	Create(dbc dbctx.Context, rows []*types.AuditLog) ([]*types.AuditLog, error)
	List(dbc dbctx.Context, f AuditLogFilter) ([]*types.AuditLog, int64, error)
}

type auditLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return &auditLogRepo{db: db, log: baseLog.With("repo", "AuditLogRepo")}
}

func (r *auditLogRepo) Create(dbc dbctx.Context, rows []*types.AuditLog) ([]*types.AuditLog, error) {
	if len(rows) == 0 {
		return []*types.AuditLog{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *auditLogRepo) List(dbc dbctx.Context, f AuditLogFilter) ([]*types.AuditLog, int64, error) {
	q := dbc.DB(r.db).Model(&types.AuditLog{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.BatchID != nil {
		q = q.Where("batch_id = ?", *f.BatchID)
	}
	if a := strings.ToUpper(strings.TrimSpace(f.Action)); a != "" {
		q = q.Where("action LIKE ?", "%"+a+"%")
	}
	if f.DateFrom != nil {
		q = q.Where("created_at >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		q = q.Where("created_at <= ?", f.DateTo.UTC())
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	p := f.Page.Normalize()
	var rows []*types.AuditLog
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
