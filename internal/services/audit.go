package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/observability"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/ctxutil"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type AuditService interface {
	// Record persists one audit entry for the caller in ctx. Failures are logged and dropped.
	Record(ctx context.Context, action string, batchID *uuid.UUID, oldValues, newValues any)
	List(ctx context.Context, f repos.AuditLogFilter) ([]*types.AuditLog, paging.Meta, error)
}

type auditService struct {
	log     *logger.Logger
	repo    repos.AuditLogRepo
	metrics *observability.Metrics
}

func NewAuditService(log *logger.Logger, repo repos.AuditLogRepo, metrics *observability.Metrics) AuditService {
	return &auditService{
		log:     log.With("service", "AuditService"),
		repo:    repo,
		metrics: metrics,
	}
}

func (s *auditService) Record(ctx context.Context, action string, batchID *uuid.UUID, oldValues, newValues any) {
	if s == nil || s.repo == nil {
		return
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		s.log.Warn("audit entry without caller dropped", "action", action)
		s.metrics.IncAuditDropped()
		return
	}
	row := &types.AuditLog{
		ID:        uuid.New(),
		UserID:    rd.UserID,
		Action:    action,
		BatchID:   batchID,
		OldValues: jsonValue(oldValues),
		NewValues: jsonValue(newValues),
		CreatedAt: time.Now().UTC(),
	}
	// Detached so a cancelled request still leaves its trail.
	dbc := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
	if _, err := s.repo.Create(dbc, []*types.AuditLog{row}); err != nil {
		s.log.Warn("audit log write failed", "action", action, "error", err)
		s.metrics.IncAuditDropped()
	}
}

func (s *auditService) List(ctx context.Context, f repos.AuditLogFilter) ([]*types.AuditLog, paging.Meta, error) {
	rows, total, err := s.repo.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return nil, paging.Meta{}, err
	}
	return rows, paging.NewMeta(f.Page, total), nil
}

func jsonValue(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
