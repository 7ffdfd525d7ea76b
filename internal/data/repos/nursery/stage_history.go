package nursery

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

// StageHistoryRepo is append-only: rows are never updated, and only removed together
// with their batch.
type StageHistoryRepo interface {
	// Append assigns the next per-batch sequence and inserts the row. Callers hold the
	// batch row lock so sequences cannot collide.
	Append(dbc dbctx.Context, row *types.StageHistory) (*types.StageHistory, error)
	// ListByBatch returns the batch's history newest first.
	ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.StageHistory, error)
	CountByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error)
	DeleteByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error)
}

type stageHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageHistoryRepo(db *gorm.DB, baseLog *logger.Logger) StageHistoryRepo {
	return &stageHistoryRepo{db: db, log: baseLog.With("repo", "StageHistoryRepo")}
}

func (r *stageHistoryRepo) Append(dbc dbctx.Context, row *types.StageHistory) (*types.StageHistory, error) {
	if row == nil || row.BatchID == uuid.Nil {
		return nil, fmt.Errorf("stage history requires batch id")
	}
	db := dbc.DB(r.db)
	var last int64
	if err := db.Model(&types.StageHistory{}).
		Where("batch_id = ?", row.BatchID).
		Select("COALESCE(MAX(sequence), -1)").
		Scan(&last).Error; err != nil {
		return nil, err
	}
	row.Sequence = int(last) + 1
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := db.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *stageHistoryRepo) ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.StageHistory, error) {
	var rows []*types.StageHistory
	if err := dbc.DB(r.db).
		Where("batch_id = ?", batchID).
		Order("sequence DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stageHistoryRepo) CountByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.StageHistory{}).Where("batch_id = ?", batchID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *stageHistoryRepo) DeleteByBatch(dbc dbctx.Context, batchID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("batch_id = ?", batchID).Delete(&types.StageHistory{})
	return res.RowsAffected, res.Error
}
