package audit

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainaudit "github.com/luminex/nursery-backend/internal/domain/audit"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
)

func TestAuditLogRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: db}
	repo := NewAuditLogRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, db, types.RoleManager)
	sp := testutil.SeedSpecies(t, ctx, db, "Acacia", 1, 10)
	b := testutil.SeedBatch(t, ctx, db, &types.Batch{SpeciesID: sp.ID, InitialQty: 5, CreatedByID: u.ID})

	old := time.Now().UTC().Add(-72 * time.Hour)
	if _, err := repo.Create(dbc, []*types.AuditLog{
		{UserID: u.ID, Action: domainaudit.ActionBatchCreated, BatchID: &b.ID, NewValues: datatypes.JSON(`{"qty":5}`), CreatedAt: old},
		{UserID: u.ID, Action: domainaudit.ActionBatchStageUpdated, BatchID: &b.ID},
		{UserID: u.ID, Action: domainaudit.ActionUserCreated},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, total, err := repo.List(dbc, AuditLogFilter{BatchID: &b.ID})
	if err != nil || total != 2 || len(rows) != 2 {
		t.Fatalf("List(batch): total=%d len=%d err=%v", total, len(rows), err)
	}
	if rows[0].Action != domainaudit.ActionBatchStageUpdated {
		t.Fatalf("List order: newest first, got=%s", rows[0].Action)
	}

	rows, total, err = repo.List(dbc, AuditLogFilter{Action: "batch"})
	if err != nil || total != 2 {
		t.Fatalf("List(action): total=%d err=%v", total, err)
	}

	since := time.Now().UTC().Add(-time.Hour)
	rows, total, err = repo.List(dbc, AuditLogFilter{UserID: &u.ID, DateFrom: &since})
	if err != nil || total != 2 || len(rows) != 2 {
		t.Fatalf("List(since): total=%d err=%v", total, err)
	}
}
