package nursery

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/domain/user"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/pkg/pointers"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
)

func TestBatchRepoListAndOccupancy(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: db}
	repo := NewBatchRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, db, user.RoleFieldOfficer)
	sp := testutil.SeedSpecies(t, ctx, db, "Teak", 2, 30)
	z := testutil.SeedZone(t, ctx, db, 500)
	bed := testutil.SeedBed(t, ctx, db, z.ID, "B1", 500)

	mk := func(number string, qty int, status nursery.BatchStatus) *types.Batch {
		return testutil.SeedBatch(t, ctx, db, &types.Batch{
			BatchNumber: number,
			CustomName:  pointers.String("teak " + number),
			SpeciesID:   sp.ID,
			InitialQty:  qty,
			Status:      status,
			CreatedByID: u.ID,
			ZoneID:      &z.ID,
			BedID:       &bed.ID,
		})
	}
	mk("PU250101001", 40, nursery.StatusCreated)
	mk("PU250101002", 30, nursery.StatusReady)
	mk("PU250101003", 20, nursery.StatusDelivered)
	mk("PU250101004", 10, nursery.StatusCancelled)

	sum, err := repo.SumOccupancy(dbc, bed.ID)
	if err != nil {
		t.Fatalf("SumOccupancy: %v", err)
	}
	if sum != 70 {
		t.Fatalf("SumOccupancy: want=70 got=%d", sum)
	}
	occ, err := repo.ListOccupyingByBed(dbc, bed.ID)
	if err != nil || len(occ) != 2 {
		t.Fatalf("ListOccupyingByBed: err=%v len=%d", err, len(occ))
	}

	last, err := repo.LastNumberWithPrefix(dbc, "PU250101")
	if err != nil || last != "PU250101004" {
		t.Fatalf("LastNumberWithPrefix: got=%q err=%v", last, err)
	}
	if last, _ := repo.LastNumberWithPrefix(dbc, "SG250101"); last != "" {
		t.Fatalf("LastNumberWithPrefix(empty): got=%q", last)
	}

	found, err := repo.FindByNumberFold(dbc, "pu250101002")
	if err != nil || found == nil || found.Status != nursery.StatusReady {
		t.Fatalf("FindByNumberFold: got=%v err=%v", found, err)
	}

	status := nursery.StatusCreated
	rows, total, err := repo.List(dbc, BatchFilter{Status: &status, Page: paging.Params{Page: 1, Limit: 10}})
	if err != nil || total != 1 || len(rows) != 1 {
		t.Fatalf("List(status): total=%d len=%d err=%v", total, len(rows), err)
	}
	if rows[0].Species == nil || rows[0].Species.Name != "Teak" {
		t.Fatalf("List: expected species preload")
	}

	rows, total, err = repo.List(dbc, BatchFilter{Search: "TEAK", Page: paging.Params{Page: 2, Limit: 3}})
	if err != nil || total != 4 || len(rows) != 1 {
		t.Fatalf("List(search page 2): total=%d len=%d err=%v", total, len(rows), err)
	}

	if n, err := repo.CountBySpecies(dbc, sp.ID); err != nil || n != 4 {
		t.Fatalf("CountBySpecies: n=%d err=%v", n, err)
	}
	if n, err := repo.CountByBed(dbc, uuid.New()); err != nil || n != 0 {
		t.Fatalf("CountByBed(unknown): n=%d err=%v", n, err)
	}
}

func TestBatchRepoDetailAndUpdate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: db}
	repo := NewBatchRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, db, user.RoleManager)
	sp := testutil.SeedSpecies(t, ctx, db, "Mahogany", 3, 50)
	b := testutil.SeedBatch(t, ctx, db, &types.Batch{SpeciesID: sp.ID, InitialQty: 10, CreatedByID: u.ID})

	if err := repo.UpdateFields(dbc, b.ID, map[string]interface{}{"stage": nursery.StageGrowing}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetDetail(dbc, b.ID)
	if err != nil || got == nil {
		t.Fatalf("GetDetail: got=%v err=%v", got, err)
	}
	if got.Stage != nursery.StageGrowing {
		t.Fatalf("stage: want=%s got=%s", nursery.StageGrowing, got.Stage)
	}
	if got.CreatedBy == nil || got.CreatedBy.ID != u.ID {
		t.Fatalf("GetDetail: expected creator preload")
	}
	if got.Bed != nil {
		t.Fatalf("GetDetail: unplaced batch has bed %v", got.Bed)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID(unknown): got=%v err=%v", missing, err)
	}
	if err := repo.Delete(dbc, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gone, _ := repo.GetByID(dbc, b.ID); gone != nil {
		t.Fatalf("expected batch deleted")
	}
}
