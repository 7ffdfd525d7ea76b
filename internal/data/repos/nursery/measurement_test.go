package nursery

import (
	"context"
	"testing"
	"time"

	"github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/domain/user"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
)

func TestMeasurementRepoFirstAndLast(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: db}
	repo := NewMeasurementRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, db, user.RoleFieldOfficer)
	sp := testutil.SeedSpecies(t, ctx, db, "Cedar", 2, 40)
	b := testutil.SeedBatch(t, ctx, db, &types.Batch{SpeciesID: sp.ID, InitialQty: 20, CreatedByID: u.ID})

	if first, last, err := repo.FirstAndLast(dbc, b.ID); err != nil || first != nil || last != nil {
		t.Fatalf("FirstAndLast(empty): first=%v last=%v err=%v", first, last, err)
	}

	base := time.Now().UTC().Add(-48 * time.Hour)
	var rows []*types.Measurement
	for i := 0; i < 3; i++ {
		rows = append(rows, &types.Measurement{
			BatchID:    b.ID,
			UserID:     u.ID,
			Girth:      1 + float64(i)*0.5,
			Height:     10 + float64(i)*5,
			SampleSize: 5,
			CreatedAt:  base.Add(time.Duration(i) * 12 * time.Hour),
		})
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, last, err := repo.FirstAndLast(dbc, b.ID)
	if err != nil {
		t.Fatalf("FirstAndLast: %v", err)
	}
	if first.Height != 10 || last.Height != 20 {
		t.Fatalf("FirstAndLast: first=%v last=%v", first.Height, last.Height)
	}

	latest, err := repo.ListByBatch(dbc, b.ID, 2)
	if err != nil || len(latest) != 2 || latest[0].Height != 20 {
		t.Fatalf("ListByBatch: err=%v len=%d", err, len(latest))
	}

	from := base.Add(6 * time.Hour)
	page, total, err := repo.List(dbc, MeasurementFilter{BatchID: &b.ID, StartDate: &from, Page: paging.Params{Page: 1, Limit: 10}})
	if err != nil || total != 2 || len(page) != 2 {
		t.Fatalf("List(window): total=%d len=%d err=%v", total, len(page), err)
	}
	if page[0].Batch == nil || page[0].Batch.Species == nil {
		t.Fatalf("List: expected batch and species preload")
	}

	if err := repo.UpdateFields(dbc, rows[0].ID, map[string]interface{}{"girth": 9.5}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByID(dbc, rows[0].ID)
	if err != nil || got == nil || got.Girth != 9.5 {
		t.Fatalf("GetByID after update: got=%v err=%v", got, err)
	}
	if n, err := repo.DeleteByBatch(dbc, b.ID); err != nil || n != 3 {
		t.Fatalf("DeleteByBatch: n=%d err=%v", n, err)
	}
}
