package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/data/repos"
	repotest "github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
)

type nurseryFixture struct {
	db    *gorm.DB
	hooks *spyHooks

	batches repos.BatchRepo
	history repos.StageHistoryRepo

	lifecycle    domainagg.BatchLifecycleAggregate
	ledger       domainagg.CapacityLedgerAggregate
	measurements domainagg.MeasurementAggregate

	user    *types.User
	species *types.Species
	zone    *types.Zone
	bed     *types.Bed
}

func newNurseryFixture(t *testing.T, db *gorm.DB, bedCapacity int) *nurseryFixture {
	t.Helper()
	ctx := context.Background()
	log := repotest.Logger(t)
	f := &nurseryFixture{db: db, hooks: &spyHooks{}}
	base := BaseDeps{DB: db, Log: log, Runner: NewGormTxRunner(db), Hooks: f.hooks, CASGuard: NewCASGuard(db)}

	f.batches = repos.NewBatchRepo(db, log)
	f.history = repos.NewStageHistoryRepo(db, log)
	beds := repos.NewBedRepo(db, log)
	meas := repos.NewMeasurementRepo(db, log)

	f.lifecycle = NewBatchLifecycleAggregate(BatchLifecycleAggregateDeps{
		Base:         base,
		Batches:      f.batches,
		History:      f.history,
		Measurements: meas,
		Species:      repos.NewSpeciesRepo(db, log),
		Zones:        repos.NewZoneRepo(db, log),
		Beds:         beds,
	})
	f.ledger = NewCapacityLedgerAggregate(CapacityLedgerAggregateDeps{Base: base, Beds: beds, Batches: f.batches})
	f.measurements = NewMeasurementAggregate(MeasurementAggregateDeps{Base: base, Batches: f.batches, Measurements: meas})

	f.user = repotest.SeedUser(t, ctx, db, types.RoleFieldOfficer)
	f.species = repotest.SeedSpecies(t, ctx, db, "Teak", 2.5, 30)
	f.zone = repotest.SeedZone(t, ctx, db, bedCapacity*2)
	f.bed = repotest.SeedBed(t, ctx, db, f.zone.ID, "A1", bedCapacity)
	return f
}

func (f *nurseryFixture) create(t *testing.T, qty int) domainagg.BatchWriteResult {
	t.Helper()
	res, err := f.lifecycle.CreateBatch(context.Background(), f.createInput(qty))
	if err != nil {
		t.Fatalf("CreateBatch(%d): %v", qty, err)
	}
	return res
}

func (f *nurseryFixture) createInput(qty int) domainagg.CreateBatchInput {
	return domainagg.CreateBatchInput{
		Pathway:     nursery.PathwaySeedGermination,
		SpeciesID:   f.species.ID,
		InitialQty:  qty,
		BedID:       &f.bed.ID,
		CreatedByID: f.user.ID,
	}
}

func (f *nurseryFixture) readHistory(t *testing.T, batchID uuid.UUID) []*types.StageHistory {
	t.Helper()
	rows, err := f.history.ListByBatch(dbctx.Context{Ctx: context.Background()}, batchID)
	if err != nil {
		t.Fatalf("ListByBatch: %v", err)
	}
	return rows
}

// assertOccupancyInvariant checks the cached occupancy against the derived one.
func (f *nurseryFixture) assertOccupancyInvariant(t *testing.T, bedID uuid.UUID, want int) {
	t.Helper()
	cached := repotest.ReloadBed(t, f.db, bedID).Occupied
	derived := repotest.DerivedOccupancy(t, f.db, bedID)
	if cached != derived {
		t.Fatalf("occupancy drift: cached=%d derived=%d", cached, derived)
	}
	if cached != want {
		t.Fatalf("occupancy: want=%d got=%d", want, cached)
	}
}
