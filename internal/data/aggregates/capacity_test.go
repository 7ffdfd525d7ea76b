package aggregates

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/data/repos"
	repotest "github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
)

func TestReconcileBedRepairsDrift(t *testing.T) {
	f := newNurseryFixture(t, repotest.DB(t), 100)
	ctx := context.Background()
	f.create(t, 30)
	f.create(t, 10)

	if err := f.db.Model(&types.Bed{}).Where("id = ?", f.bed.ID).Update("occupied", 7).Error; err != nil {
		t.Fatalf("force drift: %v", err)
	}

	res, err := f.ledger.ReconcileBed(ctx, f.bed.ID)
	if err != nil {
		t.Fatalf("ReconcileBed: %v", err)
	}
	if !res.Drifted() || res.Previous != 7 || res.Occupied != 40 || res.Capacity != 100 {
		t.Fatalf("ReconcileBed result: %+v", res)
	}
	f.assertOccupancyInvariant(t, f.bed.ID, 40)

	again, err := f.ledger.ReconcileBed(ctx, f.bed.ID)
	if err != nil || again.Drifted() {
		t.Fatalf("second reconcile: res=%+v err=%v", again, err)
	}
}

func TestReconcileBedNotFound(t *testing.T) {
	f := newNurseryFixture(t, repotest.DB(t), 10)
	_, err := f.ledger.ReconcileBed(context.Background(), uuid.New())
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	_, err = f.ledger.ReconcileBed(context.Background(), uuid.Nil)
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}

func TestReleaseBelowZeroAbortsWrite(t *testing.T) {
	f := newNurseryFixture(t, repotest.DB(t), 100)
	ctx := context.Background()
	b := f.create(t, 20).Batch
	if _, err := f.lifecycle.MarkReady(ctx, domainagg.MarkReadyInput{BatchID: b.ID}); err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if err := f.db.Model(&types.Bed{}).Where("id = ?", f.bed.ID).Update("occupied", 5).Error; err != nil {
		t.Fatalf("force drift: %v", err)
	}

	_, err := f.lifecycle.DeliverBatch(ctx, domainagg.BatchRefInput{BatchID: b.ID})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("expected invariant_violation, got %v", err)
	}
	if got := repotest.ReloadBatch(t, f.db, b.ID); got.Status != nursery.StatusReady {
		t.Fatalf("status after aborted delivery: %s", got.Status)
	}
	if got := repotest.ReloadBed(t, f.db, f.bed.ID); got.Occupied != 5 {
		t.Fatalf("occupied after aborted delivery: %d", got.Occupied)
	}
}

func TestLedgerLockReportsMissingBed(t *testing.T) {
	f := newNurseryFixture(t, repotest.DB(t), 10)
	ledger := NewCapacityLedger(repos.NewBedRepo(f.db, repotest.Logger(t)), f.batches)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		dbc := repotest.Ctx(tx)
		locked, err := ledger.Lock(dbc, "test", f.bed.ID, uuid.Nil, f.bed.ID)
		if err != nil {
			return err
		}
		if len(locked) != 1 || locked[f.bed.ID] == nil {
			t.Fatalf("locked beds: %v", locked)
		}
		_, err = ledger.Lock(dbc, "test", uuid.New())
		return err
	})
	if !domainagg.IsCode(err, domainagg.CodeReferenceNotFound) {
		t.Fatalf("expected reference_not_found, got %v", err)
	}
}

func TestConcurrentCreatesNeverOvercommit(t *testing.T) {
	f := newNurseryFixture(t, repotest.SQLite(t), 100)
	ctx := context.Background()

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
		other    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lifecycle.CreateBatch(ctx, f.createInput(15))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domainagg.IsCode(err, domainagg.CodeCapacityExceeded):
				rejected++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", errors.Join(other...))
	}
	if ok != 6 || rejected != workers-6 {
		t.Fatalf("outcomes: ok=%d rejected=%d", ok, rejected)
	}
	f.assertOccupancyInvariant(t, f.bed.ID, 90)

	var numbers []string
	if err := f.db.Model(&types.Batch{}).Pluck("batch_number", &numbers).Error; err != nil {
		t.Fatalf("pluck numbers: %v", err)
	}
	seen := map[string]bool{}
	for _, n := range numbers {
		if seen[n] {
			t.Fatalf("duplicate batch number %s", n)
		}
		seen[n] = true
	}
}

func TestConcurrentDeliveriesReleaseOnce(t *testing.T) {
	f := newNurseryFixture(t, repotest.SQLite(t), 100)
	ctx := context.Background()
	b := f.create(t, 40).Batch
	f.create(t, 25)
	if _, err := f.lifecycle.MarkReady(ctx, domainagg.MarkReadyInput{BatchID: b.ID}); err != nil {
		t.Fatalf("MarkReady: %v", err)
	}

	const workers = 5
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lifecycle.DeliverBatch(ctx, domainagg.BatchRefInput{BatchID: b.ID})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	delivered := 0
	for err := range results {
		switch {
		case err == nil:
			delivered++
		case domainagg.IsCode(err, domainagg.CodeConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if delivered != 1 {
		t.Fatalf("deliveries: want=1 got=%d", delivered)
	}
	f.assertOccupancyInvariant(t, f.bed.ID, 25)
}
