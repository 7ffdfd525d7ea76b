package aggregates

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
)

// CapacityLedger keeps beds.occupied equal to the summed currentQty of the occupying
// batches placed in each bed. Every method must run inside the caller's transaction;
// callers lock beds with Lock before checking or moving quantity.
type CapacityLedger struct {
	Beds    repos.BedRepo
	Batches repos.BatchRepo
}

func NewCapacityLedger(beds repos.BedRepo, batches repos.BatchRepo) *CapacityLedger {
	return &CapacityLedger{Beds: beds, Batches: batches}
}

// Lock takes row locks on the given beds in id order and returns them keyed by id.
// A missing bed is reported as reference_not_found.
func (l *CapacityLedger) Lock(dbc dbctx.Context, op string, bedIDs ...uuid.UUID) (map[uuid.UUID]*types.Bed, error) {
	ids := make([]uuid.UUID, 0, len(bedIDs))
	seen := map[uuid.UUID]bool{}
	for _, id := range bedIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	out := make(map[uuid.UUID]*types.Bed, len(ids))
	for _, id := range ids {
		bed, err := l.Beds.LockByID(dbc, id)
		if err != nil {
			return nil, err
		}
		if bed == nil {
			return nil, codedError(domainagg.CodeReferenceNotFound, op, "bed not found")
		}
		out[id] = bed
	}
	return out, nil
}

// Check fails with capacity_exceeded when adding qty to the bed's derived occupancy would
// exceed its capacity. Non-positive qty always passes.
func (l *CapacityLedger) Check(dbc dbctx.Context, op string, bed *types.Bed, qty int) error {
	if bed == nil || qty <= 0 {
		return nil
	}
	current, err := l.Batches.SumOccupancy(dbc, bed.ID)
	if err != nil {
		return err
	}
	if current+qty > bed.Capacity {
		return codedError(domainagg.CodeCapacityExceeded, op,
			fmt.Sprintf("bed capacity exceeded: %d of %d occupied, %d requested", current, bed.Capacity, qty))
	}
	return nil
}

// Increment adds qty to the cached occupancy with a conditional update that never passes
// capacity.
func (l *CapacityLedger) Increment(dbc dbctx.Context, op string, bedID uuid.UUID, qty int) error {
	if bedID == uuid.Nil || qty <= 0 {
		return nil
	}
	ok, err := l.Beds.AddOccupied(dbc, bedID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return codedError(domainagg.CodeCapacityExceeded, op, "bed capacity exceeded")
	}
	return nil
}

// Decrement releases qty from the cached occupancy. A decrement below zero means the cache
// has drifted from the batches and aborts the write.
func (l *CapacityLedger) Decrement(dbc dbctx.Context, op string, bedID uuid.UUID, qty int) error {
	if bedID == uuid.Nil || qty <= 0 {
		return nil
	}
	ok, err := l.Beds.SubOccupied(dbc, bedID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return InvariantError("bed occupancy would go negative; reconcile the bed")
	}
	return nil
}

// Reserve is Check followed by Increment.
func (l *CapacityLedger) Reserve(dbc dbctx.Context, op string, bed *types.Bed, qty int) error {
	if bed == nil {
		return nil
	}
	if err := l.Check(dbc, op, bed, qty); err != nil {
		return err
	}
	return l.Increment(dbc, op, bed.ID, qty)
}

// Adjust moves the bed's occupancy by delta, capacity-checking increases.
func (l *CapacityLedger) Adjust(dbc dbctx.Context, op string, bed *types.Bed, delta int) error {
	switch {
	case bed == nil || delta == 0:
		return nil
	case delta > 0:
		return l.Reserve(dbc, op, bed, delta)
	default:
		return l.Decrement(dbc, op, bed.ID, -delta)
	}
}

// Transition applies the occupancy change between two snapshots of the same batch. Both
// beds must already be locked.
func (l *CapacityLedger) Transition(dbc dbctx.Context, op string, locked map[uuid.UUID]*types.Bed, before, after types.Batch) error {
	fromBed, toBed := bedOf(before), bedOf(after)
	fromQty, toQty := before.Occupancy(), after.Occupancy()
	if fromBed == toBed {
		return l.Adjust(dbc, op, locked[toBed], toQty-fromQty)
	}
	if err := l.Decrement(dbc, op, fromBed, fromQty); err != nil {
		return err
	}
	return l.Reserve(dbc, op, locked[toBed], toQty)
}

// Reconcile rewrites the cached occupancy of a locked bed from its batches.
func (l *CapacityLedger) Reconcile(dbc dbctx.Context, bed *types.Bed) (domainagg.ReconcileBedResult, error) {
	sum, err := l.Batches.SumOccupancy(dbc, bed.ID)
	if err != nil {
		return domainagg.ReconcileBedResult{}, err
	}
	out := domainagg.ReconcileBedResult{
		BedID:    bed.ID,
		Capacity: bed.Capacity,
		Previous: bed.Occupied,
		Occupied: sum,
	}
	if out.Drifted() {
		if err := l.Beds.SetOccupied(dbc, bed.ID, sum); err != nil {
			return domainagg.ReconcileBedResult{}, err
		}
	}
	return out, nil
}

func bedOf(b types.Batch) uuid.UUID {
	if b.BedID == nil {
		return uuid.Nil
	}
	return *b.BedID
}

type CapacityLedgerAggregateDeps struct {
	Base BaseDeps

	Beds    repos.BedRepo
	Batches repos.BatchRepo
}

type capacityLedgerAggregate struct {
	deps   CapacityLedgerAggregateDeps
	ledger *CapacityLedger
}

func NewCapacityLedgerAggregate(deps CapacityLedgerAggregateDeps) domainagg.CapacityLedgerAggregate {
	deps.Base = deps.Base.withDefaults()
	return &capacityLedgerAggregate{deps: deps, ledger: NewCapacityLedger(deps.Beds, deps.Batches)}
}

func (a *capacityLedgerAggregate) Contract() domainagg.Contract {
	return domainagg.CapacityLedgerContract
}

func (a *capacityLedgerAggregate) ReconcileBed(ctx context.Context, bedID uuid.UUID) (domainagg.ReconcileBedResult, error) {
	const op = "Nursery.CapacityLedger.ReconcileBed"
	var out domainagg.ReconcileBedResult
	if bedID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing bed_id", nil)
	}
	if a.deps.Beds == nil || a.deps.Batches == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "capacity ledger repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		bed, err := a.deps.Beds.LockByID(dbc, bedID)
		if err != nil {
			return err
		}
		if bed == nil {
			return codedError(domainagg.CodeNotFound, op, "bed not found")
		}
		res, err := a.ledger.Reconcile(dbc, bed)
		if err != nil {
			return err
		}
		if res.Drifted() {
			a.deps.Base.Log.Warn("bed occupancy drift repaired",
				"bed_id", bedID, "previous", res.Previous, "occupied", res.Occupied)
		}
		out = res
		return nil
	})
	return out, err
}
