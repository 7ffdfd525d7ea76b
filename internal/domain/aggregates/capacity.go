package aggregates

import (
	"context"

	"github.com/google/uuid"
)

var CapacityLedgerContract = Contract{
	Name:             "Nursery.CapacityLedger",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	LockOrder:        []string{"beds"},
	Notes:            "Bed.occupied is a cache of the summed quantity of occupying batches; only the ledger writes it.",
}

// CapacityLedgerAggregate exposes the standalone ledger writes. Per-batch increments and
// decrements happen inside BatchLifecycleAggregate transactions.
type CapacityLedgerAggregate interface {
	Aggregate

	// ReconcileBed recomputes a bed's cached occupancy from the batches placed in it.
	ReconcileBed(ctx context.Context, bedID uuid.UUID) (ReconcileBedResult, error)
}

type ReconcileBedResult struct {
	BedID    uuid.UUID `json:"bedId"`
	Capacity int       `json:"capacity"`
	Previous int       `json:"previous"`
	Occupied int       `json:"occupied"`
}

// Drifted reports whether the cached value disagreed with the derived one.
func (r ReconcileBedResult) Drifted() bool { return r.Previous != r.Occupied }
