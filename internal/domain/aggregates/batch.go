package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
)

var BatchLifecycleContract = Contract{
	Name:             "Nursery.BatchLifecycle",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	LockOrder:        []string{"batches", "beds"},
	Notes:            "Owns batch status/stage transitions, stage history appends and bed occupancy changes in one transaction.",
}

// BatchLifecycleAggregate owns the batch state machine.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeInvalidEnum, CodeNotFound, CodeReferenceNotFound, CodeDuplicateBatchNumber,
// CodeCapacityExceeded, CodeNotReady, CodeConflict, CodeRetryable, CodeInternal.
type BatchLifecycleAggregate interface {
	Aggregate

	// CreateBatch inserts the batch, its INITIAL history row and the bed occupancy increment.
	CreateBatch(ctx context.Context, in CreateBatchInput) (BatchWriteResult, error)

	// UpdateStage moves the batch to a new stage, re-syncs occupancy for the new quantity and
	// appends a history row.
	UpdateStage(ctx context.Context, in UpdateStageInput) (BatchWriteResult, error)

	MarkReady(ctx context.Context, in MarkReadyInput) (BatchWriteResult, error)

	// DeliverBatch requires the ready flag and releases the batch's bed occupancy.
	DeliverBatch(ctx context.Context, in BatchRefInput) (BatchWriteResult, error)

	// CancelBatch moves a CREATED or IN_PROGRESS batch to CANCELLED and releases its bed.
	CancelBatch(ctx context.Context, in CancelBatchInput) (BatchWriteResult, error)

	RecordLoss(ctx context.Context, in RecordLossInput) (BatchWriteResult, error)

	MoveBatch(ctx context.Context, in MoveBatchInput) (BatchWriteResult, error)

	// UpdateBatchFields applies a partial update; quantity and status changes flow through
	// the capacity ledger.
	UpdateBatchFields(ctx context.Context, in UpdateBatchFieldsInput) (BatchWriteResult, error)

	// DeleteBatch removes a non-delivered batch with its measurements and history.
	DeleteBatch(ctx context.Context, in BatchRefInput) (DeleteBatchResult, error)

	// NextBatchNumber previews the number CreateBatch would generate for pathway at the given time.
	NextBatchNumber(ctx context.Context, pathway nursery.Pathway, at time.Time) (string, error)
}

type CreateBatchInput struct {
	// BatchNumber is generated from Pathway and CreatedAt when empty.
	BatchNumber string
	CustomName  *string
	Pathway     nursery.Pathway
	SpeciesID   uuid.UUID
	InitialQty  int
	ZoneID      *uuid.UUID
	BedID       *uuid.UUID
	CreatedByID uuid.UUID
	CreatedAt   time.Time
}

type UpdateStageInput struct {
	BatchID  uuid.UUID
	ToStage  nursery.Stage
	Quantity int
	Notes    *string
}

type MarkReadyInput struct {
	BatchID uuid.UUID
	At      time.Time
}

type BatchRefInput struct {
	BatchID uuid.UUID
}

type CancelBatchInput struct {
	BatchID uuid.UUID
	// Reason is stored on the batch when non-blank.
	Reason string
}

type RecordLossInput struct {
	BatchID  uuid.UUID
	Quantity int
	Reason   string
}

// MoveBatchInput places the batch. A nil BedID unplaces it from any bed; ZoneID is derived
// from the bed when omitted.
type MoveBatchInput struct {
	BatchID uuid.UUID
	ZoneID  *uuid.UUID
	BedID   *uuid.UUID
}

type UpdateBatchFieldsInput struct {
	BatchID    uuid.UUID
	CustomName *string
	CurrentQty *int
	Status     *nursery.BatchStatus
	IsReady    *bool
	ReadyDate  *time.Time
	LossReason *string
	LossQty    *int
}

// Empty reports whether the input carries no field changes.
func (in UpdateBatchFieldsInput) Empty() bool {
	return in.CustomName == nil && in.CurrentQty == nil && in.Status == nil && in.IsReady == nil &&
		in.ReadyDate == nil && in.LossReason == nil && in.LossQty == nil
}

// BatchWriteResult carries the batch before and after the write. Before is zero on create.
type BatchWriteResult struct {
	Batch   nursery.Batch
	Before  nursery.Batch
	History *nursery.StageHistory
}

type DeleteBatchResult struct {
	Batch               nursery.Batch
	MeasurementsDeleted int64
	HistoryDeleted      int64
}
