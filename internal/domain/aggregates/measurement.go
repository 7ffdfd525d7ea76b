package aggregates

import (
	"context"

	"github.com/google/uuid"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/domain/user"
)

var MeasurementContract = Contract{
	Name:             "Nursery.MeasurementRecorder",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	LockOrder:        []string{"batches", "measurements"},
	Notes:            "Validates samples against the batch's current quantity; never mutates the batch.",
}

// MeasurementAggregate records growth samples.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeReferenceNotFound, CodeSampleSizeExceedsQuantity,
// CodeForbidden, CodeRetryable, CodeInternal.
type MeasurementAggregate interface {
	Aggregate

	RecordMeasurement(ctx context.Context, in RecordMeasurementInput) (MeasurementWriteResult, error)

	// RecordRangeMeasurement stores the midpoint of each range and appends the ranges to notes.
	RecordRangeMeasurement(ctx context.Context, in RecordRangeMeasurementInput) (MeasurementWriteResult, error)

	// UpdateMeasurement and DeleteMeasurement are limited to the recorder or a super admin.
	UpdateMeasurement(ctx context.Context, in UpdateMeasurementInput) (MeasurementWriteResult, error)
	DeleteMeasurement(ctx context.Context, in DeleteMeasurementInput) (MeasurementWriteResult, error)
}

type RecordMeasurementInput struct {
	BatchID    uuid.UUID
	UserID     uuid.UUID
	Girth      float64
	Height     float64
	SampleSize int
	Notes      *string
}

type MeasurementRange struct {
	Min float64
	Max float64
}

type RecordRangeMeasurementInput struct {
	BatchID     uuid.UUID
	UserID      uuid.UUID
	GirthRange  MeasurementRange
	HeightRange MeasurementRange
	SampleSize  int
	Notes       *string
}

type Caller struct {
	UserID uuid.UUID
	Role   user.Role
}

// CanModify reports whether the caller may change a row recorded by ownerID.
func (c Caller) CanModify(ownerID uuid.UUID) bool {
	return c.Role == user.RoleSuperAdmin || (c.UserID != uuid.Nil && c.UserID == ownerID)
}

type UpdateMeasurementInput struct {
	MeasurementID uuid.UUID
	Caller        Caller
	Girth         *float64
	Height        *float64
	SampleSize    *int
	Notes         *string
}

type DeleteMeasurementInput struct {
	MeasurementID uuid.UUID
	Caller        Caller
}

// MeasurementWriteResult carries the row before and after the write. Before is zero on create.
type MeasurementWriteResult struct {
	Measurement nursery.Measurement
	Before      nursery.Measurement
}
