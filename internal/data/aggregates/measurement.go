package aggregates

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
)

type MeasurementAggregateDeps struct {
	Base BaseDeps

	Batches      repos.BatchRepo
	Measurements repos.MeasurementRepo
}

type measurementAggregate struct {
	deps MeasurementAggregateDeps
}

func NewMeasurementAggregate(deps MeasurementAggregateDeps) domainagg.MeasurementAggregate {
	deps.Base = deps.Base.withDefaults()
	return &measurementAggregate{deps: deps}
}

func (a *measurementAggregate) Contract() domainagg.Contract {
	return domainagg.MeasurementContract
}

func (a *measurementAggregate) RecordMeasurement(ctx context.Context, in domainagg.RecordMeasurementInput) (domainagg.MeasurementWriteResult, error) {
	const op = "Nursery.Measurement.RecordMeasurement"
	if err := validateSample(op, in.BatchID, in.UserID, in.Girth, in.Height, in.SampleSize); err != nil {
		return domainagg.MeasurementWriteResult{}, err
	}
	return a.record(ctx, op, in.BatchID, &types.Measurement{
		BatchID:    in.BatchID,
		UserID:     in.UserID,
		Girth:      in.Girth,
		Height:     in.Height,
		SampleSize: in.SampleSize,
		Notes:      trimmedOrNil(in.Notes),
	})
}

func (a *measurementAggregate) RecordRangeMeasurement(ctx context.Context, in domainagg.RecordRangeMeasurementInput) (domainagg.MeasurementWriteResult, error) {
	const op = "Nursery.Measurement.RecordRangeMeasurement"
	var out domainagg.MeasurementWriteResult
	ranges := []struct {
		name string
		r    domainagg.MeasurementRange
	}{{"girth", in.GirthRange}, {"height", in.HeightRange}}
	for _, rr := range ranges {
		if rr.r.Min <= 0 || rr.r.Max <= 0 {
			return out, domainagg.NewError(domainagg.CodeValidation, op, rr.name+" range bounds must be positive", nil)
		}
		if rr.r.Min > rr.r.Max {
			return out, domainagg.NewError(domainagg.CodeValidation, op, rr.name+" range min must not exceed max", nil)
		}
	}
	girth := (in.GirthRange.Min + in.GirthRange.Max) / 2
	height := (in.HeightRange.Min + in.HeightRange.Max) / 2
	if err := validateSample(op, in.BatchID, in.UserID, girth, height, in.SampleSize); err != nil {
		return out, err
	}
	notes := RangeNotes(in.GirthRange, in.HeightRange, in.Notes)
	return a.record(ctx, op, in.BatchID, &types.Measurement{
		BatchID:    in.BatchID,
		UserID:     in.UserID,
		Girth:      girth,
		Height:     height,
		SampleSize: in.SampleSize,
		Notes:      &notes,
	})
}

// RangeNotes renders the ranges a measurement was averaged from, followed by any caller notes.
func RangeNotes(girth, height domainagg.MeasurementRange, notes *string) string {
	s := fmt.Sprintf("Range measurement - Girth: %s-%scm, Height: %s-%scm",
		formatFloat(girth.Min), formatFloat(girth.Max), formatFloat(height.Min), formatFloat(height.Max))
	if extra := trimmedOrNil(notes); extra != nil {
		s += ". " + *extra
	}
	return s
}

func (a *measurementAggregate) record(ctx context.Context, op string, batchID uuid.UUID, row *types.Measurement) (domainagg.MeasurementWriteResult, error) {
	var out domainagg.MeasurementWriteResult
	if a.deps.Batches == nil || a.deps.Measurements == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "measurement repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		batch, err := a.deps.Batches.LockByID(dbc, batchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return codedError(domainagg.CodeReferenceNotFound, op, "batch not found")
		}
		if row.SampleSize > batch.CurrentQty {
			return sampleTooLarge(op, row.SampleSize, batch.CurrentQty)
		}
		now := time.Now().UTC()
		row.ID = uuid.New()
		row.CreatedAt = now
		row.UpdatedAt = now
		if _, err := a.deps.Measurements.Create(dbc, []*types.Measurement{row}); err != nil {
			return err
		}
		out.Measurement = *row
		return nil
	})
	return out, err
}

func (a *measurementAggregate) UpdateMeasurement(ctx context.Context, in domainagg.UpdateMeasurementInput) (domainagg.MeasurementWriteResult, error) {
	const op = "Nursery.Measurement.UpdateMeasurement"
	var out domainagg.MeasurementWriteResult
	if in.MeasurementID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing measurement_id", nil)
	}
	if in.Girth != nil && *in.Girth <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "girth must be positive", nil)
	}
	if in.Height != nil && *in.Height <= 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "height must be positive", nil)
	}
	if in.SampleSize != nil && *in.SampleSize < 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "sample size must be at least 1", nil)
	}
	if a.deps.Batches == nil || a.deps.Measurements == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "measurement repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockOwned(dbc, op, in.MeasurementID, in.Caller)
		if err != nil {
			return err
		}
		after := *before
		updates := map[string]interface{}{}
		if in.Girth != nil {
			after.Girth = *in.Girth
			updates["girth"] = after.Girth
		}
		if in.Height != nil {
			after.Height = *in.Height
			updates["height"] = after.Height
		}
		if in.SampleSize != nil {
			batch, err := a.deps.Batches.GetByID(dbc, before.BatchID)
			if err != nil {
				return err
			}
			if batch == nil {
				return codedError(domainagg.CodeReferenceNotFound, op, "batch not found")
			}
			if *in.SampleSize > batch.CurrentQty {
				return sampleTooLarge(op, *in.SampleSize, batch.CurrentQty)
			}
			after.SampleSize = *in.SampleSize
			updates["sample_size"] = after.SampleSize
		}
		if in.Notes != nil {
			after.Notes = trimmedOrNil(in.Notes)
			updates["notes"] = nullableString(after.Notes)
		}
		if len(updates) > 0 {
			after.UpdatedAt = time.Now().UTC()
			updates["updated_at"] = after.UpdatedAt
			if err := a.deps.Measurements.UpdateFields(dbc, before.ID, updates); err != nil {
				return err
			}
		}
		out = domainagg.MeasurementWriteResult{Measurement: after, Before: *before}
		return nil
	})
	return out, err
}

func (a *measurementAggregate) DeleteMeasurement(ctx context.Context, in domainagg.DeleteMeasurementInput) (domainagg.MeasurementWriteResult, error) {
	const op = "Nursery.Measurement.DeleteMeasurement"
	var out domainagg.MeasurementWriteResult
	if in.MeasurementID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing measurement_id", nil)
	}
	if a.deps.Measurements == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "measurement repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockOwned(dbc, op, in.MeasurementID, in.Caller)
		if err != nil {
			return err
		}
		if err := a.deps.Measurements.Delete(dbc, before.ID); err != nil {
			return err
		}
		out = domainagg.MeasurementWriteResult{Measurement: *before, Before: *before}
		return nil
	})
	return out, err
}

func (a *measurementAggregate) lockOwned(dbc dbctx.Context, op string, id uuid.UUID, caller domainagg.Caller) (*types.Measurement, error) {
	m, err := a.deps.Measurements.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, codedError(domainagg.CodeNotFound, op, "measurement not found")
	}
	if !caller.CanModify(m.UserID) {
		return nil, codedError(domainagg.CodeForbidden, op, "only the recorder or a super admin may change this measurement")
	}
	return m, nil
}

func validateSample(op string, batchID, userID uuid.UUID, girth, height float64, sampleSize int) error {
	switch {
	case batchID == uuid.Nil:
		return domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	case userID == uuid.Nil:
		return domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	case girth <= 0:
		return domainagg.NewError(domainagg.CodeValidation, op, "girth must be positive", nil)
	case height <= 0:
		return domainagg.NewError(domainagg.CodeValidation, op, "height must be positive", nil)
	case sampleSize < 1:
		return domainagg.NewError(domainagg.CodeValidation, op, "sample size must be at least 1", nil)
	}
	return nil
}

func sampleTooLarge(op string, sampleSize, currentQty int) error {
	return codedError(domainagg.CodeSampleSizeExceedsQuantity, op,
		fmt.Sprintf("sample size %d exceeds batch quantity %d", sampleSize, currentQty))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
