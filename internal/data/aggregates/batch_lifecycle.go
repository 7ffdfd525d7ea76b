package aggregates

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
)

var batchNumberPattern = regexp.MustCompile(`^(PU|SG|CG|OS)\d{6}\d{3}$`)

const (
	batchSequenceDigits = 3
	maxBatchSequence    = 999
	createdHistoryNote  = "Batch created"
)

type BatchLifecycleAggregateDeps struct {
	Base BaseDeps

	Batches      repos.BatchRepo
	History      repos.StageHistoryRepo
	Measurements repos.MeasurementRepo
	Species      repos.SpeciesRepo
	Zones        repos.ZoneRepo
	Beds         repos.BedRepo
}

type batchLifecycleAggregate struct {
	deps   BatchLifecycleAggregateDeps
	ledger *CapacityLedger
}

func NewBatchLifecycleAggregate(deps BatchLifecycleAggregateDeps) domainagg.BatchLifecycleAggregate {
	deps.Base = deps.Base.withDefaults()
	return &batchLifecycleAggregate{deps: deps, ledger: NewCapacityLedger(deps.Beds, deps.Batches)}
}

func (a *batchLifecycleAggregate) Contract() domainagg.Contract {
	return domainagg.BatchLifecycleContract
}

func (a *batchLifecycleAggregate) configured() bool {
	d := a.deps
	return d.Batches != nil && d.History != nil && d.Measurements != nil &&
		d.Species != nil && d.Zones != nil && d.Beds != nil
}

func (a *batchLifecycleAggregate) CreateBatch(ctx context.Context, in domainagg.CreateBatchInput) (domainagg.BatchWriteResult, error) {
	const op = "Nursery.BatchLifecycle.CreateBatch"
	var out domainagg.BatchWriteResult
	if !in.Pathway.Valid() {
		return out, domainagg.NewError(domainagg.CodeInvalidEnum, op, fmt.Sprintf("invalid pathway %q", in.Pathway), nil)
	}
	if in.SpeciesID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing species_id", nil)
	}
	if in.CreatedByID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing created_by_id", nil)
	}
	if in.InitialQty < 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "initial quantity must be at least 1", nil)
	}
	number := strings.ToUpper(strings.TrimSpace(in.BatchNumber))
	if number != "" && !batchNumberPattern.MatchString(number) {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "batch number must match <PU|SG|CG|OS><YYMMDD><seq3>", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}

	createdAt := in.CreatedAt.UTC()
	if in.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		species, err := a.deps.Species.GetByID(dbc, in.SpeciesID)
		if err != nil {
			return err
		}
		if species == nil {
			return codedError(domainagg.CodeReferenceNotFound, op, "species not found")
		}

		var bed *types.Bed
		if id := derefID(in.BedID); id != uuid.Nil {
			locked, err := a.ledger.Lock(dbc, op, id)
			if err != nil {
				return err
			}
			bed = locked[id]
		}
		zoneID, err := a.resolveZone(dbc, op, in.ZoneID, bed)
		if err != nil {
			return err
		}

		if number == "" {
			if number, err = a.nextBatchNumber(dbc, op, in.Pathway, createdAt); err != nil {
				return err
			}
		} else {
			existing, err := a.deps.Batches.FindByNumberFold(dbc, number)
			if err != nil {
				return err
			}
			if existing != nil {
				return codedError(domainagg.CodeDuplicateBatchNumber, op, "batch number already exists")
			}
		}

		if bed != nil {
			if err := a.ledger.Reserve(dbc, op, bed, in.InitialQty); err != nil {
				return err
			}
		}

		row := &types.Batch{
			ID:          uuid.New(),
			BatchNumber: number,
			CustomName:  trimmedOrNil(in.CustomName),
			Pathway:     in.Pathway,
			SpeciesID:   species.ID,
			InitialQty:  in.InitialQty,
			CurrentQty:  in.InitialQty,
			Status:      nursery.StatusCreated,
			Stage:       nursery.StageInitial,
			CreatedByID: in.CreatedByID,
			ZoneID:      zoneID,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		if bed != nil {
			row.BedID = &bed.ID
		}
		if _, err := a.deps.Batches.Create(dbc, []*types.Batch{row}); err != nil {
			if isUniqueViolation(err) {
				return codedError(domainagg.CodeDuplicateBatchNumber, op, "batch number already exists")
			}
			return err
		}

		notes := createdHistoryNote
		h, err := a.deps.History.Append(dbc, &types.StageHistory{
			BatchID:   row.ID,
			FromStage: nil,
			ToStage:   nursery.StageInitial,
			Quantity:  in.InitialQty,
			Notes:     &notes,
			CreatedAt: createdAt,
		})
		if err != nil {
			return err
		}
		out.Batch = *row
		out.History = h
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) UpdateStage(ctx context.Context, in domainagg.UpdateStageInput) (domainagg.BatchWriteResult, error) {
	const op = "Nursery.BatchLifecycle.UpdateStage"
	var out domainagg.BatchWriteResult
	if in.BatchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	}
	if !in.ToStage.Valid() {
		return out, domainagg.NewError(domainagg.CodeInvalidEnum, op, fmt.Sprintf("invalid stage %q", in.ToStage), nil)
	}
	if in.Quantity < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "quantity must not be negative", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockBatch(dbc, op, in.BatchID)
		if err != nil {
			return err
		}
		if before.Status.Terminal() {
			return codedError(domainagg.CodeConflict, op, fmt.Sprintf("cannot change stage of a %s batch", before.Status))
		}
		if in.Quantity > before.InitialQty {
			return codedError(domainagg.CodeValidation, op, "quantity cannot exceed the initial quantity")
		}

		after := *before
		after.Stage = in.ToStage
		after.CurrentQty = in.Quantity
		after.Status = nursery.StatusInProgress
		after.UpdatedAt = time.Now().UTC()

		if err := a.applyOccupancy(dbc, op, *before, after); err != nil {
			return err
		}
		if err := a.deps.Batches.UpdateFields(dbc, before.ID, map[string]interface{}{
			"stage":       after.Stage,
			"current_qty": after.CurrentQty,
			"status":      after.Status,
			"updated_at":  after.UpdatedAt,
		}); err != nil {
			return err
		}

		from := before.Stage
		h, err := a.deps.History.Append(dbc, &types.StageHistory{
			BatchID:   before.ID,
			FromStage: &from,
			ToStage:   in.ToStage,
			Quantity:  in.Quantity,
			Notes:     trimmedOrNil(in.Notes),
			CreatedAt: after.UpdatedAt,
		})
		if err != nil {
			return err
		}
		out = domainagg.BatchWriteResult{Batch: after, Before: *before, History: h}
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) MarkReady(ctx context.Context, in domainagg.MarkReadyInput) (domainagg.BatchWriteResult, error) {
	const op = "Nursery.BatchLifecycle.MarkReady"
	var out domainagg.BatchWriteResult
	if in.BatchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}
	at := in.At.UTC()
	if in.At.IsZero() {
		at = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockBatch(dbc, op, in.BatchID)
		if err != nil {
			return err
		}
		if before.Status.Terminal() {
			return codedError(domainagg.CodeConflict, op, fmt.Sprintf("cannot mark a %s batch ready", before.Status))
		}
		after := *before
		after.IsReady = true
		after.ReadyDate = &at
		after.Status = nursery.StatusReady
		after.UpdatedAt = at

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.Batch{}.TableName(), before.ID,
			statusStrings(nursery.OccupyingStatuses()...),
			map[string]any{
				"is_ready":   true,
				"ready_date": at,
				"status":     nursery.StatusReady,
				"updated_at": at,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "batch status changed concurrently"); err != nil {
			return err
		}
		out = domainagg.BatchWriteResult{Batch: after, Before: *before}
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) DeliverBatch(ctx context.Context, in domainagg.BatchRefInput) (domainagg.BatchWriteResult, error) {
	const op = "Nursery.BatchLifecycle.DeliverBatch"
	var out domainagg.BatchWriteResult
	if in.BatchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockBatch(dbc, op, in.BatchID)
		if err != nil {
			return err
		}
		if before.Status.Terminal() {
			return codedError(domainagg.CodeConflict, op, fmt.Sprintf("batch is already %s", before.Status))
		}
		if !before.IsReady {
			return codedError(domainagg.CodeNotReady, op, "batch is not ready for delivery")
		}
		after := *before
		after.Status = nursery.StatusDelivered
		after.UpdatedAt = time.Now().UTC()

		if err := a.applyOccupancy(dbc, op, *before, after); err != nil {
			return err
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.Batch{}.TableName(), before.ID,
			statusStrings(nursery.OccupyingStatuses()...),
			map[string]any{
				"status":     nursery.StatusDelivered,
				"updated_at": after.UpdatedAt,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "batch status changed concurrently"); err != nil {
			return err
		}
		out = domainagg.BatchWriteResult{Batch: after, Before: *before}
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) CancelBatch(ctx context.Context, in domainagg.CancelBatchInput) (domainagg.BatchWriteResult, error) {
	const op = "Nursery.BatchLifecycle.CancelBatch"
	var out domainagg.BatchWriteResult
	if in.BatchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}
	cancellable := statusStrings(nursery.StatusCreated, nursery.StatusInProgress)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockBatch(dbc, op, in.BatchID)
		if err != nil {
			return err
		}
		if err := RequireStatusAllowed(string(before.Status), cancellable...); err != nil {
			return err
		}
		after := *before
		after.Status = nursery.StatusCancelled
		after.UpdatedAt = time.Now().UTC()
		updates := map[string]any{
			"status":     nursery.StatusCancelled,
			"updated_at": after.UpdatedAt,
		}
		if reason := strings.TrimSpace(in.Reason); reason != "" {
			after.CancelReason = &reason
			updates["cancel_reason"] = reason
		}

		if err := a.applyOccupancy(dbc, op, *before, after); err != nil {
			return err
		}
		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, types.Batch{}.TableName(), before.ID, cancellable, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "batch status changed concurrently"); err != nil {
			return err
		}
		out = domainagg.BatchWriteResult{Batch: after, Before: *before}
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) RecordLoss(ctx context.Context, in domainagg.RecordLossInput) (domainagg.BatchWriteResult, error) {
	const op = "Nursery.BatchLifecycle.RecordLoss"
	var out domainagg.BatchWriteResult
	if in.BatchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	}
	if in.Quantity < 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "loss quantity must be at least 1", nil)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "loss reason is required", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockBatch(dbc, op, in.BatchID)
		if err != nil {
			return err
		}
		if before.Status.Terminal() {
			return codedError(domainagg.CodeConflict, op, fmt.Sprintf("cannot record loss on a %s batch", before.Status))
		}
		if in.Quantity > before.CurrentQty {
			return codedError(domainagg.CodeValidation, op,
				fmt.Sprintf("loss quantity %d exceeds current quantity %d", in.Quantity, before.CurrentQty))
		}
		after := *before
		after.CurrentQty -= in.Quantity
		after.LossQty += in.Quantity
		after.LossReason = &reason
		after.UpdatedAt = time.Now().UTC()

		if err := a.applyOccupancy(dbc, op, *before, after); err != nil {
			return err
		}
		if err := a.deps.Batches.UpdateFields(dbc, before.ID, map[string]interface{}{
			"current_qty": after.CurrentQty,
			"loss_qty":    after.LossQty,
			"loss_reason": reason,
			"updated_at":  after.UpdatedAt,
		}); err != nil {
			return err
		}
		out = domainagg.BatchWriteResult{Batch: after, Before: *before}
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) MoveBatch(ctx context.Context, in domainagg.MoveBatchInput) (domainagg.BatchWriteResult, error) {
	const op = "Nursery.BatchLifecycle.MoveBatch"
	var out domainagg.BatchWriteResult
	if in.BatchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockBatch(dbc, op, in.BatchID)
		if err != nil {
			return err
		}
		if before.Status.Terminal() {
			return codedError(domainagg.CodeConflict, op, fmt.Sprintf("cannot move a %s batch", before.Status))
		}
		target := derefID(in.BedID)
		locked, err := a.ledger.Lock(dbc, op, bedOf(*before), target)
		if err != nil {
			return err
		}
		bed := locked[target]
		zoneID, err := a.resolveZone(dbc, op, in.ZoneID, bed)
		if err != nil {
			return err
		}

		after := *before
		after.ZoneID = zoneID
		after.BedID = nil
		if bed != nil {
			after.BedID = &bed.ID
		}
		after.UpdatedAt = time.Now().UTC()

		if err := a.ledger.Transition(dbc, op, locked, *before, after); err != nil {
			return err
		}
		if err := a.deps.Batches.UpdateFields(dbc, before.ID, map[string]interface{}{
			"zone_id":    nullableID(after.ZoneID),
			"bed_id":     nullableID(after.BedID),
			"updated_at": after.UpdatedAt,
		}); err != nil {
			return err
		}
		out = domainagg.BatchWriteResult{Batch: after, Before: *before}
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) UpdateBatchFields(ctx context.Context, in domainagg.UpdateBatchFieldsInput) (domainagg.BatchWriteResult, error) {
	const op = "Nursery.BatchLifecycle.UpdateBatchFields"
	var out domainagg.BatchWriteResult
	if in.BatchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	}
	if in.Status != nil && !in.Status.Valid() {
		return out, domainagg.NewError(domainagg.CodeInvalidEnum, op, fmt.Sprintf("invalid status %q", *in.Status), nil)
	}
	if in.CurrentQty != nil && *in.CurrentQty < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "current quantity must not be negative", nil)
	}
	if in.LossQty != nil && *in.LossQty < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "loss quantity must not be negative", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockBatch(dbc, op, in.BatchID)
		if err != nil {
			return err
		}
		if in.Empty() {
			out = domainagg.BatchWriteResult{Batch: *before, Before: *before}
			return nil
		}
		if before.Status == nursery.StatusDelivered {
			return codedError(domainagg.CodeConflict, op, "delivered batches cannot be modified")
		}

		after := *before
		updates := map[string]interface{}{}
		if in.CustomName != nil {
			after.CustomName = trimmedOrNil(in.CustomName)
			updates["custom_name"] = nullableString(after.CustomName)
		}
		if in.CurrentQty != nil {
			if *in.CurrentQty > before.InitialQty {
				return codedError(domainagg.CodeValidation, op, "current quantity cannot exceed the initial quantity")
			}
			after.CurrentQty = *in.CurrentQty
			updates["current_qty"] = after.CurrentQty
		}
		if in.IsReady != nil {
			after.IsReady = *in.IsReady
			updates["is_ready"] = after.IsReady
		}
		if in.ReadyDate != nil {
			rd := in.ReadyDate.UTC()
			after.ReadyDate = &rd
			updates["ready_date"] = rd
		}
		if in.LossReason != nil {
			after.LossReason = trimmedOrNil(in.LossReason)
			updates["loss_reason"] = nullableString(after.LossReason)
		}
		if in.LossQty != nil {
			after.LossQty = *in.LossQty
			updates["loss_qty"] = after.LossQty
		}
		if in.Status != nil && *in.Status != before.Status {
			if before.Status.Terminal() {
				return codedError(domainagg.CodeConflict, op, fmt.Sprintf("%s batches cannot change status", before.Status))
			}
			if *in.Status == nursery.StatusCancelled {
				if err := RequireStatusAllowed(string(before.Status), statusStrings(nursery.StatusCreated, nursery.StatusInProgress)...); err != nil {
					return err
				}
			}
			after.Status = *in.Status
			updates["status"] = after.Status
		}
		if after.Status == nursery.StatusDelivered && !after.IsReady {
			return codedError(domainagg.CodeNotReady, op, "batch is not ready for delivery")
		}
		after.UpdatedAt = time.Now().UTC()
		updates["updated_at"] = after.UpdatedAt

		if err := a.applyOccupancy(dbc, op, *before, after); err != nil {
			return err
		}
		if err := a.deps.Batches.UpdateFields(dbc, before.ID, updates); err != nil {
			return err
		}
		out = domainagg.BatchWriteResult{Batch: after, Before: *before}
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) DeleteBatch(ctx context.Context, in domainagg.BatchRefInput) (domainagg.DeleteBatchResult, error) {
	const op = "Nursery.BatchLifecycle.DeleteBatch"
	var out domainagg.DeleteBatchResult
	if in.BatchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing batch_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		before, err := a.lockBatch(dbc, op, in.BatchID)
		if err != nil {
			return err
		}
		if before.Status == nursery.StatusDelivered {
			return codedError(domainagg.CodeConflict, op, "delivered batches cannot be deleted")
		}
		if bedID := bedOf(*before); bedID != uuid.Nil {
			if _, err := a.ledger.Lock(dbc, op, bedID); err != nil {
				return err
			}
			if err := a.ledger.Decrement(dbc, op, bedID, before.Occupancy()); err != nil {
				return err
			}
		}
		measurements, err := a.deps.Measurements.DeleteByBatch(dbc, before.ID)
		if err != nil {
			return err
		}
		history, err := a.deps.History.DeleteByBatch(dbc, before.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Batches.Delete(dbc, before.ID); err != nil {
			return err
		}
		out = domainagg.DeleteBatchResult{Batch: *before, MeasurementsDeleted: measurements, HistoryDeleted: history}
		return nil
	})
	return out, err
}

func (a *batchLifecycleAggregate) NextBatchNumber(ctx context.Context, pathway nursery.Pathway, at time.Time) (string, error) {
	const op = "Nursery.BatchLifecycle.NextBatchNumber"
	if !pathway.Valid() {
		return "", domainagg.NewError(domainagg.CodeInvalidEnum, op, fmt.Sprintf("invalid pathway %q", pathway), nil)
	}
	if a.deps.Batches == nil {
		return "", domainagg.NewError(domainagg.CodeInternal, op, "batch lifecycle repos not configured", nil)
	}
	if at.IsZero() {
		at = time.Now()
	}
	number, err := a.nextBatchNumber(dbctx.Context{Ctx: ctx}, op, pathway, at.UTC())
	return number, MapError(op, err)
}

// nextBatchNumber returns <code><YYMMDD><seq3> with seq one past the highest number
// already issued under that prefix.
func (a *batchLifecycleAggregate) nextBatchNumber(dbc dbctx.Context, op string, pathway nursery.Pathway, at time.Time) (string, error) {
	prefix := pathway.Code() + at.Format("060102")
	last, err := a.deps.Batches.LastNumberWithPrefix(dbc, prefix)
	if err != nil {
		return "", err
	}
	seq := 1
	if len(last) >= len(prefix)+batchSequenceDigits {
		if n, err := strconv.Atoi(last[len(last)-batchSequenceDigits:]); err == nil {
			seq = n + 1
		}
	}
	if seq > maxBatchSequence {
		return "", codedError(domainagg.CodeConflict, op, "daily batch sequence exhausted for "+prefix)
	}
	return fmt.Sprintf("%s%0*d", prefix, batchSequenceDigits, seq), nil
}

func (a *batchLifecycleAggregate) lockBatch(dbc dbctx.Context, op string, id uuid.UUID) (*types.Batch, error) {
	b, err := a.deps.Batches.LockByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, codedError(domainagg.CodeNotFound, op, "batch not found")
	}
	return b, nil
}

// applyOccupancy locks the bed a batch sits in and moves the occupancy difference between
// two snapshots that share a bed.
func (a *batchLifecycleAggregate) applyOccupancy(dbc dbctx.Context, op string, before, after types.Batch) error {
	bedID := bedOf(before)
	if bedID == uuid.Nil || before.Occupancy() == after.Occupancy() {
		return nil
	}
	locked, err := a.ledger.Lock(dbc, op, bedID)
	if err != nil {
		return err
	}
	return a.ledger.Transition(dbc, op, locked, before, after)
}

// resolveZone checks an explicit zone exists and contains bed; with no explicit zone the
// bed's zone is used.
func (a *batchLifecycleAggregate) resolveZone(dbc dbctx.Context, op string, zoneID *uuid.UUID, bed *types.Bed) (*uuid.UUID, error) {
	id := derefID(zoneID)
	if id == uuid.Nil {
		if bed == nil {
			return nil, nil
		}
		z := bed.ZoneID
		return &z, nil
	}
	zone, err := a.deps.Zones.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, codedError(domainagg.CodeReferenceNotFound, op, "zone not found")
	}
	if bed != nil && bed.ZoneID != zone.ID {
		return nil, codedError(domainagg.CodeValidation, op, "bed does not belong to zone")
	}
	return &zone.ID, nil
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func nullableID(id *uuid.UUID) interface{} {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return *id
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
