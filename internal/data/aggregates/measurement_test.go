package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/pkg/pointers"
)

func TestRecordMeasurementSampleSizeBoundedByQuantity(t *testing.T) {
	f := newNurseryFixture(t, repotest.DB(t), 100)
	ctx := context.Background()
	b := f.create(t, 50).Batch

	_, err := f.measurements.RecordMeasurement(ctx, domainagg.RecordMeasurementInput{
		BatchID: b.ID, UserID: f.user.ID, Girth: 1.5, Height: 20, SampleSize: 60,
	})
	if !domainagg.IsCode(err, domainagg.CodeSampleSizeExceedsQuantity) {
		t.Fatalf("expected sample_size_exceeds_quantity, got %v", err)
	}

	res, err := f.measurements.RecordMeasurement(ctx, domainagg.RecordMeasurementInput{
		BatchID: b.ID, UserID: f.user.ID, Girth: 1.5, Height: 20, SampleSize: 50, Notes: pointers.String("  east row "),
	})
	if err != nil {
		t.Fatalf("RecordMeasurement: %v", err)
	}
	if res.Measurement.SampleSize != 50 || *res.Measurement.Notes != "east row" {
		t.Fatalf("RecordMeasurement result: %+v", res.Measurement)
	}

	var n int64
	if err := f.db.Model(&types.Measurement{}).Where("batch_id = ?", b.ID).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("measurement rows: n=%d err=%v", n, err)
	}
}

func TestRecordMeasurementValidation(t *testing.T) {
	f := newNurseryFixture(t, repotest.DB(t), 100)
	ctx := context.Background()
	b := f.create(t, 10).Batch

	cases := []struct {
		name string
		in   domainagg.RecordMeasurementInput
		code domainagg.ErrorCode
	}{
		{"zero girth", domainagg.RecordMeasurementInput{BatchID: b.ID, UserID: f.user.ID, Height: 10, SampleSize: 1}, domainagg.CodeValidation},
		{"negative height", domainagg.RecordMeasurementInput{BatchID: b.ID, UserID: f.user.ID, Girth: 1, Height: -1, SampleSize: 1}, domainagg.CodeValidation},
		{"zero sample", domainagg.RecordMeasurementInput{BatchID: b.ID, UserID: f.user.ID, Girth: 1, Height: 10}, domainagg.CodeValidation},
		{"unknown batch", domainagg.RecordMeasurementInput{BatchID: uuid.New(), UserID: f.user.ID, Girth: 1, Height: 10, SampleSize: 1}, domainagg.CodeReferenceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.measurements.RecordMeasurement(ctx, tc.in)
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestRecordRangeMeasurementStoresMean(t *testing.T) {
	f := newNurseryFixture(t, repotest.DB(t), 100)
	ctx := context.Background()
	b := f.create(t, 40).Batch

	res, err := f.measurements.RecordRangeMeasurement(ctx, domainagg.RecordRangeMeasurementInput{
		BatchID:     b.ID,
		UserID:      f.user.ID,
		GirthRange:  domainagg.MeasurementRange{Min: 1, Max: 1.5},
		HeightRange: domainagg.MeasurementRange{Min: 10, Max: 20},
		SampleSize:  12,
		Notes:       pointers.String("nursery walk"),
	})
	if err != nil {
		t.Fatalf("RecordRangeMeasurement: %v", err)
	}
	m := res.Measurement
	if m.Girth != 1.25 || m.Height != 15 {
		t.Fatalf("stored means: girth=%v height=%v", m.Girth, m.Height)
	}
	want := "Range measurement - Girth: 1-1.5cm, Height: 10-20cm. nursery walk"
	if m.Notes == nil || *m.Notes != want {
		t.Fatalf("notes: want=%q got=%v", want, m.Notes)
	}

	_, err = f.measurements.RecordRangeMeasurement(ctx, domainagg.RecordRangeMeasurementInput{
		BatchID:     b.ID,
		UserID:      f.user.ID,
		GirthRange:  domainagg.MeasurementRange{Min: 2, Max: 1},
		HeightRange: domainagg.MeasurementRange{Min: 10, Max: 20},
		SampleSize:  1,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("inverted range: expected validation, got %v", err)
	}
}

func TestRangeNotesWithoutExtra(t *testing.T) {
	got := RangeNotes(domainagg.MeasurementRange{Min: 0.5, Max: 0.75}, domainagg.MeasurementRange{Min: 5, Max: 10}, pointers.String("  "))
	if want := "Range measurement - Girth: 0.5-0.75cm, Height: 5-10cm"; got != want {
		t.Fatalf("RangeNotes: want=%q got=%q", want, got)
	}
}

func TestMeasurementOwnership(t *testing.T) {
	f := newNurseryFixture(t, repotest.DB(t), 100)
	ctx := context.Background()
	b := f.create(t, 30).Batch
	rec, err := f.measurements.RecordMeasurement(ctx, domainagg.RecordMeasurementInput{
		BatchID: b.ID, UserID: f.user.ID, Girth: 1, Height: 10, SampleSize: 5,
	})
	if err != nil {
		t.Fatalf("RecordMeasurement: %v", err)
	}
	id := rec.Measurement.ID

	stranger := repotest.SeedUser(t, ctx, f.db, types.RoleFieldOfficer)
	_, err = f.measurements.UpdateMeasurement(ctx, domainagg.UpdateMeasurementInput{
		MeasurementID: id,
		Caller:        domainagg.Caller{UserID: stranger.ID, Role: stranger.Role},
		Height:        pointers.Ptr(12.0),
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("stranger update: expected forbidden, got %v", err)
	}
	_, err = f.measurements.DeleteMeasurement(ctx, domainagg.DeleteMeasurementInput{
		MeasurementID: id,
		Caller:        domainagg.Caller{UserID: stranger.ID, Role: stranger.Role},
	})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("stranger delete: expected forbidden, got %v", err)
	}

	owner := domainagg.Caller{UserID: f.user.ID, Role: f.user.Role}
	upd, err := f.measurements.UpdateMeasurement(ctx, domainagg.UpdateMeasurementInput{
		MeasurementID: id,
		Caller:        owner,
		Height:        pointers.Ptr(12.0),
		SampleSize:    pointers.Int(30),
	})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if upd.Measurement.Height != 12 || upd.Before.Height != 10 || upd.Measurement.SampleSize != 30 {
		t.Fatalf("owner update result: before=%+v after=%+v", upd.Before, upd.Measurement)
	}
	_, err = f.measurements.UpdateMeasurement(ctx, domainagg.UpdateMeasurementInput{
		MeasurementID: id,
		Caller:        owner,
		SampleSize:    pointers.Int(31),
	})
	if !domainagg.IsCode(err, domainagg.CodeSampleSizeExceedsQuantity) {
		t.Fatalf("oversized update: expected sample_size_exceeds_quantity, got %v", err)
	}

	admin := repotest.SeedUser(t, ctx, f.db, types.RoleSuperAdmin)
	if _, err := f.measurements.DeleteMeasurement(ctx, domainagg.DeleteMeasurementInput{
		MeasurementID: id,
		Caller:        domainagg.Caller{UserID: admin.ID, Role: admin.Role},
	}); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	_, err = f.measurements.DeleteMeasurement(ctx, domainagg.DeleteMeasurementInput{MeasurementID: id, Caller: owner})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("second delete: expected not_found, got %v", err)
	}
}
