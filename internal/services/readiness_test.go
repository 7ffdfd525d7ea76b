package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/luminex/nursery-backend/internal/domain"
)

func sample(girth, height float64, at time.Time) *types.Measurement {
	return &types.Measurement{ID: uuid.New(), Girth: girth, Height: height, CreatedAt: at}
}

func TestCheckReadiness(t *testing.T) {
	sp := &types.Species{TargetGirth: 3, TargetHeight: 32}
	now := time.Now()
	cases := []struct {
		name   string
		latest *types.Measurement
		want   bool
	}{
		{"no sample", nil, false},
		{"both met", sample(3, 32, now), true},
		{"girth short", sample(2.9, 40, now), false},
		{"height short", sample(4, 31.9, now), false},
	}
	for _, tc := range cases {
		if got := CheckReadiness(sp, tc.latest); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
	if CheckReadiness(nil, sample(10, 100, now)) {
		t.Fatalf("missing species should never be ready")
	}
}

func TestEstimateReadyDateLinear(t *testing.T) {
	sp := &types.Species{TargetGirth: 3, TargetHeight: 32}
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	first := sample(1, 10, t0)
	last := sample(2, 20, t0.AddDate(0, 0, 10))

	// girth 0.1/day needs 10 days, height 1/day needs 12; the slower one wins.
	got := EstimateReadyDate(sp, first, last, now)
	if got == nil {
		t.Fatalf("expected an estimate")
	}
	if want := now.AddDate(0, 0, 12); !got.Equal(want) {
		t.Fatalf("estimate: want=%s got=%s", want, got)
	}
}

func TestEstimateReadyDateNoAnswer(t *testing.T) {
	sp := &types.Species{TargetGirth: 3, TargetHeight: 32}
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0.AddDate(0, 1, 0)

	flat := EstimateReadyDate(sp, sample(1, 10, t0), sample(1, 20, t0.AddDate(0, 0, 5)), now)
	if flat != nil {
		t.Fatalf("flat girth should give no estimate, got=%s", flat)
	}
	shrinking := EstimateReadyDate(sp, sample(2, 20, t0), sample(1.5, 25, t0.AddDate(0, 0, 5)), now)
	if shrinking != nil {
		t.Fatalf("shrinking girth should give no estimate, got=%s", shrinking)
	}
	passed := EstimateReadyDate(&types.Species{TargetGirth: 1.5, TargetHeight: 15}, sample(1, 10, t0), sample(2, 20, t0.AddDate(0, 0, 10)), now)
	if passed != nil {
		t.Fatalf("targets already passed should give no estimate, got=%s", passed)
	}
	one := sample(1, 10, t0)
	if EstimateReadyDate(sp, one, one, now) != nil {
		t.Fatalf("a single sample should give no estimate")
	}
}

func TestEstimateReadyDateMinimumSpan(t *testing.T) {
	sp := &types.Species{TargetGirth: 3, TargetHeight: 30}
	t0 := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	now := t0.Add(6 * time.Hour)
	// Same-day samples count as one day apart: girth 1/day and height 10/day both need 1 day.
	got := EstimateReadyDate(sp, sample(1, 10, t0), sample(2, 20, t0.Add(2*time.Hour)), now)
	if got == nil {
		t.Fatalf("expected an estimate")
	}
	if want := now.AddDate(0, 0, 1); !got.Equal(want) {
		t.Fatalf("estimate: want=%s got=%s", want, got)
	}
}
