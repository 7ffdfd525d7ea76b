package nursery

import (
	"testing"

	"github.com/google/uuid"
)

func TestPathwayCodes(t *testing.T) {
	cases := map[Pathway]string{
		PathwayPurchasing:         "PU",
		PathwaySeedGermination:    "SG",
		PathwayCuttingGermination: "CG",
		PathwayOutSourcing:        "OS",
	}
	for p, code := range cases {
		if got := p.Code(); got != code {
			t.Fatalf("%s code: want=%s got=%s", p, code, got)
		}
		back, ok := PathwayForCode(code)
		if !ok || back != p {
			t.Fatalf("PathwayForCode(%s): got=%s ok=%v", code, back, ok)
		}
	}
	if Pathway("GIFT").Valid() {
		t.Fatalf("unexpected valid pathway")
	}
}

func TestStatusOccupancyAndTerminal(t *testing.T) {
	for _, s := range []BatchStatus{StatusCreated, StatusInProgress, StatusReady} {
		if !s.OccupiesBed() || s.Terminal() {
			t.Fatalf("%s: expected occupying non-terminal", s)
		}
	}
	for _, s := range []BatchStatus{StatusDelivered, StatusCancelled} {
		if s.OccupiesBed() || !s.Terminal() {
			t.Fatalf("%s: expected terminal non-occupying", s)
		}
	}
}

func TestBatchOccupancy(t *testing.T) {
	bed := uuid.New()
	b := Batch{CurrentQty: 40, Status: StatusInProgress, BedID: &bed}
	if got := b.Occupancy(); got != 40 {
		t.Fatalf("occupancy: want=40 got=%d", got)
	}
	b.Status = StatusDelivered
	if got := b.Occupancy(); got != 0 {
		t.Fatalf("delivered occupancy: want=0 got=%d", got)
	}
	b.Status = StatusCreated
	b.BedID = nil
	if got := b.Occupancy(); got != 0 {
		t.Fatalf("unplaced occupancy: want=0 got=%d", got)
	}
}

func TestConvertLength(t *testing.T) {
	got, err := ConvertLength(10, UnitCM, UnitInch)
	if err != nil {
		t.Fatalf("ConvertLength: %v", err)
	}
	if got != 3.94 {
		t.Fatalf("cm->inch: want=3.94 got=%v", got)
	}
	if got, _ := ConvertLength(1.5, UnitMeter, UnitMM); got != 1500 {
		t.Fatalf("m->mm: want=1500 got=%v", got)
	}
	if _, err := ConvertLength(1, "furlong", UnitCM); err == nil {
		t.Fatalf("expected unsupported unit error")
	}
}

func TestParseRangeValue(t *testing.T) {
	lo, hi, ok := ParseRangeValue("1.0-1.5")
	if !ok || lo != 1.0 || hi != 1.5 {
		t.Fatalf("closed range: lo=%v hi=%v ok=%v", lo, hi, ok)
	}
	if avg := RangeAverage(lo, hi); avg != 1.25 {
		t.Fatalf("closed average: want=1.25 got=%v", avg)
	}
	lo, hi, ok = ParseRangeValue("100+")
	if !ok || lo != 100 || hi != OpenEndedMax {
		t.Fatalf("open range: lo=%v hi=%v ok=%v", lo, hi, ok)
	}
	if avg := RangeAverage(lo, hi); avg != 105 {
		t.Fatalf("open average: want=105 got=%v", avg)
	}
	if _, _, ok := ParseRangeValue("tall"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestHeightRangesInInches(t *testing.T) {
	ranges, err := HeightRanges(UnitInch)
	if err != nil {
		t.Fatalf("HeightRanges: %v", err)
	}
	if len(ranges) != 10 {
		t.Fatalf("range count: want=10 got=%d", len(ranges))
	}
	if ranges[0].Min != 1.97 || ranges[0].Value != "5-10" {
		t.Fatalf("first range: %+v", ranges[0])
	}
}
