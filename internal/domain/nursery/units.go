package nursery

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LengthUnit is a display unit. Measurements are always stored in centimetres.
type LengthUnit string

const (
	UnitCM    LengthUnit = "cm"
	UnitMM    LengthUnit = "mm"
	UnitInch  LengthUnit = "inch"
	UnitMeter LengthUnit = "m"
)

var cmPerUnit = map[LengthUnit]float64{
	UnitCM:    1,
	UnitMM:    0.1,
	UnitInch:  2.54,
	UnitMeter: 100,
}

// ConvertLength converts between units, rounded to two decimals.
func ConvertLength(value float64, from, to LengthUnit) (float64, error) {
	fromCM, ok := cmPerUnit[from]
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q", from)
	}
	toCM, ok := cmPerUnit[to]
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q", to)
	}
	return math.Round(value*fromCM/toCM*100) / 100, nil
}

// OpenEndedMax marks the upper bound of a "N+" range.
const OpenEndedMax = 9999

type RangeOption struct {
	Label string  `json:"label"`
	Value string  `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

var girthRanges = []RangeOption{
	{Label: "0.5-1.0 cm", Value: "0.5-1.0", Min: 0.5, Max: 1.0},
	{Label: "1.0-1.5 cm", Value: "1.0-1.5", Min: 1.0, Max: 1.5},
	{Label: "1.5-2.0 cm", Value: "1.5-2.0", Min: 1.5, Max: 2.0},
	{Label: "2.0-2.5 cm", Value: "2.0-2.5", Min: 2.0, Max: 2.5},
	{Label: "2.5-3.0 cm", Value: "2.5-3.0", Min: 2.5, Max: 3.0},
	{Label: "3.0-4.0 cm", Value: "3.0-4.0", Min: 3.0, Max: 4.0},
	{Label: "4.0-5.0 cm", Value: "4.0-5.0", Min: 4.0, Max: 5.0},
	{Label: "5.0-7.5 cm", Value: "5.0-7.5", Min: 5.0, Max: 7.5},
	{Label: "7.5-10.0 cm", Value: "7.5-10.0", Min: 7.5, Max: 10.0},
	{Label: "10.0+ cm", Value: "10.0+", Min: 10.0, Max: OpenEndedMax},
}

var heightRanges = []RangeOption{
	{Label: "5-10 cm", Value: "5-10", Min: 5, Max: 10},
	{Label: "10-15 cm", Value: "10-15", Min: 10, Max: 15},
	{Label: "15-20 cm", Value: "15-20", Min: 15, Max: 20},
	{Label: "20-25 cm", Value: "20-25", Min: 20, Max: 25},
	{Label: "25-30 cm", Value: "25-30", Min: 25, Max: 30},
	{Label: "30-40 cm", Value: "30-40", Min: 30, Max: 40},
	{Label: "40-50 cm", Value: "40-50", Min: 40, Max: 50},
	{Label: "50-75 cm", Value: "50-75", Min: 50, Max: 75},
	{Label: "75-100 cm", Value: "75-100", Min: 75, Max: 100},
	{Label: "100+ cm", Value: "100+", Min: 100, Max: OpenEndedMax},
}

// GirthRanges returns the predefined girth bands converted to unit.
func GirthRanges(unit LengthUnit) ([]RangeOption, error) { return convertRanges(girthRanges, unit) }

// HeightRanges returns the predefined height bands converted to unit.
func HeightRanges(unit LengthUnit) ([]RangeOption, error) { return convertRanges(heightRanges, unit) }

func convertRanges(in []RangeOption, unit LengthUnit) ([]RangeOption, error) {
	if unit == "" {
		unit = UnitCM
	}
	out := make([]RangeOption, 0, len(in))
	for _, r := range in {
		lo, err := ConvertLength(r.Min, UnitCM, unit)
		if err != nil {
			return nil, err
		}
		hi, err := ConvertLength(r.Max, UnitCM, unit)
		if err != nil {
			return nil, err
		}
		out = append(out, RangeOption{Label: r.Label, Value: r.Value, Min: lo, Max: hi})
	}
	return out, nil
}

// ParseRangeValue parses "1.0-1.5" or "10.0+" into bounds.
func ParseRangeValue(v string) (lo, hi float64, ok bool) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "+") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "+"), 64)
		if err != nil {
			return 0, 0, false
		}
		return f, OpenEndedMax, true
	}
	parts := strings.Split(v, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	b, errB := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}

// RangeAverage is the representative value of a band; open-ended bands use min+5.
func RangeAverage(lo, hi float64) float64 {
	if hi >= OpenEndedMax {
		return lo + 5
	}
	return (lo + hi) / 2
}

// GrowthBand is a coarse height classification used by growth reports.
type GrowthBand struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

var growthBands = []GrowthBand{
	{Name: "Seedling", Min: 0, Max: 10},
	{Name: "Young", Min: 10, Max: 30},
	{Name: "Juvenile", Min: 30, Max: 60},
	{Name: "Mature", Min: 60, Max: 100},
	{Name: "Large", Min: 100, Max: 200},
}

func GrowthBands() []GrowthBand {
	out := make([]GrowthBand, len(growthBands))
	copy(out, growthBands)
	return out
}
