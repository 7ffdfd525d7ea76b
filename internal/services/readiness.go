package services

import (
	"math"
	"time"

	types "github.com/luminex/nursery-backend/internal/domain"
)

type Readiness struct {
	Ready             bool       `json:"ready"`
	HasMeasurement    bool       `json:"hasMeasurement"`
	TargetGirth       float64    `json:"targetGirth"`
	TargetHeight      float64    `json:"targetHeight"`
	LatestGirth       *float64   `json:"latestGirth,omitempty"`
	LatestHeight      *float64   `json:"latestHeight,omitempty"`
	EstimatedReadyAt  *time.Time `json:"estimatedReadyDate,omitempty"`
	MeasurementsCount int64      `json:"measurementsCount"`
}

// CheckReadiness reports whether the latest sample meets both species targets.
func CheckReadiness(species *types.Species, latest *types.Measurement) bool {
	if species == nil || latest == nil {
		return false
	}
	return latest.Girth >= species.TargetGirth && latest.Height >= species.TargetHeight
}

// EstimateReadyDate projects when the batch reaches both targets from the linear growth
// between the first and last samples. It returns nil when no finite date follows.
func EstimateReadyDate(species *types.Species, first, last *types.Measurement, now time.Time) *time.Time {
	if species == nil || first == nil || last == nil || first.ID == last.ID {
		return nil
	}
	days := math.Max(1, last.CreatedAt.Sub(first.CreatedAt).Hours()/24)
	girthRate := (last.Girth - first.Girth) / days
	heightRate := (last.Height - first.Height) / days

	girthDays, ok := daysToTarget(species.TargetGirth, last.Girth, girthRate)
	if !ok {
		return nil
	}
	heightDays, ok := daysToTarget(species.TargetHeight, last.Height, heightRate)
	if !ok {
		return nil
	}
	need := math.Max(girthDays, heightDays)
	if need < 0 {
		return nil
	}
	at := now.UTC().AddDate(0, 0, int(need))
	return &at
}

// daysToTarget is negative when the target is already passed; a flat or shrinking rate has
// no answer even then.
func daysToTarget(target, current, rate float64) (float64, bool) {
	if rate <= 0 {
		return 0, false
	}
	return math.Ceil((target - current) / rate), true
}
