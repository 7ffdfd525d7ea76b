package nursery

import "strings"

// Pathway is the sourcing method that originated a batch.
type Pathway string

const (
	PathwayPurchasing         Pathway = "PURCHASING"
	PathwaySeedGermination    Pathway = "SEED_GERMINATION"
	PathwayCuttingGermination Pathway = "CUTTING_GERMINATION"
	PathwayOutSourcing        Pathway = "OUT_SOURCING"
)

var pathwayCodes = map[Pathway]string{
	PathwayPurchasing:         "PU",
	PathwaySeedGermination:    "SG",
	PathwayCuttingGermination: "CG",
	PathwayOutSourcing:        "OS",
}

func (p Pathway) Valid() bool {
	_, ok := pathwayCodes[p]
	return ok
}

// Code is the two-letter batch number prefix for the pathway.
func (p Pathway) Code() string { return pathwayCodes[p] }

// PathwayForCode maps a batch number prefix back to its pathway.
func PathwayForCode(code string) (Pathway, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for p, c := range pathwayCodes {
		if c == code {
			return p, true
		}
	}
	return "", false
}

// BatchStatus is the overall lifecycle state of a batch.
type BatchStatus string

const (
	StatusCreated    BatchStatus = "CREATED"
	StatusInProgress BatchStatus = "IN_PROGRESS"
	StatusReady      BatchStatus = "READY"
	StatusDelivered  BatchStatus = "DELIVERED"
	StatusCancelled  BatchStatus = "CANCELLED"
)

func (s BatchStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusInProgress, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s BatchStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OccupiesBed reports whether a batch in this status counts toward its bed's occupancy.
// Plants stay in the bed until they leave it, so READY still occupies.
func (s BatchStatus) OccupiesBed() bool {
	switch s {
	case StatusCreated, StatusInProgress, StatusReady:
		return true
	}
	return false
}

// OccupyingStatuses lists the statuses counted by the capacity ledger.
func OccupyingStatuses() []BatchStatus {
	return []BatchStatus{StatusCreated, StatusInProgress, StatusReady}
}

// Stage is a production phase a batch passes through.
type Stage string

const (
	StageInitial       Stage = "INITIAL"
	StagePropagation   Stage = "PROPAGATION"
	StageShade60       Stage = "SHADE_60"
	StageShade80       Stage = "SHADE_80"
	StageGrowing       Stage = "GROWING"
	StageHardening     Stage = "HARDENING"
	StageRePotting     Stage = "RE_POTTING"
	StagePhytosanitary Stage = "PHYTOSANITARY"
)

var allStages = []Stage{
	StageInitial,
	StagePropagation,
	StageShade60,
	StageShade80,
	StageGrowing,
	StageHardening,
	StageRePotting,
	StagePhytosanitary,
}

func Stages() []Stage {
	out := make([]Stage, len(allStages))
	copy(out, allStages)
	return out
}

func (s Stage) Valid() bool {
	for _, st := range allStages {
		if st == s {
			return true
		}
	}
	return false
}
