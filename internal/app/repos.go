package app

import (
	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/data/repos"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Species      repos.SpeciesRepo
	Zone         repos.ZoneRepo
	Bed          repos.BedRepo
	Batch        repos.BatchRepo
	StageHistory repos.StageHistoryRepo
	Measurement  repos.MeasurementRepo
	Analytics    repos.AnalyticsRepo
	AuditLog     repos.AuditLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Species:      repos.NewSpeciesRepo(db, log),
		Zone:         repos.NewZoneRepo(db, log),
		Bed:          repos.NewBedRepo(db, log),
		Batch:        repos.NewBatchRepo(db, log),
		StageHistory: repos.NewStageHistoryRepo(db, log),
		Measurement:  repos.NewMeasurementRepo(db, log),
		Analytics:    repos.NewAnalyticsRepo(db, log),
		AuditLog:     repos.NewAuditLogRepo(db, log),
	}
}
