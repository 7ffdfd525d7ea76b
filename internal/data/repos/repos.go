package repos

import (
	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/data/repos/audit"
	"github.com/luminex/nursery-backend/internal/data/repos/nursery"
	"github.com/luminex/nursery-backend/internal/data/repos/user"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserFilter = user.UserFilter

type SpeciesRepo = nursery.SpeciesRepo
type SpeciesFilter = nursery.SpeciesFilter
type ZoneRepo = nursery.ZoneRepo
type ZoneFilter = nursery.ZoneFilter
type BedRepo = nursery.BedRepo
type BatchRepo = nursery.BatchRepo
type BatchFilter = nursery.BatchFilter
type StageHistoryRepo = nursery.StageHistoryRepo
type MeasurementRepo = nursery.MeasurementRepo
type MeasurementFilter = nursery.MeasurementFilter
type AnalyticsRepo = nursery.AnalyticsRepo
type TimeWindow = nursery.TimeWindow
type SpeciesDistributionRow = nursery.SpeciesDistributionRow
type StagePipelineRow = nursery.StagePipelineRow
type ZoneUtilizationRow = nursery.ZoneUtilizationRow

type AuditLogRepo = audit.AuditLogRepo
type AuditLogFilter = audit.AuditLogFilter

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewSpeciesRepo(db *gorm.DB, log *logger.Logger) SpeciesRepo {
	return nursery.NewSpeciesRepo(db, log)
}
func NewZoneRepo(db *gorm.DB, log *logger.Logger) ZoneRepo   { return nursery.NewZoneRepo(db, log) }
func NewBedRepo(db *gorm.DB, log *logger.Logger) BedRepo     { return nursery.NewBedRepo(db, log) }
func NewBatchRepo(db *gorm.DB, log *logger.Logger) BatchRepo { return nursery.NewBatchRepo(db, log) }
func NewStageHistoryRepo(db *gorm.DB, log *logger.Logger) StageHistoryRepo {
	return nursery.NewStageHistoryRepo(db, log)
}
func NewMeasurementRepo(db *gorm.DB, log *logger.Logger) MeasurementRepo {
	return nursery.NewMeasurementRepo(db, log)
}
func NewAnalyticsRepo(db *gorm.DB, log *logger.Logger) AnalyticsRepo {
	return nursery.NewAnalyticsRepo(db, log)
}

func NewAuditLogRepo(db *gorm.DB, log *logger.Logger) AuditLogRepo {
	return audit.NewAuditLogRepo(db, log)
}
