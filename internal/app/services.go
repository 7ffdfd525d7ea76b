package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/clients/redis"
	"github.com/luminex/nursery-backend/internal/data/aggregates"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/observability"
	"github.com/luminex/nursery-backend/internal/platform/logger"
	"github.com/luminex/nursery-backend/internal/services"
)

type Aggregates struct {
	Lifecycle domainagg.BatchLifecycleAggregate
	Ledger    domainagg.CapacityLedgerAggregate
	Recorder  domainagg.MeasurementAggregate
}

type Services struct {
	Audit       services.AuditService
	Auth        services.AuthService
	User        services.UserService
	Catalog     services.CatalogService
	Batch       services.BatchService
	Measurement services.MeasurementService
	Analytics   services.AnalyticsService
}

func wireAggregates(db *gorm.DB, log *logger.Logger, metrics *observability.Metrics, r Repos) Aggregates {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	aggs := Aggregates{
		Lifecycle: aggregates.NewBatchLifecycleAggregate(aggregates.BatchLifecycleAggregateDeps{
			Base:         base,
			Batches:      r.Batch,
			History:      r.StageHistory,
			Measurements: r.Measurement,
			Species:      r.Species,
			Zones:        r.Zone,
			Beds:         r.Bed,
		}),
		Ledger: aggregates.NewCapacityLedgerAggregate(aggregates.CapacityLedgerAggregateDeps{
			Base:    base,
			Beds:    r.Bed,
			Batches: r.Batch,
		}),
		Recorder: aggregates.NewMeasurementAggregate(aggregates.MeasurementAggregateDeps{
			Base:         base,
			Batches:      r.Batch,
			Measurements: r.Measurement,
		}),
	}
	for _, a := range []domainagg.Aggregate{aggs.Lifecycle, aggs.Ledger, aggs.Recorder} {
		c := a.Contract()
		log.Debug("Aggregate contract", "name", c.Name, "tx", c.WriteTxOwnership, "locks", c.LockOrder)
	}
	return aggs
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, aggs Aggregates, cache redis.Cache, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")
	if strings.TrimSpace(cfg.JWTSecretKey) == "" {
		return Services{}, fmt.Errorf("missing jwt secret")
	}

	audit := services.NewAuditService(log, r.AuditLog, metrics)
	return Services{
		Audit: audit,
		Auth:  services.NewAuthService(log, r.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:  services.NewUserService(log, r.User, audit),
		Catalog: services.NewCatalogService(log, services.CatalogDeps{
			Runner:  aggregates.NewGormTxRunner(db),
			Species: r.Species,
			Zones:   r.Zone,
			Beds:    r.Bed,
			Batches: r.Batch,
			Ledger:  aggs.Ledger,
			Audit:   audit,
			Cache:   cache,
		}),
		Batch:       services.NewBatchService(log, aggs.Lifecycle, r.Batch, r.StageHistory, r.Measurement, audit, cache),
		Measurement: services.NewMeasurementService(log, aggs.Recorder, r.Measurement, r.Batch, audit, cache),
		Analytics:   services.NewAnalyticsService(log, r.Analytics, cache, metrics),
	}, nil
}
