package app

import (
	"context"

	"gorm.io/gorm"

	apphttp "github.com/luminex/nursery-backend/internal/http"
	httpH "github.com/luminex/nursery-backend/internal/http/handlers"
	httpMW "github.com/luminex/nursery-backend/internal/http/middleware"
	"github.com/luminex/nursery-backend/internal/observability"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Catalog     *httpH.CatalogHandler
	Batch       *httpH.BatchHandler
	Measurement *httpH.MeasurementHandler
	Analytics   *httpH.AnalyticsHandler
	Audit       *httpH.AuditHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(dbPinger(db)),
		Auth:        httpH.NewAuthHandler(services.Auth, services.User),
		User:        httpH.NewUserHandler(services.User),
		Catalog:     httpH.NewCatalogHandler(services.Catalog),
		Batch:       httpH.NewBatchHandler(services.Batch),
		Measurement: httpH.NewMeasurementHandler(services.Measurement),
		Analytics:   httpH.NewAnalyticsHandler(services.Analytics),
		Audit:       httpH.NewAuditHandler(services.Audit),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		TracingEnabled: cfg.OtelEnabled,
		CORSOrigins:    cfg.CORSOrigins,

		AuthHandler:        handlers.Auth,
		AuthMiddleware:     middleware.Auth,
		UserHandler:        handlers.User,
		CatalogHandler:     handlers.Catalog,
		BatchHandler:       handlers.Batch,
		MeasurementHandler: handlers.Measurement,
		AnalyticsHandler:   handlers.Analytics,
		AuditHandler:       handlers.Audit,
		HealthHandler:      handlers.Health,
	})
}

func dbPinger(db *gorm.DB) httpH.Pinger {
	return httpH.PingFunc(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}
