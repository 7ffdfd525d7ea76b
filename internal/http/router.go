package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/luminex/nursery-backend/internal/domain"
	httpH "github.com/luminex/nursery-backend/internal/http/handlers"
	httpMW "github.com/luminex/nursery-backend/internal/http/middleware"
	"github.com/luminex/nursery-backend/internal/observability"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthHandler        *httpH.AuthHandler
	AuthMiddleware     *httpMW.AuthMiddleware
	UserHandler        *httpH.UserHandler
	CatalogHandler     *httpH.CatalogHandler
	BatchHandler       *httpH.BatchHandler
	MeasurementHandler *httpH.MeasurementHandler
	AnalyticsHandler   *httpH.AnalyticsHandler
	AuditHandler       *httpH.AuditHandler

	HealthHandler *httpH.HealthHandler
}

var (
	adminOnly    = httpMW.RequireRole(types.RoleSuperAdmin)
	managers     = httpMW.RequireRole(types.RoleSuperAdmin, types.RoleManager)
	fieldWorkers = httpMW.RequireRole(types.RoleSuperAdmin, types.RoleManager, types.RoleFieldOfficer)
)

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/auth/profile", cfg.AuthHandler.Profile)
		}

		// Users
		if cfg.UserHandler != nil {
			protected.GET("/users", managers, cfg.UserHandler.List)
			protected.POST("/users", adminOnly, cfg.UserHandler.Create)
		}

		// Species, zones and beds
		if h := cfg.CatalogHandler; h != nil {
			protected.GET("/species", h.ListSpecies)
			protected.GET("/species/:id", h.GetSpecies)
			protected.POST("/species", managers, h.CreateSpecies)
			protected.PUT("/species/:id", managers, h.UpdateSpecies)
			protected.DELETE("/species/:id", adminOnly, h.DeleteSpecies)

			protected.GET("/zones", h.ListZones)
			protected.GET("/zones/:id", h.GetZone)
			protected.GET("/zones/:id/beds", h.ListBeds)
			protected.POST("/zones", managers, h.CreateZone)
			protected.PUT("/zones/:id", managers, h.UpdateZone)
			protected.DELETE("/zones/:id", adminOnly, h.DeleteZone)
			protected.POST("/zones/:id/beds", managers, h.CreateBed)
			protected.PUT("/beds/:id", managers, h.UpdateBed)
			protected.DELETE("/beds/:id", adminOnly, h.DeleteBed)
			protected.POST("/beds/:id/reconcile", adminOnly, h.ReconcileBed)
		}

		// Batches
		if h := cfg.BatchHandler; h != nil {
			protected.GET("/batches", h.List)
			protected.GET("/batches/next-number", h.NextNumber)
			protected.GET("/batches/:id", h.Get)
			protected.GET("/batches/:id/history", h.History)
			protected.GET("/batches/:id/readiness", h.Readiness)
			protected.POST("/batches", fieldWorkers, h.Create)
			protected.PUT("/batches/:id", fieldWorkers, h.Update)
			protected.POST("/batches/:id/stage", fieldWorkers, h.UpdateStage)
			protected.POST("/batches/:id/loss", fieldWorkers, h.RecordLoss)
			protected.POST("/batches/:id/ready", managers, h.MarkReady)
			protected.POST("/batches/:id/deliver", managers, h.Deliver)
			protected.POST("/batches/:id/cancel", managers, h.Cancel)
			protected.POST("/batches/:id/move", managers, h.Move)
			protected.DELETE("/batches/:id", managers, h.Delete)
		}

		// Measurements
		if h := cfg.MeasurementHandler; h != nil {
			protected.GET("/measurements", h.List)
			protected.GET("/measurements/ranges", h.Ranges)
			protected.GET("/measurements/batch/:batchId", h.ListByBatch)
			protected.GET("/measurements/:id", h.Get)
			protected.POST("/measurements", fieldWorkers, h.Create)
			protected.POST("/measurements/range", fieldWorkers, h.CreateRange)
			protected.PUT("/measurements/:id", fieldWorkers, h.Update)
			protected.DELETE("/measurements/:id", fieldWorkers, h.Delete)
		}

		// Analytics
		if h := cfg.AnalyticsHandler; h != nil {
			protected.GET("/analytics/dashboard", h.Dashboard)
			protected.GET("/analytics/zones", managers, h.Zones)
			protected.GET("/analytics/species", managers, h.Species)
			protected.GET("/analytics/stages", managers, h.Stages)
			protected.GET("/analytics/growth", managers, h.Growth)
			protected.GET("/analytics/production", managers, h.Production)
		}

		// Audit
		if cfg.AuditHandler != nil {
			protected.GET("/audit-logs", adminOnly, cfg.AuditHandler.List)
		}
	}

	return r
}
