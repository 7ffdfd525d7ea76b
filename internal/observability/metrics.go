package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type MetricsConfig struct {
	Enabled        bool
	ServiceName    string
	Environment    string
	ScrapeInterval time.Duration
	// LatencyThreshold marks requests at or under it as good for the API latency SLO.
	LatencyThreshold time.Duration
}

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge
	apiReqGood  prometheus.Counter

	aggregateOps      *prometheus.CounterVec
	aggregateLatency  *prometheus.HistogramVec
	aggregateConflict *prometheus.CounterVec
	aggregateRetry    *prometheus.CounterVec

	cacheResults *prometheus.CounterVec
	auditDropped prometheus.Counter

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge

	scrapeInterval   time.Duration
	latencyThreshold float64
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when metrics are disabled, and
// every Metrics method is a no-op on a nil receiver.
func Init(log *logger.Logger, cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(prometheus.NewRegistry(), cfg)
		if log != nil {
			log.Info("metrics initialized", "service", cfg.ServiceName, "env", cfg.Environment)
		}
	})
	return instance
}

// NewMetrics registers the collectors on registry.
func NewMetrics(registry *prometheus.Registry, cfg MetricsConfig) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	constLabels := prometheus.Labels{
		"service": strings.TrimSpace(cfg.ServiceName),
		"env":     strings.TrimSpace(cfg.Environment),
	}
	if constLabels["service"] == "" {
		constLabels["service"] = "nursery"
	}
	if constLabels["env"] == "" {
		constLabels["env"] = "unknown"
	}

	m := &Metrics{
		registry: registry,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nursery_api_requests_total",
			Help:        "Total API requests by method/route/status.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "nursery_api_request_duration_seconds",
			Help:        "API request latency in seconds by method/route/status.",
			Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "nursery_api_inflight_requests",
			Help:        "In-flight API requests.",
			ConstLabels: constLabels,
		}),
		apiReqGood: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "nursery_api_requests_good_total",
			Help:        "API requests served within the latency threshold.",
			ConstLabels: constLabels,
		}),
		aggregateOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nursery_aggregate_operations_total",
			Help:        "Aggregate write operations by name and outcome code.",
			ConstLabels: constLabels,
		}, []string{"operation", "status"}),
		aggregateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "nursery_aggregate_operation_duration_seconds",
			Help:        "Aggregate write latency in seconds, including the transaction.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			ConstLabels: constLabels,
		}, []string{"operation", "status"}),
		aggregateConflict: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nursery_aggregate_conflicts_total",
			Help:        "Aggregate writes rejected with a conflict.",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		aggregateRetry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nursery_aggregate_retryable_total",
			Help:        "Aggregate writes that failed with a retryable error.",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "nursery_analytics_cache_total",
			Help:        "Analytics cache lookups by endpoint and result (hit|miss|error).",
			ConstLabels: constLabels,
		}, []string{"endpoint", "result"}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "nursery_audit_log_dropped_total",
			Help:        "Audit log entries that failed to persist.",
			ConstLabels: constLabels,
		}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "nursery_db_pool",
			Help:        "database/sql pool statistics.",
			ConstLabels: constLabels,
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "nursery_redis_up",
			Help:        "1 when the last redis ping succeeded.",
			ConstLabels: constLabels,
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "nursery_redis_ping_seconds",
			Help:        "Latency of the last successful redis ping.",
			ConstLabels: constLabels,
		}),
		scrapeInterval:   cfg.ScrapeInterval,
		latencyThreshold: cfg.LatencyThreshold.Seconds(),
	}
	if m.scrapeInterval <= 0 {
		m.scrapeInterval = 10 * time.Second
	}
	if m.latencyThreshold <= 0 {
		m.latencyThreshold = 0.5
	}

	registry.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqGood,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflict, m.aggregateRetry,
		m.cacheResults, m.auditDropped,
		m.dbStats, m.redisUp, m.redisPing,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
	if dur.Seconds() <= m.latencyThreshold {
		m.apiReqGood.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if name == "" {
		name = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.aggregateOps.WithLabelValues(name, status).Inc()
	m.aggregateLatency.WithLabelValues(name, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggregateConflict.WithLabelValues(name).Inc()
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggregateRetry.WithLabelValues(name).Inc()
}

func (m *Metrics) IncCacheResult(endpoint, result string) {
	if m == nil {
		return
	}
	m.cacheResults.WithLabelValues(endpoint, result).Inc()
}

func (m *Metrics) IncAuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

// StartRedisCollector pings rdb on the scrape interval. The client is owned by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
