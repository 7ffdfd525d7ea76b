package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/batches", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()
	m.ObserveAggregateOperation("Nursery.BatchLifecycle.CreateBatch", "success", time.Millisecond)
	m.IncAggregateConflict("x")
	m.IncAggregateRetry("x")
	m.IncCacheResult("dashboard", "hit")
	m.IncAuditDropped()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil handler status: %d", rec.Code)
	}
}

func TestAggregateOperationCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), MetricsConfig{Enabled: true, ServiceName: "nursery-test"})
	m.ObserveAggregateOperation("Nursery.BatchLifecycle.CreateBatch", "success", 2*time.Millisecond)
	m.ObserveAggregateOperation("Nursery.BatchLifecycle.CreateBatch", "capacity_exceeded", time.Millisecond)
	m.ObserveAggregateOperation("Nursery.BatchLifecycle.CreateBatch", "capacity_exceeded", time.Millisecond)
	m.IncAggregateConflict("Nursery.BatchLifecycle.DeliverBatch")

	if got := testutil.ToFloat64(m.aggregateOps.WithLabelValues("Nursery.BatchLifecycle.CreateBatch", "capacity_exceeded")); got != 2 {
		t.Fatalf("capacity_exceeded count: want=2 got=%v", got)
	}
	if got := testutil.ToFloat64(m.aggregateConflict.WithLabelValues("Nursery.BatchLifecycle.DeliverBatch")); got != 1 {
		t.Fatalf("conflict count: want=1 got=%v", got)
	}
}

func TestHandlerExposesAPIMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), MetricsConfig{Enabled: true, LatencyThreshold: time.Second})
	m.ObserveAPI("POST", "/api/batches", "201", 10*time.Millisecond)
	m.ObserveAPI("POST", "/api/batches", "400", 2*time.Second)

	if got := testutil.ToFloat64(m.apiReqGood); got != 1 {
		t.Fatalf("good requests: want=1 got=%v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `nursery_api_requests_total{env="unknown",method="POST",route="/api/batches",service="nursery",status="201"} 1`) {
		t.Fatalf("metrics output missing api counter:\n%s", body)
	}
}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , broken, =x, team=ops")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "ops" {
		t.Fatalf("ParseHeaders: %v", got)
	}
	if ParseHeaders("  ") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
