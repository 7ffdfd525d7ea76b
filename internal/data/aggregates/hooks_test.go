package aggregates

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luminex/nursery-backend/internal/observability"
)

func TestObservabilityHooksLabelOperations(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry(), observability.MetricsConfig{Enabled: true})
	hooks := NewObservabilityHooks(m)

	hooks.ObserveOperation(" Nursery.BatchLifecycle.CreateBatch ", "CAPACITY_EXCEEDED", time.Millisecond)
	hooks.IncConflict("Nursery.BatchLifecycle.DeliverBatch")
	hooks.IncRetry("Nursery.CapacityLedger.ReconcileBed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`operation="BatchLifecycle.CreateBatch"`,
		`status="capacity_exceeded"`,
		`operation="BatchLifecycle.DeliverBatch"`,
		`operation="CapacityLedger.ReconcileBed"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in:\n%s", want, body)
		}
	}
	if strings.Contains(body, `operation="Nursery.`) {
		t.Fatalf("namespace should be dropped from labels:\n%s", body)
	}
}

func TestObservabilityHooksNilMetrics(t *testing.T) {
	if _, ok := NewObservabilityHooks(nil).(noopHooks); !ok {
		t.Fatalf("nil metrics should yield noop hooks")
	}
}
