package aggregates

import (
	"strings"
	"time"

	"github.com/luminex/nursery-backend/internal/observability"
)

// operationNamespace prefixes every aggregate op name; it is dropped from metric labels.
const operationNamespace = "Nursery."

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type observabilityHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports lifecycle, ledger and measurement writes to the metrics
// registry, labelled as Aggregate.Operation (BatchLifecycle.CreateBatch).
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &observabilityHooks{metrics: metrics}
}

func (h *observabilityHooks) ObserveOperation(name, status string, dur time.Duration) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.ObserveAggregateOperation(operationLabel(name), strings.ToLower(strings.TrimSpace(status)), dur)
}

func (h *observabilityHooks) IncConflict(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncAggregateConflict(operationLabel(name))
}

func (h *observabilityHooks) IncRetry(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncAggregateRetry(operationLabel(name))
}

func operationLabel(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), operationNamespace)
}
