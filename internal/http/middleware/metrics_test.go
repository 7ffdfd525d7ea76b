package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luminex/nursery-backend/internal/observability"
)

func TestMetricsLabelsRouteTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics(prometheus.NewRegistry(), observability.MetricsConfig{Enabled: true})

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/batches/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/healthcheck", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{
		"/api/batches/8f9c0f4e-1111-4a4a-9b9b-000000000001",
		"/api/batches/8f9c0f4e-1111-4a4a-9b9b-000000000002",
		"/wp-login.php",
		"/healthcheck",
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	if !strings.Contains(body, `route="/api/batches/:id"`) {
		t.Fatalf("expected template label:\n%s", body)
	}
	if strings.Contains(body, "8f9c0f4e") || strings.Contains(body, "wp-login") {
		t.Fatalf("raw paths leaked into labels:\n%s", body)
	}
	if !strings.Contains(body, `route="unmatched"`) {
		t.Fatalf("expected unmatched label:\n%s", body)
	}
	if strings.Contains(body, `route="/healthcheck"`) {
		t.Fatalf("healthcheck should not be metered:\n%s", body)
	}
}

func TestMetricsNilIsPassthrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/api/zones", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zones", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status: %d", rec.Code)
	}
}
