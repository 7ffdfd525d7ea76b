package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/platform/ctxutil"
)

func TestAttachTraceContextRequestIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		header string
		keep   bool
	}{
		{"client id kept", "batch-sync.42_a", true},
		{"blank generated", "   ", false},
		{"newline rejected", "abc\nlevel=error", false},
		{"spaces rejected", "abc def", false},
		{"too long rejected", strings.Repeat("a", maxInboundIDLength+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen *ctxutil.TraceData
			r := gin.New()
			r.Use(AttachTraceContext())
			r.GET("/api/batches", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/batches", nil)
			req.Header.Set(headerRequestID, tc.header)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get(headerRequestID)
			if seen == nil || seen.RequestID != got {
				t.Fatalf("context and header disagree: ctx=%+v header=%q", seen, got)
			}
			if tc.keep {
				if got != tc.header {
					t.Fatalf("request id: want=%q got=%q", tc.header, got)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated uuid, got %q", got)
			}
			if seen.TraceID == "" || rec.Header().Get(headerTraceID) != seen.TraceID {
				t.Fatalf("trace id missing: %+v", seen)
			}
		})
	}
}
