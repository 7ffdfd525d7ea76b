package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/platform/ctxutil"
	"github.com/luminex/nursery-backend/internal/platform/logger"
	"github.com/luminex/nursery-backend/internal/services"
)

// stubAuth accepts tokens of the form "role:<ROLE>".
type stubAuth struct{}

func (stubAuth) Login(context.Context, string, string) (string, *types.User, error) {
	return "", nil, services.ErrInvalidCredentials
}

func (stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	const prefix = "role:"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return ctx, services.ErrInvalidToken
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: uuid.New(), Role: token[len(prefix):]}), nil
}

func (stubAuth) GetAccessTTL() time.Duration { return time.Hour }

func TestRequireAuthAndRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), stubAuth{})
	r := gin.New()
	r.GET("/open", am.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/managers", am.RequireAuth(), RequireRole(types.RoleSuperAdmin, types.RoleManager), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cases := []struct {
		path, header string
		want         int
	}{
		{"/open", "", http.StatusUnauthorized},
		{"/open", "Basic abc", http.StatusUnauthorized},
		{"/open", "Bearer garbage", http.StatusUnauthorized},
		{"/open", "Bearer role:FIELD_OFFICER", http.StatusOK},
		{"/managers", "Bearer role:FIELD_OFFICER", http.StatusForbidden},
		{"/managers", "bearer role:MANAGER", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %q: status=%d want=%d", tc.path, tc.header, rec.Code, tc.want)
		}
	}
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRole(types.RoleSuperAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", rec.Code)
	}
}
