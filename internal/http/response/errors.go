package response

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/platform/apierr"
	"github.com/luminex/nursery-backend/internal/services"
)

var exposeInternal atomic.Bool

// ExposeInternalErrors controls whether 500 responses carry the raw error text.
func ExposeInternalErrors(v bool) { exposeInternal.Store(v) }

// FromError classifies err into a transport error.
func FromError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrInvalidToken) {
		return apierr.Unauthorized(err)
	}
	var de *domainagg.Error
	if !errors.As(err, &de) {
		return apierr.Internal(err)
	}
	code := string(de.Code)
	switch de.Code {
	case domainagg.CodeNotFound:
		return apierr.NotFound(code, err)
	case domainagg.CodeForbidden:
		return apierr.New(http.StatusForbidden, code, err)
	case domainagg.CodeRetryable:
		return apierr.New(http.StatusServiceUnavailable, code, err)
	case domainagg.CodeInternal, domainagg.CodeInvariantViolation:
		return apierr.New(http.StatusInternalServerError, code, err)
	default:
		return apierr.BadRequest(code, err)
	}
}

// RespondErr writes err using the domain code to pick the status.
func RespondErr(c *gin.Context, err error) {
	ae := FromError(err)
	_ = c.Error(err)
	if ae.Status >= http.StatusInternalServerError && !exposeInternal.Load() {
		RespondError(c, ae.Status, ae.Code, errors.New("internal server error"))
		return
	}
	var de *domainagg.Error
	if errors.As(err, &de) && de.Message != "" {
		RespondError(c, ae.Status, ae.Code, errors.New(de.Message))
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}
