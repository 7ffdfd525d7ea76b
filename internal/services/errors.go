package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/aggregates"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/platform/ctxutil"
)

func notFound(op, what string) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, what+" not found", nil)
}

func invalid(op, format string, args ...any) error {
	return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf(format, args...), nil)
}

func conflict(op, format string, args ...any) error {
	return domainagg.NewError(domainagg.CodeConflict, op, fmt.Sprintf(format, args...), nil)
}

// mapRepoError turns driver failures from plain repo calls into coded errors.
func mapRepoError(op string, err error) error {
	return aggregates.MapError(op, err)
}

func callerFrom(ctx context.Context) (domainagg.Caller, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return domainagg.Caller{}, domainagg.NewError(domainagg.CodeForbidden, "services.caller", "request is not authenticated", nil)
	}
	return domainagg.Caller{UserID: rd.UserID, Role: types.Role(rd.Role)}, nil
}
