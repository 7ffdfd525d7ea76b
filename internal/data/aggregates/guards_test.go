package aggregates

import (
	"testing"

	"github.com/luminex/nursery-backend/internal/domain/nursery"
)

func TestRequireStatusAllowed(t *testing.T) {
	allowed := statusStrings(nursery.StatusCreated, nursery.StatusInProgress)
	if err := RequireStatusAllowed("in_progress", allowed...); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireStatusAllowed(string(nursery.StatusDelivered), allowed...); err == nil {
		t.Fatalf("expected conflict error")
	}
	if err := RequireStatusAllowed("CREATED"); err == nil {
		t.Fatalf("expected validation error for empty allowed set")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}
