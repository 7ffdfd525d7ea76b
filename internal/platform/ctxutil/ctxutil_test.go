package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	if GetRequestData(context.Background()) != nil {
		t.Fatalf("expected nil request data on bare context")
	}
	id := uuid.New()
	ctx := WithRequestData(context.Background(), &RequestData{UserID: id, Role: "MANAGER"})
	rd := GetRequestData(ctx)
	if rd == nil || rd.UserID != id || rd.Role != "MANAGER" {
		t.Fatalf("unexpected request data: %+v", rd)
	}
}

func TestTraceDataMissing(t *testing.T) {
	if td := GetTraceData(context.Background()); td != nil {
		t.Fatalf("expected nil trace data, got=%+v", td)
	}
}
