package services_test

import (
	"context"
	"net/http"
	"testing"

	"omnisync/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStage(ctx, "orchestrate")
	ctx = services.WithFrameIndex(ctx, 7)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "orchestrate" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if idx, ok := services.FrameIndexFromContext(ctx); !ok || idx != 7 {
		t.Fatalf("unexpected frame index: %v %v", idx, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.FrameIndexFromContext(ctx); ok {
		t.Fatal("expected no frame index value")
	}
}

func TestSetRequestHeader(t *testing.T) {
	h := http.Header{}
	services.SetRequestHeader(context.Background(), h)
	if got := h.Get(services.RequestIDHeader); got != "" {
		t.Fatalf("expected no header, got %q", got)
	}
	services.SetRequestHeader(services.WithRequestID(context.Background(), "run-1/3"), h)
	if got := h.Get(services.RequestIDHeader); got != "run-1/3" {
		t.Fatalf("unexpected header %q", got)
	}
}
