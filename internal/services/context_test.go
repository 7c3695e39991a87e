package services_test

import (
	"context"
	"testing"

	"peaceproc/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "20250101_120000")
	ctx = services.WithWorkflow(ctx, "run_pipeline")
	ctx = services.WithStage(ctx, "intent")
	ctx = services.WithBranch(ctx, "image")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "20250101_120000" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if wf, ok := services.WorkflowFromContext(ctx); !ok || wf != "run_pipeline" {
		t.Fatalf("unexpected workflow: %v %v", wf, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "intent" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if branch, ok := services.BranchFromContext(ctx); !ok || branch != "image" {
		t.Fatalf("unexpected branch: %v %v", branch, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithBranch(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.BranchFromContext(ctx); ok {
		t.Fatal("expected no branch value")
	}
}
