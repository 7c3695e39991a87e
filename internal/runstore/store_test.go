package runstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"peaceproc/internal/runstore"
	"peaceproc/internal/testsupport"
)

func TestBeginTransitionFinish(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()

	run, err := store.Begin(ctx, runstore.Run{
		Workflow:       "run_pipeline",
		UserPrompt:     "I need to relax",
		EmotionalState: "stressed",
		State:          "INTENT_PENDING",
	})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if run.ID == "" || run.Status != runstore.StatusRunning {
		t.Fatalf("unexpected run %#v", run)
	}

	for _, state := range []string{"INTENT_DONE", "ALL_BRANCHES_DONE", "DONE"} {
		if err := store.Transition(ctx, run.ID, state); err != nil {
			t.Fatalf("Transition %s: %v", state, err)
		}
	}

	run.State = "DONE"
	run.Status = runstore.StatusCompleted
	run.SessionID = "20250101_120000"
	run.IntentKind = "parsed"
	run.MusicType = "ambient"
	run.ArtifactPath = "/out/final_video.mp4"
	run.Placeholder = true
	if err := store.Finish(ctx, run); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	fetched, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Status != runstore.StatusCompleted || fetched.State != "DONE" || !fetched.Placeholder {
		t.Fatalf("unexpected fetched run %#v", fetched)
	}
	if fetched.UserPrompt != "I need to relax" || fetched.SessionID != "20250101_120000" {
		t.Fatalf("fields not persisted: %#v", fetched)
	}
	if fetched.FinishedAt.IsZero() || fetched.Duration() < 0 {
		t.Fatalf("expected finished timestamp, got %v", fetched.FinishedAt)
	}

	transitions, err := store.Transitions(ctx, run.ID)
	if err != nil {
		t.Fatalf("Transitions: %v", err)
	}
	if len(transitions) != 3 || transitions[0].State != "INTENT_DONE" || transitions[2].State != "DONE" {
		t.Fatalf("unexpected transitions %#v", transitions)
	}
}

func TestListNewestFirstWithStatusFilter(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var ids []string
	for _, workflow := range []string{"generate_text_only", "generate_image_only", "run_pipeline"} {
		run, err := store.Begin(ctx, runstore.Run{Workflow: workflow, State: "INTENT_PENDING"})
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		ids = append(ids, run.ID)
	}
	failed := &runstore.Run{ID: ids[1], State: "FAILED", Status: runstore.StatusFailed, ErrorMessage: "boom", ErrorKind: "upstream"}
	if err := store.Finish(ctx, failed); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	all, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("expected newest first, got %#v", all)
	}

	onlyFailed, err := store.List(ctx, 10, runstore.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(onlyFailed) != 1 || onlyFailed[0].ErrorKind != "upstream" {
		t.Fatalf("unexpected failed runs %#v", onlyFailed)
	}
}

func TestMarkAbandoned(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()
	run, err := store.Begin(ctx, runstore.Run{Workflow: "run_pipeline", State: "VIDEO_PENDING"})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	count, err := store.MarkAbandoned(ctx)
	if err != nil || count != 1 {
		t.Fatalf("MarkAbandoned = %d, %v", count, err)
	}
	fetched, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Status != runstore.StatusFailed {
		t.Fatalf("expected failed, got %s", fetched.Status)
	}
}

func TestUnknownRun(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, runstore.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.Transition(ctx, "missing", "DONE"); !errors.Is(err, runstore.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := runstore.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	run, err := store.Begin(context.Background(), runstore.Run{Workflow: "run_pipeline", State: "INTENT_PENDING"})
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := runstore.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), run.ID); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}
