package runstore_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"omnisync/internal/runstore"
	"omnisync/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	run := testsupport.NewRun(t, store, "0f8fad5b-d9cb-469f-a165-70867728950e")
	if run.Status != runstore.StatusRunning {
		t.Fatalf("expected running, got %s", run.Status)
	}
	if run.StartedAt.IsZero() || run.FinishedAt != nil {
		t.Fatalf("unexpected timestamps: %+v", run)
	}
	if run.FPS != 25 || run.VideoPath == "" {
		t.Fatalf("unexpected run %+v", run)
	}
	if store.Path() != cfg.RunStorePath() {
		t.Fatalf("expected store under work dir, got %s", store.Path())
	}

	byPrefix, err := store.Get(context.Background(), "0f8fad5b")
	if err != nil {
		t.Fatalf("Get by prefix: %v", err)
	}
	if byPrefix.ID != run.ID {
		t.Fatalf("prefix lookup returned %s", byPrefix.ID)
	}
}

func TestGetMissingAndAmbiguous(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, runstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	testsupport.NewRun(t, store, "abc-1")
	testsupport.NewRun(t, store, "abc-2")
	if _, err := store.Get(ctx, "abc"); !errors.Is(err, runstore.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	run, err := store.Get(ctx, "abc-2")
	if err != nil || run.ID != "abc-2" {
		t.Fatalf("exact lookup failed: %v %+v", err, run)
	}
	if _, err := store.Get(ctx, "abc_"); !errors.Is(err, runstore.ErrNotFound) {
		t.Fatalf("underscore should not act as a wildcard, got %v", err)
	}
}

func TestFinish(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	run := testsupport.NewRun(t, store, "run-1")

	done, err := store.Finish(ctx, run.ID, runstore.Completion{
		Status:      runstore.StatusCompleted,
		FinalPath:   "/out/run-1.mkv",
		Frames:      100,
		Synthesized: 60,
		Passthrough: 40,
	})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if done.Status != runstore.StatusCompleted || done.Frames != 100 || done.Synthesized != 60 || done.Passthrough != 40 {
		t.Fatalf("unexpected finished run %+v", done)
	}
	if done.FinalPath != "/out/run-1.mkv" || done.FinishedAt == nil {
		t.Fatalf("expected final path and finish time, got %+v", done)
	}
	if done.Duration() < 0 {
		t.Fatalf("negative duration %v", done.Duration())
	}

	if _, err := store.Finish(ctx, run.ID, runstore.Completion{Status: runstore.StatusFailed}); !errors.Is(err, runstore.ErrNotFound) {
		t.Fatalf("finishing twice should fail with ErrNotFound, got %v", err)
	}
	if _, err := store.Finish(ctx, "other", runstore.Completion{Status: runstore.StatusRunning}); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestListOrderAndFilter(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if _, err := store.Create(ctx, runstore.Run{ID: id, VideoPath: "v", AudioPath: "a", OutputPath: "o", StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if _, err := store.Finish(ctx, "b", runstore.Completion{Status: runstore.StatusFailed, ErrorMessage: "boom"}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("unexpected order: %v", ids(all))
	}

	limited, err := store.List(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("limit not applied: %v %v", ids(limited), err)
	}

	failed, err := store.List(ctx, 0, runstore.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != "b" || failed[0].ErrorMessage != "boom" {
		t.Fatalf("unexpected filtered runs %v", ids(failed))
	}
}

func TestMarkAbandoned(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.NewRun(t, store, "stuck")
	done := testsupport.NewRun(t, store, "done")
	if _, err := store.Finish(ctx, done.ID, runstore.Completion{Status: runstore.StatusCompleted}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	n, err := store.MarkAbandoned(ctx)
	if err != nil {
		t.Fatalf("MarkAbandoned: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 abandoned run, got %d", n)
	}
	stuck, err := store.Get(ctx, "stuck")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stuck.Status != runstore.StatusFailed || stuck.FinishedAt == nil {
		t.Fatalf("unexpected abandoned run %+v", stuck)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := runstore.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := runstore.OpenPath(path); !errors.Is(err, runstore.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	if runstore.StatusRunning.Terminal() {
		t.Fatal("running should not be terminal")
	}
	for _, s := range []runstore.Status{runstore.StatusCompleted, runstore.StatusFailed, runstore.StatusRejected} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}

func ids(runs []*runstore.Run) []string {
	out := make([]string, 0, len(runs))
	for _, r := range runs {
		out = append(out, r.ID)
	}
	return out
}
