package main

import (
	"context"
	"strings"
	"testing"

	"omnisync/internal/runstore"
	"omnisync/internal/testsupport"
)

func TestRunsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestRunsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()

	testsupport.NewRun(t, store, "aaaa1111-done")
	if _, err := store.Finish(ctx, "aaaa1111-done", runstore.Completion{
		Status:      runstore.StatusCompleted,
		Frames:      10,
		Synthesized: 7,
		Passthrough: 3,
	}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	testsupport.NewRun(t, store, "bbbb2222-bad")
	if _, err := store.Finish(ctx, "bbbb2222-bad", runstore.Completion{
		Status:       runstore.StatusRejected,
		ErrorMessage: "video /in/missing.mp4: no such file",
	}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "aaaa1111")
	requireContains(t, out, "bbbb2222")
	requireContains(t, out, "Completed")
	requireContains(t, out, "Rejected")

	out, _, err = runCLI(t, []string{"runs", "list", "--status", "completed"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list --status: %v", err)
	}
	if strings.Contains(out, "bbbb2222") {
		t.Fatalf("status filter leaked rejected run:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"runs", "show", "aaaa"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "aaaa1111-done")
	requireContains(t, out, "Synthesized: 7")
	requireContains(t, out, "Passthrough: 3")

	out, _, err = runCLI(t, []string{"runs", "show", "bbbb2222-bad"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "no such file")
}

func TestRunsListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"runs", "list", "--status", "paused"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "paused") {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}

func TestRunsShowNotFound(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"runs", "show", "nope"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRunsReap(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.NewRun(t, store, "stuck")

	out, _, err := runCLI(t, []string{"runs", "reap"}, env.configPath)
	if err != nil {
		t.Fatalf("runs reap: %v", err)
	}
	requireContains(t, out, "Marked 1 abandoned run(s)")

	run, err := store.Get(context.Background(), "stuck")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Status != runstore.StatusFailed {
		t.Fatalf("expected failed, got %s", run.Status)
	}
}
