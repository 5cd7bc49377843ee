package testsupport

import (
	"context"
	"testing"

	"omnisync/internal/config"
	"omnisync/internal/runstore"
)

// MustOpenStore opens a runstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *runstore.Store {
	t.Helper()

	store, err := runstore.Open(cfg)
	if err != nil {
		t.Fatalf("runstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRun inserts a running run with the given id.
func NewRun(t testing.TB, store *runstore.Store, id string) *runstore.Run {
	t.Helper()

	run, err := store.Create(context.Background(), runstore.Run{
		ID:         id,
		VideoPath:  "/in/" + id + ".mp4",
		AudioPath:  "/in/" + id + ".wav",
		OutputPath: "/out/" + id + ".mp4",
		FPS:        25,
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return run
}
