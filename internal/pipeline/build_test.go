package pipeline_test

import (
	"os"
	"testing"

	"omnisync/internal/detect"
	"omnisync/internal/fileutil"
	"omnisync/internal/logging"
	"omnisync/internal/pipeline"
	"omnisync/internal/predictor"
	"omnisync/internal/testsupport"
)

func TestNewFromConfigDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen, closeFn, err := pipeline.New(cfg, logging.NewNop(), pipeline.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()

	if _, ok := gen.Locator.(detect.None); !ok {
		t.Fatalf("expected detect.None without a detector url, got %T", gen.Locator)
	}
	if _, ok := gen.Predictor.(predictor.Null); !ok {
		t.Fatalf("expected predictor.Null without a predictor url, got %T", gen.Predictor)
	}
	if gen.Finalizer != nil {
		t.Fatal("finalizer should be disabled by default")
	}
	if gen.Runs == nil || gen.Metrics == nil {
		t.Fatal("expected run store and metrics to be wired")
	}
	if gen.FPS != 25 || gen.Scheduler.Base != 0.7 || gen.GridSize != 64 {
		t.Fatalf("unexpected defaults fps=%v base=%v grid=%d", gen.FPS, gen.Scheduler.Base, gen.GridSize)
	}
	if gen.ModelDigest != "" {
		t.Fatalf("expected no model digest without weights, got %q", gen.ModelDigest)
	}
	if _, err := os.Stat(cfg.RunStorePath()); err != nil {
		t.Fatalf("run store not created: %v", err)
	}
}

func TestNewFromConfigWiresServices(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithDetectorURL("http://127.0.0.1:9/detect"),
		testsupport.WithPredictorURL("http://127.0.0.1:9/infer"),
	)
	cfg.Output.FinalizeAV1 = true
	if err := fileutil.WriteFileAtomic(cfg.Paths.ModelPath, []byte("weights"), 0o644); err != nil {
		t.Fatal(err)
	}

	gen, closeFn, err := pipeline.New(cfg, logging.NewNop(), pipeline.Options{SkipRunStore: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()

	if _, ok := gen.Locator.(*detect.HTTPLocator); !ok {
		t.Fatalf("expected HTTP locator, got %T", gen.Locator)
	}
	if _, ok := gen.Predictor.(*predictor.HTTPClient); !ok {
		t.Fatalf("expected HTTP predictor, got %T", gen.Predictor)
	}
	if gen.Finalizer == nil {
		t.Fatal("expected AV1 finalizer")
	}
	if gen.Runs != nil {
		t.Fatal("run store should be skipped")
	}
	if gen.ModelDigest != fileutil.Digest([]byte("weights")) {
		t.Fatalf("unexpected model digest %q", gen.ModelDigest)
	}
}
