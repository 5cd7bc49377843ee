package model

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"omnisync/internal/fileutil"
	"omnisync/internal/services"
)

func TestFileRepositorySaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights", "lipsync.bin")
	repo := FileRepository{}

	data := []byte{0x01, 0x02, 0x03, 0xff}
	if err := repo.Save(Weights{Data: data}, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	w, err := repo.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w.Path != path || string(w.Data) != string(data) {
		t.Fatalf("unexpected weights %+v", w)
	}
	if w.Digest != fileutil.Digest(data) {
		t.Fatalf("digest mismatch: %s", w.Digest)
	}
}

func TestFileRepositoryLoadMissing(t *testing.T) {
	_, err := FileRepository{}.Load(filepath.Join(t.TempDir(), "absent.bin"))
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if _, err := (FileRepository{}).Load("  "); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestLoadIfPresent(t *testing.T) {
	dir := t.TempDir()
	repo := FileRepository{}

	if _, ok, err := LoadIfPresent(repo, ""); ok || err != nil {
		t.Fatalf("empty path: ok=%v err=%v", ok, err)
	}
	if _, ok, err := LoadIfPresent(repo, filepath.Join(dir, "missing.bin")); ok || err != nil {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}
	path := filepath.Join(dir, "present.bin")
	if err := os.WriteFile(path, []byte("w"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, ok, err := LoadIfPresent(repo, path)
	if err != nil || !ok {
		t.Fatalf("present file: ok=%v err=%v", ok, err)
	}
	if string(w.Data) != "w" {
		t.Fatalf("unexpected data %q", w.Data)
	}
}

type stubOptimizer struct{}

func (stubOptimizer) Step(context.Context, []float32, []float32) error { return nil }

type stubLoss struct{}

func (stubLoss) Compute([]float32, []float32) (float64, error) { return 0, nil }

func TestScaffoldTrainer(t *testing.T) {
	tests := []struct {
		name    string
		trainer ScaffoldTrainer
		req     TrainRequest
		want    error
	}{
		{name: "missing data", trainer: ScaffoldTrainer{Optimizer: stubOptimizer{}, Loss: stubLoss{}}, req: TrainRequest{Epochs: 1}, want: services.ErrInvalidArgument},
		{name: "zero epochs", trainer: ScaffoldTrainer{Optimizer: stubOptimizer{}, Loss: stubLoss{}}, req: TrainRequest{DataPath: "d"}, want: services.ErrInvalidArgument},
		{name: "no optimizer", trainer: ScaffoldTrainer{Loss: stubLoss{}}, req: TrainRequest{DataPath: "d", Epochs: 1}, want: services.ErrConfiguration},
		{name: "valid", trainer: ScaffoldTrainer{Optimizer: stubOptimizer{}, Loss: stubLoss{}}, req: TrainRequest{DataPath: "d", Epochs: 3}, want: services.ErrNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.trainer.Train(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAdamStep(t *testing.T) {
	opt := NewAdam(0.5)
	params := []float32{1, 2}
	if err := opt.Step(context.Background(), params, []float32{2, -2}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	// The first bias-corrected step moves each parameter by lr * sign(grad).
	if math.Abs(float64(params[0])-0.5) > 1e-6 || math.Abs(float64(params[1])-2.5) > 1e-6 {
		t.Fatalf("unexpected params %v", params)
	}
	if err := opt.Step(context.Background(), params, []float32{1}); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if NewAdam(0).LearningRate != DefaultLearningRate {
		t.Fatal("expected default learning rate")
	}
}

func TestMSECompute(t *testing.T) {
	got, err := MSE{}.Compute([]float32{1, 2, 3}, []float32{1, 0, 4})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if math.Abs(got-5.0/3.0) > 1e-12 {
		t.Fatalf("expected 5/3, got %v", got)
	}
	if _, err := (MSE{}).Compute([]float32{1}, nil); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
