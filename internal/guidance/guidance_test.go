package guidance_test

import (
	"errors"
	"math"
	"testing"

	"omnisync/internal/guidance"
	"omnisync/internal/services"
)

func TestWeightMidpointFullPower(t *testing.T) {
	for _, total := range []int{2, 10, 100, 1000} {
		got, err := guidance.Weight(0.7, 1.0, total/2, total)
		if err != nil {
			t.Fatalf("Weight: %v", err)
		}
		if math.Abs(got-0.7) > 1e-9 {
			t.Fatalf("total=%d: weight %v, want 0.7", total, got)
		}
	}
}

func TestWeightEdges(t *testing.T) {
	got, err := guidance.Weight(1, 1, 0, 100)
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	if math.Abs(got-0.85) > 1e-9 {
		t.Fatalf("start weight %v, want 0.85", got)
	}
	got, err = guidance.Weight(1, 1, 100, 100)
	if err != nil {
		t.Fatalf("Weight: %v", err)
	}
	if math.Abs(got-0.85) > 1e-9 {
		t.Fatalf("end weight %v, want 0.85", got)
	}
}

func TestWeightAudioRamp(t *testing.T) {
	tests := []struct {
		power float64
		want  float64
	}{
		{0, 0},
		{0.1, 0.2},
		{0.25, 0.5},
		{0.5, 1},
		{3, 1},
		{-1, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := guidance.AudioFactor(tt.power); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("AudioFactor(%v) = %v, want %v", tt.power, got, tt.want)
		}
	}
}

func TestWeightBounded(t *testing.T) {
	const base = 0.7
	powers := []float64{-5, 0, 0.01, 0.2, 0.49, 0.5, 0.75, 10}
	for _, total := range []int{1, 3, 50} {
		for idx := 0; idx <= total; idx++ {
			for _, p := range powers {
				w, err := guidance.Weight(base, p, idx, total)
				if err != nil {
					t.Fatalf("Weight(%v, %d, %d): %v", p, idx, total, err)
				}
				if w < 0 || w > base {
					t.Fatalf("Weight(%v, %d, %d) = %v outside [0, %v]", p, idx, total, w, base)
				}
			}
		}
	}
}

func TestWeightRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		base  float64
		idx   int
		total int
	}{
		{"zero total", 0.7, 0, 0},
		{"negative total", 0.7, 0, -3},
		{"negative base", -0.1, 0, 10},
		{"negative index", 0.7, -1, 10},
		{"index past end", 0.7, 11, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guidance.Weight(tt.base, 1, tt.idx, tt.total)
			if !errors.Is(err, services.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestSchedulerKeepsConfiguredBase(t *testing.T) {
	tests := []struct {
		base float64
		want float64
	}{
		{0, 0},
		{guidance.DefaultBaseStrength, 0.7},
		{0.4, 0.4},
	}
	for _, tt := range tests {
		s := guidance.NewScheduler(tt.base)
		if s.Base != tt.base {
			t.Fatalf("NewScheduler(%v).Base = %v", tt.base, s.Base)
		}
		w, err := s.Weight(1, 5, 10)
		if err != nil {
			t.Fatalf("Weight: %v", err)
		}
		if math.Abs(w-tt.want) > 1e-9 {
			t.Fatalf("base %v: weight %v, want %v", tt.base, w, tt.want)
		}
	}
}
