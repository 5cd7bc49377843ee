package lipsync_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"testing"

	"omnisync/internal/features"
	"omnisync/internal/guidance"
	"omnisync/internal/lipsync"
	"omnisync/internal/logging"
	"omnisync/internal/region"
	"omnisync/internal/services"
)

type scriptedLocator struct {
	boxes map[int]region.BBox
	err   map[int]error
	calls int
	seen  []*image.RGBA
}

func (l *scriptedLocator) Detect(_ context.Context, frame *image.RGBA) (region.BBox, bool, error) {
	idx := l.calls
	l.calls++
	l.seen = append(l.seen, frame)
	if err := l.err[idx]; err != nil {
		return region.BBox{}, false, err
	}
	box, ok := l.boxes[idx]
	return box, ok, nil
}

type recordingPredictor struct {
	mu       sync.Mutex
	requests []lipsync.SynthesisRequest
	ids      []string
	err      error
}

func (p *recordingPredictor) Infer(ctx context.Context, req lipsync.SynthesisRequest) (lipsync.SynthesisResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	id, _ := services.RequestIDFromContext(ctx)
	p.ids = append(p.ids, id)
	if p.err != nil {
		return lipsync.SynthesisResult{}, p.err
	}
	out := make([]float32, len(req.Visual.Data))
	for i := range out {
		out[i] = 1
	}
	return lipsync.SynthesisResult{Output: out}, nil
}

type outcomeRecorder struct {
	outcomes []lipsync.Outcome
}

func (r *outcomeRecorder) FrameEmitted(_ context.Context, o lipsync.Outcome) {
	r.outcomes = append(r.outcomes, o)
}

func makeFrames(n, w, h int) []*image.RGBA {
	frames := make([]*image.RGBA, n)
	for i := range frames {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for p := range img.Pix {
			img.Pix[p] = byte(i*31 + p)
		}
		frames[i] = img
	}
	return frames
}

func makeTrack(t *testing.T, frames, cols int, value float64) features.AlignedTrack {
	t.Helper()
	rows := make([][]float64, 4)
	for b := range rows {
		rows[b] = make([]float64, cols)
		for c := range rows[b] {
			rows[b][c] = value
		}
	}
	m, err := features.NewMatrix(rows, 1)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	track, err := features.Align(m, frames)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	return track
}

func snapshot(frames []*image.RGBA) [][]byte {
	out := make([][]byte, len(frames))
	for i, f := range frames {
		out[i] = append([]byte(nil), f.Pix...)
	}
	return out
}

func TestRunPassthroughWhenNoFace(t *testing.T) {
	frames := makeFrames(5, 32, 32)
	before := snapshot(frames)
	locator := &scriptedLocator{}
	predictor := &recordingPredictor{}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: predictor, Scheduler: guidance.NewScheduler(0.7), Logger: logging.NewNop()}

	res, err := orch.Run(context.Background(), frames, makeTrack(t, 5, 10, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(res.Frames))
	}
	for i, out := range res.Frames {
		if out != frames[i] {
			t.Fatalf("frame %d: expected input frame to be emitted", i)
		}
		if !bytes.Equal(out.Pix, before[i]) {
			t.Fatalf("frame %d: bytes changed", i)
		}
		o := res.Outcomes[i]
		if o.Branch != lipsync.BranchPassthrough || o.Reason != lipsync.ReasonNoFace {
			t.Fatalf("frame %d: unexpected outcome %+v", i, o)
		}
	}
	if locator.calls != 5 {
		t.Fatalf("expected one detect per frame, got %d", locator.calls)
	}
	if len(predictor.requests) != 0 {
		t.Fatalf("predictor should not run without a face, got %d calls", len(predictor.requests))
	}
}

func TestRunDiscardsPredictorOutput(t *testing.T) {
	frames := makeFrames(4, 100, 100)
	before := snapshot(frames)
	box := region.BBox{X: 10, Y: 10, W: 80, H: 80}
	locator := &scriptedLocator{boxes: map[int]region.BBox{0: box, 2: box}}
	predictor := &recordingPredictor{}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: predictor, Scheduler: guidance.NewScheduler(0.7)}

	res, err := orch.Run(context.Background(), frames, makeTrack(t, 4, 8, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, out := range res.Frames {
		if out != frames[i] || !bytes.Equal(out.Pix, before[i]) {
			t.Fatalf("frame %d was not emitted unchanged", i)
		}
	}
	wantBranches := []lipsync.Branch{lipsync.BranchSynthesized, lipsync.BranchPassthrough, lipsync.BranchSynthesized, lipsync.BranchPassthrough}
	for i, want := range wantBranches {
		if res.Outcomes[i].Branch != want {
			t.Fatalf("frame %d branch %s, want %s", i, res.Outcomes[i].Branch, want)
		}
		if res.Outcomes[i].Index != i {
			t.Fatalf("outcome %d has index %d", i, res.Outcomes[i].Index)
		}
	}
	if res.Outcomes[0].ResultSize != 3*64*64 {
		t.Fatalf("unexpected result size %d", res.Outcomes[0].ResultSize)
	}
	summary := res.Summary()
	if summary.Frames != 4 || summary.Synthesized != 2 || summary.Passthrough != 2 || summary.Reasons[lipsync.ReasonNoFace] != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunBuildsSynthesisRequest(t *testing.T) {
	frames := makeFrames(3, 64, 64)
	box := region.BBox{X: 0, Y: 0, W: 64, H: 64}
	locator := &scriptedLocator{boxes: map[int]region.BBox{0: box, 1: box, 2: box}}
	predictor := &recordingPredictor{}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: predictor, Scheduler: guidance.NewScheduler(0.7), GridSize: 16}

	track := makeTrack(t, 3, 3, 0.5)
	if _, err := orch.Run(context.Background(), frames, track); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(predictor.requests) != 3 {
		t.Fatalf("expected 3 predictor calls, got %d", len(predictor.requests))
	}
	for i, req := range predictor.requests {
		if req.FrameIndex != i {
			t.Fatalf("request %d has frame index %d", i, req.FrameIndex)
		}
		if req.Visual.C != 3 || req.Visual.H != 16 || req.Visual.W != 16 || len(req.Visual.Data) != 3*16*16 {
			t.Fatalf("unexpected visual tensor shape %dx%dx%d", req.Visual.C, req.Visual.H, req.Visual.W)
		}
		if len(req.Audio) != 4 || req.Audio[0] != 0.5 {
			t.Fatalf("unexpected audio vector %v", req.Audio)
		}
		want, err := guidance.Weight(0.7, 0.25, i, 3)
		if err != nil {
			t.Fatalf("Weight: %v", err)
		}
		if math.Abs(req.Guidance-want) > 1e-12 {
			t.Fatalf("request %d guidance %v, want %v", i, req.Guidance, want)
		}
		if req.Guidance < 0 || req.Guidance > 0.7 {
			t.Fatalf("guidance out of bounds: %v", req.Guidance)
		}
	}
}

func TestRunEmptyRegionPassesThrough(t *testing.T) {
	frames := makeFrames(2, 50, 50)
	locator := &scriptedLocator{boxes: map[int]region.BBox{0: {X: 500, Y: 500, W: 40, H: 40}}}
	predictor := &recordingPredictor{}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: predictor, Scheduler: guidance.NewScheduler(0.7)}

	res, err := orch.Run(context.Background(), frames, makeTrack(t, 2, 2, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Outcomes[0].Branch != lipsync.BranchPassthrough || res.Outcomes[0].Reason != lipsync.ReasonEmptyRegion {
		t.Fatalf("unexpected outcome %+v", res.Outcomes[0])
	}
	if res.Frames[0] != frames[0] {
		t.Fatal("expected original frame")
	}
	if len(predictor.requests) != 0 {
		t.Fatal("predictor should not run for an empty region")
	}
	if res.Summary().Reasons[lipsync.ReasonEmptyRegion] != 1 {
		t.Fatalf("unexpected reasons %v", res.Summary().Reasons)
	}
}

func TestRunLocatorErrorIsFatal(t *testing.T) {
	boom := errors.New("detector offline")
	locator := &scriptedLocator{err: map[int]error{1: boom}}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: &recordingPredictor{}, Scheduler: guidance.NewScheduler(0.7)}

	_, err := orch.Run(context.Background(), makeFrames(3, 8, 8), makeTrack(t, 3, 3, 1))
	if !errors.Is(err, boom) || !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected wrapped detector error, got %v", err)
	}
	if locator.calls != 2 {
		t.Fatalf("run should stop at the failing frame, got %d calls", locator.calls)
	}
}

func TestRunPredictorErrorIsFatal(t *testing.T) {
	boom := errors.New("inference failed")
	box := region.BBox{X: 0, Y: 0, W: 32, H: 32}
	locator := &scriptedLocator{boxes: map[int]region.BBox{0: box}}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: &recordingPredictor{err: boom}, Scheduler: guidance.NewScheduler(0.7)}

	_, err := orch.Run(context.Background(), makeFrames(2, 32, 32), makeTrack(t, 2, 2, 1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected predictor error, got %v", err)
	}
}

func TestRunRejectsMismatchedTrack(t *testing.T) {
	orch := &lipsync.Orchestrator{Locator: &scriptedLocator{}, Predictor: &recordingPredictor{}, Scheduler: guidance.NewScheduler(0.7)}
	_, err := orch.Run(context.Background(), makeFrames(3, 8, 8), makeTrack(t, 2, 2, 1))
	if !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRunRequiresCapabilities(t *testing.T) {
	orch := &lipsync.Orchestrator{Predictor: &recordingPredictor{}}
	if _, err := orch.Run(context.Background(), nil, features.AlignedTrack{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	locator := &scriptedLocator{}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: &recordingPredictor{}, Scheduler: guidance.NewScheduler(0.7)}
	if _, err := orch.Run(ctx, makeFrames(2, 8, 8), makeTrack(t, 2, 2, 1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if locator.calls != 0 {
		t.Fatalf("no frame should be processed after cancellation, got %d", locator.calls)
	}
}

func TestRunEmptyInput(t *testing.T) {
	orch := &lipsync.Orchestrator{Locator: &scriptedLocator{}, Predictor: &recordingPredictor{}, Scheduler: guidance.NewScheduler(0.7)}
	res, err := orch.Run(context.Background(), nil, features.AlignedTrack{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Frames) != 0 || res.Summary().Frames != 0 {
		t.Fatalf("expected empty result, got %+v", res.Summary())
	}
}

func TestRunNotifiesObserverInOrder(t *testing.T) {
	rec := &outcomeRecorder{}
	frames := makeFrames(6, 16, 16)
	locator := &scriptedLocator{}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: &recordingPredictor{}, Scheduler: guidance.NewScheduler(0.7), Observer: rec}
	if _, err := orch.Run(context.Background(), frames, makeTrack(t, 6, 3, 1)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.outcomes) != 6 {
		t.Fatalf("expected 6 observer calls, got %d", len(rec.outcomes))
	}
	for i, o := range rec.outcomes {
		if o.Index != i {
			t.Fatalf("observer call %d has index %d", i, o.Index)
		}
		if locator.seen[i] != frames[i] {
			t.Fatalf("locator saw frame out of order at %d", i)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := map[lipsync.State]string{
		lipsync.StateDetecting:    "detecting",
		lipsync.StatePassthrough:  "passthrough",
		lipsync.StateSynthesizing: "synthesizing",
		lipsync.StateEmitted:      "emitted",
		lipsync.State(42):         "unknown",
	}
	for state, want := range tests {
		if state.String() != want {
			t.Fatalf("State(%d).String() = %q, want %q", int(state), state.String(), want)
		}
	}
}

func TestRunTagsRequestsWithRunID(t *testing.T) {
	frames := makeFrames(2, 32, 32)
	box := region.BBox{X: 0, Y: 0, W: 32, H: 32}
	locator := &scriptedLocator{boxes: map[int]region.BBox{0: box, 1: box}}
	predictor := &recordingPredictor{}
	orch := &lipsync.Orchestrator{Locator: locator, Predictor: predictor, Scheduler: guidance.NewScheduler(0.7), GridSize: 8}

	ctx := services.WithRunID(context.Background(), "run-5")
	if _, err := orch.Run(ctx, frames, makeTrack(t, 2, 4, 1)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(predictor.ids) != 2 || predictor.ids[0] != "run-5/0" || predictor.ids[1] != "run-5/1" {
		t.Fatalf("unexpected request ids %v", predictor.ids)
	}
}
