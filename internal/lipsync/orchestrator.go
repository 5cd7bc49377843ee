package lipsync

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"omnisync/internal/features"
	"omnisync/internal/guidance"
	"omnisync/internal/logging"
	"omnisync/internal/region"
	"omnisync/internal/services"
)

// DefaultGridSize is the edge length of the visual tensor sent to the predictor.
const DefaultGridSize = 64

// Orchestrator drives the per-frame detect, crop, guide, and infer loop.
//
// The predictor output is not composited: every frame is emitted exactly as
// it was received, and the outcome records which branch produced it.
type Orchestrator struct {
	Locator   FaceLocator
	Predictor Predictor
	Scheduler guidance.Scheduler
	GridSize  int
	Observer  Observer
	Logger    *slog.Logger
}

// Run processes frames in order against the aligned audio track. Frames and
// track must be the same length. A locator or predictor error aborts the
// run, as does cancelling ctx between frames.
func (o *Orchestrator) Run(ctx context.Context, frames []*image.RGBA, track features.AlignedTrack) (*Result, error) {
	if o.Locator == nil || o.Predictor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "orchestrate", "", "locator and predictor are required", nil)
	}
	if track.Len() != len(frames) {
		return nil, services.Wrap(services.ErrInvalidArgument, "orchestrate", "",
			fmt.Sprintf("aligned track has %d entries for %d frames", track.Len(), len(frames)), nil)
	}

	logger := logging.WithContext(ctx, logging.NewComponentLogger(o.Logger, "orchestrator"))
	sampler := logging.NewProgressSampler(10)
	total := len(frames)
	result := &Result{
		Frames:   make([]*image.RGBA, 0, total),
		Outcomes: make([]Outcome, 0, total),
	}

	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frameCtx := services.WithFrameIndex(ctx, i)
		if runID, ok := services.RunIDFromContext(ctx); ok {
			frameCtx = services.WithRequestID(frameCtx, fmt.Sprintf("%s/%d", runID, i))
		}
		out, outcome, err := o.step(frameCtx, i, total, frame, track.Vector(i))
		if err != nil {
			return nil, err
		}
		result.Frames = append(result.Frames, out)
		result.Outcomes = append(result.Outcomes, outcome)
		if o.Observer != nil {
			o.Observer.FrameEmitted(frameCtx, outcome)
		}
		if sampler.ShouldLogFrame(i, total) {
			logger.Info("frame progress",
				logging.Int("completed", i+1),
				logging.Int("total", total),
				logging.Float64("percent", float64(i+1)*100/float64(total)),
			)
		}
	}
	return result, nil
}

// step runs one frame through Detecting, then Passthrough or Synthesizing,
// and finally Emitted.
func (o *Orchestrator) step(ctx context.Context, index, total int, frame *image.RGBA, audio []float64) (*image.RGBA, Outcome, error) {
	outcome := Outcome{Index: index, AudioPower: features.Power(audio)}
	var (
		out *image.RGBA
		box region.BBox
	)
	state := StateDetecting
	for state != StateEmitted {
		switch state {
		case StateDetecting:
			start := time.Now()
			found, ok, err := o.Locator.Detect(ctx, frame)
			outcome.Detect = time.Since(start)
			if err != nil {
				return nil, outcome, services.Wrap(services.ErrExternalTool, "orchestrate", "detect", fmt.Sprintf("frame %d", index), err)
			}
			if !ok {
				outcome.Reason = ReasonNoFace
				state = StatePassthrough
				continue
			}
			box = found
			outcome.Box = found
			state = StateSynthesizing

		case StateSynthesizing:
			req, err := o.request(index, total, frame, box, audio)
			if errors.Is(err, services.ErrEmptyRegion) {
				logging.WarnWithContext(logging.WithContext(ctx, o.logger()), "mouth region empty after clamping", "region_empty",
					logging.Any("bbox", box),
					logging.String(logging.FieldImpact, "frame passed through unchanged"),
					logging.String(logging.FieldErrorHint, "check detector coordinates against frame size"),
				)
				outcome.Reason = ReasonEmptyRegion
				state = StatePassthrough
				continue
			}
			if err != nil {
				return nil, outcome, err
			}
			outcome.Guidance = req.Guidance
			start := time.Now()
			res, err := o.Predictor.Infer(ctx, req)
			outcome.Infer = time.Since(start)
			if err != nil {
				return nil, outcome, services.Wrap(services.ErrExternalTool, "orchestrate", "infer", fmt.Sprintf("frame %d", index), err)
			}
			outcome.ResultSize = len(res.Output)
			outcome.Branch = BranchSynthesized
			out = frame
			state = StateEmitted

		case StatePassthrough:
			outcome.Branch = BranchPassthrough
			out = frame
			state = StateEmitted
		}
	}
	return out, outcome, nil
}

func (o *Orchestrator) request(index, total int, frame *image.RGBA, box region.BBox, audio []float64) (SynthesisRequest, error) {
	crop, err := region.Extract(frame, box)
	if err != nil {
		return SynthesisRequest{}, err
	}
	grid := o.GridSize
	if grid <= 0 {
		grid = DefaultGridSize
	}
	visual, err := region.Tensor(crop, grid)
	if err != nil {
		return SynthesisRequest{}, err
	}
	weight, err := o.Scheduler.Weight(features.Power(audio), index, total)
	if err != nil {
		return SynthesisRequest{}, err
	}
	return SynthesisRequest{
		FrameIndex: index,
		Audio:      audio,
		Visual:     visual,
		Guidance:   weight,
	}, nil
}

func (o *Orchestrator) logger() *slog.Logger {
	return logging.NewComponentLogger(o.Logger, "orchestrator")
}
