package lipsync

import (
	"context"
	"image"
	"time"

	"omnisync/internal/region"
)

// FaceLocator finds the face in a frame. A miss is reported with ok false
// and a nil error.
type FaceLocator interface {
	Detect(ctx context.Context, frame *image.RGBA) (box region.BBox, ok bool, err error)
}

// Predictor runs the synthesis model for a single frame.
type Predictor interface {
	Infer(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)
}

// SynthesisRequest is the per-frame predictor input.
type SynthesisRequest struct {
	FrameIndex int
	Audio      []float64
	Visual     region.VisualTensor
	Guidance   float64
}

// SynthesisResult is the per-frame predictor output.
type SynthesisResult struct {
	Output []float32
}

// State is a step in the per-frame state machine.
type State int

const (
	StateDetecting State = iota
	StatePassthrough
	StateSynthesizing
	StateEmitted
)

func (s State) String() string {
	switch s {
	case StateDetecting:
		return "detecting"
	case StatePassthrough:
		return "passthrough"
	case StateSynthesizing:
		return "synthesizing"
	case StateEmitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Branch names the path a frame took before it was emitted.
type Branch string

const (
	BranchPassthrough Branch = "passthrough"
	BranchSynthesized Branch = "synthesized"
)

// Passthrough reasons.
const (
	ReasonNoFace      = "no_face"
	ReasonEmptyRegion = "empty_region"
)

// Outcome records what happened to one frame.
type Outcome struct {
	Index      int
	Branch     Branch
	Reason     string
	Box        region.BBox
	Guidance   float64
	AudioPower float64
	ResultSize int
	Detect     time.Duration
	Infer      time.Duration
}

// Observer is notified after each frame is emitted.
type Observer interface {
	FrameEmitted(ctx context.Context, o Outcome)
}

// Summary aggregates outcomes for a run.
type Summary struct {
	Frames      int
	Passthrough int
	Synthesized int
	Reasons     map[string]int
}

// Result holds the emitted frames in input order and one outcome per frame.
type Result struct {
	Frames   []*image.RGBA
	Outcomes []Outcome
}

// Summary tallies the outcomes by branch and passthrough reason.
func (r *Result) Summary() Summary {
	s := Summary{Reasons: map[string]int{}}
	if r == nil {
		return s
	}
	s.Frames = len(r.Outcomes)
	for _, o := range r.Outcomes {
		switch o.Branch {
		case BranchPassthrough:
			s.Passthrough++
			s.Reasons[o.Reason]++
		case BranchSynthesized:
			s.Synthesized++
		}
	}
	return s
}
