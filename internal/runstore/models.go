package runstore

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusRejected marks runs refused because of bad inputs or configuration.
	StatusRejected Status = "rejected"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusRejected
}

// Run is one generate invocation.
type Run struct {
	ID           string
	VideoPath    string
	AudioPath    string
	OutputPath   string
	FinalPath    string
	Status       Status
	FPS          float64
	Frames       int
	Synthesized  int
	Passthrough  int
	ModelDigest  string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration returns the wall time of a finished run, or zero while running.
func (r *Run) Duration() time.Duration {
	if r == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Completion carries the fields recorded when a run finishes.
type Completion struct {
	Status       Status
	FinalPath    string
	Frames       int
	Synthesized  int
	Passthrough  int
	ErrorMessage string
}
