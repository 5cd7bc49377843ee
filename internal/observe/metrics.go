package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"omnisync/internal/lipsync"
)

// meterName is the instrumentation scope for all omnisync metrics.
const meterName = "omnisync"

// Instrument names.
const (
	FramesName         = "omnisync.frames"
	DetectDurationName = "omnisync.detect.duration"
	InferDurationName  = "omnisync.infer.duration"
	RunDurationName    = "omnisync.run.duration"
	RunsName           = "omnisync.runs"
)

// Metrics holds the metric instruments for the generate pipeline.
type Metrics struct {
	// Frames counts emitted frames by branch and passthrough reason.
	Frames metric.Int64Counter

	// DetectDuration tracks face locator latency per frame.
	DetectDuration metric.Float64Histogram

	// InferDuration tracks predictor latency per synthesized frame.
	InferDuration metric.Float64Histogram

	// RunDuration tracks wall time of whole generate runs.
	RunDuration metric.Float64Histogram

	// Runs counts finished runs by status.
	Runs metric.Int64Counter
}

var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

var runBuckets = []float64{
	1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Frames, err = m.Int64Counter(FramesName,
		metric.WithDescription("Emitted frames by branch and passthrough reason."),
	); err != nil {
		return nil, err
	}
	if met.DetectDuration, err = m.Float64Histogram(DetectDurationName,
		metric.WithDescription("Latency of face detection per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.InferDuration, err = m.Float64Histogram(InferDurationName,
		metric.WithDescription("Latency of synthesis inference per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RunDuration, err = m.Float64Histogram(RunDurationName,
		metric.WithDescription("Wall time of generate runs."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(runBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Runs, err = m.Int64Counter(RunsName,
		metric.WithDescription("Finished generate runs by status."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns metrics bound to the global meter provider, which is
// a no-op unless something installed a real one.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// FrameEmitted records one orchestrator outcome.
func (m *Metrics) FrameEmitted(ctx context.Context, o lipsync.Outcome) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("branch", string(o.Branch))}
	if o.Reason != "" {
		attrs = append(attrs, attribute.String("reason", o.Reason))
	}
	m.Frames.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.DetectDuration.Record(ctx, o.Detect.Seconds())
	if o.Branch == lipsync.BranchSynthesized {
		m.InferDuration.Record(ctx, o.Infer.Seconds())
	}
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(ctx context.Context, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Runs.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, elapsed.Seconds(), attrs)
}

var _ lipsync.Observer = (*Metrics)(nil)
