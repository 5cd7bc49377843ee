package observe

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Collector pairs Metrics with the ManualReader that exports them.
type Collector struct {
	Metrics  *Metrics
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewCollector builds Metrics on a private in-process meter provider.
func NewCollector() (*Collector, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	met, err := NewMetrics(mp)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, err
	}
	return &Collector{Metrics: met, reader: reader, provider: mp}, nil
}

// Shutdown releases the meter provider.
func (c *Collector) Shutdown(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}

// Latency summarizes one histogram.
type Latency struct {
	Count uint64
	Sum   float64
	Max   float64
}

// Mean returns the average observation, or zero when empty.
func (l Latency) Mean() float64 {
	if l.Count == 0 {
		return 0
	}
	return l.Sum / float64(l.Count)
}

// Snapshot is a flattened view of the collected metrics.
type Snapshot struct {
	// Frames maps "branch" or "branch/reason" to a count.
	Frames map[string]int64
	Runs   map[string]int64
	Detect Latency
	Infer  Latency
	Run    Latency
}

// FrameKeys returns the Frames keys in sorted order.
func (s Snapshot) FrameKeys() []string {
	keys := make([]string, 0, len(s.Frames))
	for k := range s.Frames {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Collect reads the current metric values.
func (c *Collector) Collect(ctx context.Context) (Snapshot, error) {
	var rm metricdata.ResourceMetrics
	if err := c.reader.Collect(ctx, &rm); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Frames: map[string]int64{}, Runs: map[string]int64{}}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			switch met.Name {
			case FramesName:
				sumInto(snap.Frames, met.Data, frameKey)
			case RunsName:
				sumInto(snap.Runs, met.Data, func(set attribute.Set) string { return valueOf(set, "status") })
			case DetectDurationName:
				snap.Detect = latencyOf(met.Data)
			case InferDurationName:
				snap.Infer = latencyOf(met.Data)
			case RunDurationName:
				snap.Run = latencyOf(met.Data)
			}
		}
	}
	return snap, nil
}

func frameKey(set attribute.Set) string {
	key := valueOf(set, "branch")
	if reason := valueOf(set, "reason"); reason != "" {
		key += "/" + reason
	}
	return key
}

func valueOf(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return ""
	}
	return v.AsString()
}

func sumInto(dst map[string]int64, data metricdata.Aggregation, key func(attribute.Set) string) {
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		return
	}
	for _, dp := range sum.DataPoints {
		dst[key(dp.Attributes)] += dp.Value
	}
}

func latencyOf(data metricdata.Aggregation) Latency {
	hist, ok := data.(metricdata.Histogram[float64])
	if !ok {
		return Latency{}
	}
	var out Latency
	for _, dp := range hist.DataPoints {
		out.Count += dp.Count
		out.Sum += dp.Sum
		if v, defined := dp.Max.Value(); defined && v > out.Max {
			out.Max = v
		}
	}
	return out
}
