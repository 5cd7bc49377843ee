package features

import (
	"fmt"

	"omnisync/internal/services"
)

// AlignedTrack holds one feature vector per video frame together with the
// audio column each vector was taken from.
type AlignedTrack struct {
	vectors [][]float64
	sources []int
}

// Len returns the number of video frames covered by the track.
func (t AlignedTrack) Len() int { return len(t.vectors) }

// Vector returns the feature vector aligned to video frame i. The slice is
// owned by the track and must not be modified.
func (t AlignedTrack) Vector(i int) []float64 { return t.vectors[i] }

// SourceIndex returns the audio column used for video frame i.
func (t AlignedTrack) SourceIndex(i int) int { return t.sources[i] }

// SourceIndices returns a copy of every source column in output order.
func (t AlignedTrack) SourceIndices() []int {
	return append([]int(nil), t.sources...)
}

// Align resamples m onto target video frames. Frame i takes audio column
// floor(i*frames/target), clamped to the last column, so no two columns are
// ever blended. A zero target yields an empty track.
func Align(m *Matrix, target int) (AlignedTrack, error) {
	if target < 0 {
		return AlignedTrack{}, services.Wrap(services.ErrInvalidArgument, "align", "", fmt.Sprintf("negative target frame count %d", target), nil)
	}
	if m.Frames() == 0 {
		return AlignedTrack{}, services.Wrap(services.ErrAlignment, "align", "", "feature matrix has no columns", nil)
	}
	if target == 0 {
		return AlignedTrack{}, nil
	}

	cols := m.Frames()
	track := AlignedTrack{
		vectors: make([][]float64, target),
		sources: make([]int, target),
	}
	for i := range target {
		src := SourceColumn(i, cols, target)
		track.sources[i] = src
		track.vectors[i] = m.Column(src)
	}
	return track, nil
}

// SourceColumn maps video frame i onto one of cols audio columns for a track
// of target frames.
func SourceColumn(i, cols, target int) int {
	src := int(int64(i) * int64(cols) / int64(target))
	if src > cols-1 {
		src = cols - 1
	}
	if src < 0 {
		src = 0
	}
	return src
}

// Power returns the mean of squared values in v, the per-frame audio energy
// fed to guidance scheduling. An empty vector has zero power.
func Power(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return sum / float64(len(v))
}
