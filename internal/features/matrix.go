package features

import (
	"fmt"

	"omnisync/internal/services"
)

// Matrix is an immutable bands x frames matrix of audio features. Column c is
// the feature vector for audio frame c.
type Matrix struct {
	bands    int
	frames   int
	data     []float64 // row-major, bands rows of frames values
	duration float64
}

// NewMatrix copies rows (one slice per band) into a Matrix. Every row must
// have the same length. Duration is the source audio length in seconds.
func NewMatrix(rows [][]float64, duration float64) (*Matrix, error) {
	if duration < 0 {
		return nil, services.Wrap(services.ErrInvalidArgument, "features", "new matrix", fmt.Sprintf("negative duration %v", duration), nil)
	}
	m := &Matrix{bands: len(rows), duration: duration}
	if len(rows) == 0 {
		return m, nil
	}
	m.frames = len(rows[0])
	m.data = make([]float64, 0, m.bands*m.frames)
	for b, row := range rows {
		if len(row) != m.frames {
			return nil, services.Wrap(services.ErrInvalidArgument, "features", "new matrix",
				fmt.Sprintf("band %d has %d frames, want %d", b, len(row), m.frames), nil)
		}
		m.data = append(m.data, row...)
	}
	return m, nil
}

// Bands returns the number of feature bands (rows).
func (m *Matrix) Bands() int {
	if m == nil {
		return 0
	}
	return m.bands
}

// Frames returns the number of audio frames (columns).
func (m *Matrix) Frames() int {
	if m == nil {
		return 0
	}
	return m.frames
}

// Duration returns the source audio length in seconds.
func (m *Matrix) Duration() float64 {
	if m == nil {
		return 0
	}
	return m.duration
}

// At returns the value at band b, frame c.
func (m *Matrix) At(b, c int) float64 {
	return m.data[b*m.frames+c]
}

// Column returns a copy of the feature vector for audio frame c.
func (m *Matrix) Column(c int) []float64 {
	out := make([]float64, m.bands)
	for b := range out {
		out[b] = m.data[b*m.frames+c]
	}
	return out
}

// Row returns a copy of band b across all frames.
func (m *Matrix) Row(b int) []float64 {
	out := make([]float64, m.frames)
	copy(out, m.data[b*m.frames:(b+1)*m.frames])
	return out
}
