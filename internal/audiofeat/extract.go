package audiofeat

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"omnisync/internal/features"
	"omnisync/internal/services"
)

// Params controls the short-time analysis.
type Params struct {
	SampleRate int
	NFFT       int
	HopLength  int
	MelBands   int
	MFCCCount  int
}

// DefaultParams mirror the values the synthesis model was trained with.
func DefaultParams() Params {
	return Params{SampleRate: 16000, NFFT: 2048, HopLength: 512, MelBands: 80, MFCCCount: 13}
}

// Features is the per-audio-frame description of a track.
type Features struct {
	Mel      *features.Matrix
	MFCC     *features.Matrix
	Centroid []float64
	Duration float64
}

// Extractor computes mel, MFCC, and spectral centroid features.
type Extractor struct {
	Params Params
}

const (
	minPower = 1e-10
	topDB    = 80.0
)

// Extract analyses mono samples recorded at sampleRate. Frames are centred
// on multiples of the hop length, so n samples give 1 + n/hop frames.
func (e Extractor) Extract(samples []float64, sampleRate int) (*Features, error) {
	p := e.Params
	if sampleRate <= 0 {
		return nil, services.Wrap(services.ErrInvalidArgument, "audio", "extract", fmt.Sprintf("invalid sample rate %d", sampleRate), nil)
	}
	if p.NFFT <= 0 || p.HopLength <= 0 || p.MelBands <= 0 || p.MFCCCount <= 0 || p.MFCCCount > p.MelBands {
		return nil, services.Wrap(services.ErrInvalidArgument, "audio", "extract", fmt.Sprintf("invalid params %+v", p), nil)
	}
	duration := float64(len(samples)) / float64(sampleRate)
	if len(samples) == 0 {
		empty := make([][]float64, p.MelBands)
		mel, err := features.NewMatrix(empty, 0)
		if err != nil {
			return nil, err
		}
		mfcc, err := features.NewMatrix(make([][]float64, p.MFCCCount), 0)
		if err != nil {
			return nil, err
		}
		return &Features{Mel: mel, MFCC: mfcc}, nil
	}

	power, magnitude := stft(samples, p.NFFT, p.HopLength)
	frames := len(power)
	filters := MelFilterbank(sampleRate, p.NFFT, p.MelBands)
	dct := dctMatrix(p.MFCCCount, p.MelBands)
	binHz := float64(sampleRate) / float64(p.NFFT)

	mel := make([][]float64, p.MelBands)
	for m := range mel {
		mel[m] = make([]float64, frames)
	}
	mfcc := make([][]float64, p.MFCCCount)
	for k := range mfcc {
		mfcc[k] = make([]float64, frames)
	}
	logMel := make([][]float64, frames)
	maxDB := math.Inf(-1)
	centroid := make([]float64, frames)

	for t := range frames {
		logMel[t] = make([]float64, p.MelBands)
		for m, filter := range filters {
			var sum float64
			for k, w := range filter {
				if w != 0 {
					sum += w * power[t][k]
				}
			}
			mel[m][t] = sum
			db := 10 * math.Log10(math.Max(sum, minPower))
			logMel[t][m] = db
			maxDB = math.Max(maxDB, db)
		}

		var num, den float64
		for k, mag := range magnitude[t] {
			num += float64(k) * binHz * mag
			den += mag
		}
		if den > 0 {
			centroid[t] = num / den
		}
	}

	floor := maxDB - topDB
	for t := range frames {
		for m := range logMel[t] {
			logMel[t][m] = math.Max(logMel[t][m], floor)
		}
		for k, row := range dct {
			var sum float64
			for m, c := range row {
				sum += c * logMel[t][m]
			}
			mfcc[k][t] = sum
		}
	}

	melMatrix, err := features.NewMatrix(mel, duration)
	if err != nil {
		return nil, err
	}
	mfccMatrix, err := features.NewMatrix(mfcc, duration)
	if err != nil {
		return nil, err
	}
	return &Features{Mel: melMatrix, MFCC: mfccMatrix, Centroid: centroid, Duration: duration}, nil
}

// FrameCount returns the number of analysis frames for n samples.
func FrameCount(n, hop int) int {
	if n <= 0 || hop <= 0 {
		return 0
	}
	return 1 + n/hop
}

// stft returns per-frame power and magnitude spectra over bins 0..nfft/2.
func stft(samples []float64, nfft, hop int) (power, magnitude [][]float64) {
	padded := padCenter(samples, nfft/2)
	window := Hann(nfft)
	frames := FrameCount(len(samples), hop)
	bins := nfft/2 + 1
	power = make([][]float64, frames)
	magnitude = make([][]float64, frames)
	frame := make([]float64, nfft)
	for t := range frames {
		start := t * hop
		for i := range frame {
			idx := start + i
			if idx < len(padded) {
				frame[i] = padded[idx] * window[i]
			} else {
				frame[i] = 0
			}
		}
		spectrum := fft.FFTReal(frame)
		power[t] = make([]float64, bins)
		magnitude[t] = make([]float64, bins)
		for k := range bins {
			mag := cmplx.Abs(spectrum[k])
			magnitude[t][k] = mag
			power[t][k] = mag * mag
		}
	}
	return power, magnitude
}

// padCenter reflects pad samples at both ends, falling back to zeros when
// the signal is too short to reflect.
func padCenter(samples []float64, pad int) []float64 {
	out := make([]float64, len(samples)+2*pad)
	copy(out[pad:], samples)
	n := len(samples)
	for i := 1; i <= pad; i++ {
		if i < n {
			out[pad-i] = samples[i]
			out[pad+n-1+i] = samples[n-1-i]
		}
	}
	return out
}

// Hann returns a periodic Hann window of length n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// dctMatrix returns the orthonormal DCT-II basis with k rows over n inputs.
func dctMatrix(k, n int) [][]float64 {
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, n)
		scale := math.Sqrt(2 / float64(n))
		if i == 0 {
			scale = math.Sqrt(1 / float64(n))
		}
		for j := range out[i] {
			out[i][j] = scale * math.Cos(math.Pi*float64(i)*(float64(j)+0.5)/float64(n))
		}
	}
	return out
}
