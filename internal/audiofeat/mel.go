package audiofeat

import "math"

// HzToMel converts a frequency to the HTK mel scale.
func HzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

// MelToHz converts an HTK mel value back to Hz.
func MelToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// MelFilterbank returns bands triangular filters over the nfft/2+1 FFT bins
// spanning 0 Hz to Nyquist. Each filter is area normalized so bands of
// different widths carry comparable energy.
func MelFilterbank(sampleRate, nfft, bands int) [][]float64 {
	bins := nfft/2 + 1
	nyquist := float64(sampleRate) / 2
	maxMel := HzToMel(nyquist)

	edges := make([]float64, bands+2)
	for i := range edges {
		edges[i] = MelToHz(maxMel * float64(i) / float64(bands+1))
	}

	filters := make([][]float64, bands)
	for m := range bands {
		lo, centre, hi := edges[m], edges[m+1], edges[m+2]
		norm := 2 / (hi - lo)
		filter := make([]float64, bins)
		for k := range bins {
			f := float64(k) * float64(sampleRate) / float64(nfft)
			var w float64
			switch {
			case f > lo && f <= centre:
				w = (f - lo) / (centre - lo)
			case f > centre && f < hi:
				w = (hi - f) / (hi - centre)
			}
			filter[k] = w * norm
		}
		filters[m] = filter
	}
	return filters
}
