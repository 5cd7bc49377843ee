// Package audiofeat extracts the audio conditioning features consumed by the
// pipeline: an 80-band mel power spectrogram, 13 MFCCs, and the spectral
// centroid, all computed on a Hann-windowed STFT of 16 kHz mono audio.
//
// Audio is normalized to mono WAV through ffmpeg, decoded with go-audio, and
// transformed with the go-dsp FFT.
package audiofeat
