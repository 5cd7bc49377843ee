package audiofeat

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// LoadWAV reads a PCM WAV file and returns mono samples normalized to
// [-1, 1] together with the sample rate. Multi-channel input is averaged.
func LoadWAV(path string) ([]float64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	duration, err := decoder.Duration()
	if err != nil {
		return nil, 0, fmt.Errorf("wav duration: %w", err)
	}

	channels := int(decoder.NumChans)
	if channels <= 0 {
		return nil, 0, errors.New("wav reports zero channels")
	}
	total := int(duration.Seconds()*float64(decoder.SampleRate)+0.5) * channels
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(decoder.SampleRate),
		},
		Data:           make([]int, total),
		SourceBitDepth: int(decoder.BitDepth),
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return nil, 0, fmt.Errorf("read wav samples: %w", err)
	}
	data := buf.Data[:n]

	scale := float64(int(1) << (uint(decoder.BitDepth) - 1))
	frames := len(data) / channels
	samples := make([]float64, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples, int(decoder.SampleRate), nil
}
