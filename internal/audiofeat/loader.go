package audiofeat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"omnisync/internal/logging"
	"omnisync/internal/media/ffmpeg"
)

// Loader turns any audio file ffmpeg can read into Features.
type Loader struct {
	FFmpeg  string
	WorkDir string
	Params  Params
	Logger  *slog.Logger
}

// Load resamples path to mono PCM at the configured rate in a scratch
// directory, then extracts features from the result.
func (l Loader) Load(ctx context.Context, path string) (*Features, error) {
	logger := logging.NewComponentLogger(l.Logger, "audio")
	if err := os.MkdirAll(l.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("audio work dir: %w", err)
	}
	scratch, err := os.MkdirTemp(l.WorkDir, "audio-*")
	if err != nil {
		return nil, fmt.Errorf("audio scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	wavPath := filepath.Join(scratch, "mono.wav")
	if err := ffmpeg.ConvertToMonoWAV(ctx, l.FFmpeg, path, wavPath, l.Params.SampleRate); err != nil {
		return nil, err
	}
	samples, rate, err := LoadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	feats, err := Extractor{Params: l.Params}.Extract(samples, rate)
	if err != nil {
		return nil, err
	}
	logger.Debug("audio features extracted",
		logging.String("path", path),
		logging.Int("samples", len(samples)),
		logging.Int("sample_rate", rate),
		logging.Int("frames", feats.Mel.Frames()),
		logging.Float64("duration_seconds", feats.Duration),
	)
	return feats, nil
}
