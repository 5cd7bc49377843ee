package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"omnisync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ModelPath = filepath.Join(base, "models", "lipsync.bin")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDetectorURL points the detector section at url.
func WithDetectorURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Detector.URL = url
	}
}

// WithPredictorURL points the predictor section at url.
func WithPredictorURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Predictor.URL = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		for _, name := range names {
			WriteScript(b.t, filepath.Join(b.baseDir, "bin", name), "exit 0\n")
		}
		b.t.Setenv("PATH", filepath.Join(b.baseDir, "bin")+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithFFmpegScripts installs shell scripts as the configured ffmpeg and
// ffprobe binaries. An empty body leaves that binary unset.
func WithFFmpegScripts(ffmpegBody, ffprobeBody string) ConfigOption {
	return func(b *configBuilder) {
		if ffmpegBody != "" {
			path := filepath.Join(b.baseDir, "bin", "ffmpeg-stub")
			WriteScript(b.t, path, ffmpegBody)
			b.cfg.FFmpeg.FFmpegBinary = path
		}
		if ffprobeBody != "" {
			path := filepath.Join(b.baseDir, "bin", "ffprobe-stub")
			WriteScript(b.t, path, ffprobeBody)
			b.cfg.FFmpeg.FFprobeBinary = path
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
