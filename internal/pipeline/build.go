package pipeline

import (
	"log/slog"
	"path/filepath"
	"strings"

	"omnisync/internal/assembler"
	"omnisync/internal/audiofeat"
	"omnisync/internal/config"
	"omnisync/internal/detect"
	"omnisync/internal/guidance"
	"omnisync/internal/lipsync"
	"omnisync/internal/logging"
	"omnisync/internal/media/ffmpeg"
	"omnisync/internal/media/finalize"
	"omnisync/internal/model"
	"omnisync/internal/observe"
	"omnisync/internal/predictor"
	"omnisync/internal/runstore"
)

// Options adjusts a Generator built from configuration.
type Options struct {
	// Runs overrides the run store; nil opens the configured store.
	Runs RunRecorder
	// SkipRunStore disables run history entirely.
	SkipRunStore bool
	// Metrics receives frame and run metrics; nil uses the global provider.
	Metrics *observe.Metrics
}

// New builds a Generator from cfg. The returned close function releases the
// run store when New opened it.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Generator, func() error, error) {
	closeFn := func() error { return nil }
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, closeFn, err
	}

	repo := model.FileRepository{}
	weights, haveWeights, err := model.LoadIfPresent(repo, cfg.Paths.ModelPath)
	if err != nil {
		return nil, closeFn, err
	}
	if haveWeights {
		logging.NewComponentLogger(logger, "model").Info("model weights loaded",
			logging.String("path", weights.Path),
			logging.String("digest", weights.Digest),
			logging.Int("bytes", len(weights.Data)),
		)
	}

	params := audiofeat.Params{
		SampleRate: cfg.Audio.SampleRate,
		NFFT:       cfg.Audio.NFFT,
		HopLength:  cfg.Audio.HopLength,
		MelBands:   cfg.Audio.MelBands,
		MFCCCount:  cfg.Audio.MFCCCount,
	}

	g := &Generator{
		Video: ffmpeg.Decoder{
			FFmpeg:  cfg.FFmpegBinary(),
			FFprobe: cfg.FFprobeBinary(),
			Logger:  logger,
		},
		Audio: audiofeat.Loader{
			FFmpeg:  cfg.FFmpegBinary(),
			WorkDir: filepath.Join(cfg.Paths.WorkDir, "scratch"),
			Params:  params,
			Logger:  logger,
		},
		Locator:     Locator(cfg),
		Predictor:   Predictor(cfg, weights.Digest),
		Scheduler:   guidance.NewScheduler(cfg.Guidance.BaseStrength),
		GridSize:    cfg.Predictor.GridSize,
		Assembler:   assembler.New(ffmpeg.Encoder{Binary: cfg.FFmpegBinary(), Codec: cfg.Output.VideoCodec}, logger),
		Metrics:     opts.Metrics,
		FPS:         cfg.Output.FPS,
		ModelDigest: weights.Digest,
		Logger:      logger,
	}
	if g.Metrics == nil {
		g.Metrics = observe.DefaultMetrics()
	}
	if cfg.Output.FinalizeAV1 {
		g.Finalizer = finalize.New(logger)
	}

	switch {
	case opts.Runs != nil:
		g.Runs = opts.Runs
	case !opts.SkipRunStore:
		store, err := runstore.Open(cfg)
		if err != nil {
			return nil, closeFn, err
		}
		g.Runs = store
		closeFn = store.Close
	}
	return g, closeFn, nil
}

// Locator returns the configured face locator.
func Locator(cfg *config.Config) lipsync.FaceLocator {
	if strings.TrimSpace(cfg.Detector.URL) == "" {
		return detect.None{}
	}
	return detect.NewHTTPLocator(detect.Config{
		URL:                 cfg.Detector.URL,
		TimeoutSeconds:      cfg.Detector.TimeoutSeconds,
		ConfidenceThreshold: cfg.Detector.ConfidenceThreshold,
	})
}

// Predictor returns the configured synthesis predictor.
func Predictor(cfg *config.Config, modelDigest string) lipsync.Predictor {
	if strings.TrimSpace(cfg.Predictor.URL) == "" {
		return predictor.Null{}
	}
	return predictor.NewHTTPClient(predictor.Config{
		URL:            cfg.Predictor.URL,
		TimeoutSeconds: cfg.Predictor.TimeoutSeconds,
		ModelDigest:    modelDigest,
	})
}
