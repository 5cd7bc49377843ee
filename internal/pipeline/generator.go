package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"omnisync/internal/assembler"
	"omnisync/internal/audiofeat"
	"omnisync/internal/features"
	"omnisync/internal/guidance"
	"omnisync/internal/lipsync"
	"omnisync/internal/logging"
	"omnisync/internal/media"
	"omnisync/internal/observe"
	"omnisync/internal/runstore"
	"omnisync/internal/services"
)

// VideoSource decodes a video file into frames.
type VideoSource interface {
	Decode(ctx context.Context, path string) (*media.Sequence, error)
}

// FeatureSource extracts audio features from a file.
type FeatureSource interface {
	Load(ctx context.Context, path string) (*audiofeat.Features, error)
}

// Finisher post-processes the assembled output and returns the final path.
type Finisher interface {
	Finalize(ctx context.Context, path string) (string, error)
}

// RunRecorder persists run history.
type RunRecorder interface {
	Create(ctx context.Context, run runstore.Run) (*runstore.Run, error)
	Finish(ctx context.Context, id string, c runstore.Completion) (*runstore.Run, error)
}

// Request names the inputs and output of one generate run.
type Request struct {
	VideoPath  string
	AudioPath  string
	OutputPath string
}

// Report describes a finished run.
type Report struct {
	RunID       string
	OutputPath  string
	FinalPath   string
	Status      runstore.Status
	FPS         float64
	AudioFrames int
	Summary     lipsync.Summary
	Elapsed     time.Duration
}

// Generator runs the generate pipeline.
type Generator struct {
	Video     VideoSource
	Audio     FeatureSource
	Locator   lipsync.FaceLocator
	Predictor lipsync.Predictor
	Scheduler guidance.Scheduler
	GridSize  int
	Assembler *assembler.Assembler
	// Finalizer is optional; nil leaves the assembled file as the result.
	Finalizer Finisher
	// Runs is optional; nil disables run history.
	Runs    RunRecorder
	Metrics *observe.Metrics
	// FPS is the output frame rate; zero keeps the source rate.
	FPS         float64
	ModelDigest string
	Logger      *slog.Logger
	NewID       func() string
}

// Generate executes req and returns a report. The report is returned even
// when the run fails so callers can show the run id.
func (g *Generator) Generate(ctx context.Context, req Request) (*Report, error) {
	runID := g.newID()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, "generate")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(g.Logger, "pipeline"))

	start := time.Now()
	report := &Report{RunID: runID, OutputPath: req.OutputPath, FPS: g.FPS}
	g.begin(ctx, logger, runID, req, start)

	err := g.run(ctx, logger, req, report)
	report.Elapsed = time.Since(start)
	report.Status = runstore.StatusCompleted
	if err != nil {
		report.Status = services.FailureStatus(err)
	}
	g.finish(ctx, logger, report, err)
	g.Metrics.RecordRun(ctx, string(report.Status), report.Elapsed)

	if err != nil {
		logging.ErrorWithContext(logger, "generate failed", "generate_failed",
			logging.Error(err),
			logging.String("status", string(report.Status)),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return report, err
	}
	logger.Info("generate completed",
		logging.String("output", report.OutputPath),
		logging.String("final", report.FinalPath),
		logging.Int("frames", report.Summary.Frames),
		logging.Int("synthesized", report.Summary.Synthesized),
		logging.Int("passthrough", report.Summary.Passthrough),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (g *Generator) run(ctx context.Context, logger *slog.Logger, req Request, report *Report) error {
	if err := checkInputs(req); err != nil {
		return err
	}
	if g.Video == nil || g.Audio == nil || g.Assembler == nil {
		return services.Wrap(services.ErrConfiguration, "generate", "", "video source, audio source and assembler are required", nil)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	lockPath := req.OutputPath + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "generate", "lock", lockPath, err)
	}
	if !locked {
		return services.Wrap(services.ErrOutputBusy, "generate", "lock", fmt.Sprintf("another run is writing %s", req.OutputPath), nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	seq, feats, err := g.load(ctx, req)
	if err != nil {
		return err
	}
	report.AudioFrames = feats.Mel.Frames()
	fps := g.FPS
	if fps <= 0 {
		fps = seq.FPS
	}
	report.FPS = fps
	logger.Info("inputs loaded",
		logging.Int("video_frames", seq.Len()),
		logging.Float64("source_fps", seq.FPS),
		logging.Int("audio_frames", report.AudioFrames),
		logging.Float64("audio_seconds", feats.Duration),
	)

	track, err := features.Align(feats.Mel, seq.Len())
	if err != nil {
		return err
	}

	orch := &lipsync.Orchestrator{
		Locator:   g.Locator,
		Predictor: g.Predictor,
		Scheduler: g.Scheduler,
		GridSize:  g.GridSize,
		Logger:    g.Logger,
	}
	if g.Metrics != nil {
		orch.Observer = g.Metrics
	}
	result, err := orch.Run(services.WithStage(ctx, "orchestrate"), seq.Frames, track)
	if err != nil {
		return err
	}
	report.Summary = result.Summary()

	if err := g.Assembler.Assemble(services.WithStage(ctx, "assemble"), result.Frames, fps, req.OutputPath); err != nil {
		return err
	}

	if g.Finalizer != nil && len(result.Frames) > 0 {
		final, err := g.Finalizer.Finalize(services.WithStage(ctx, "finalize"), req.OutputPath)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "finalize", "av1", req.OutputPath, err)
		}
		report.FinalPath = final
	}
	return nil
}

func (g *Generator) load(ctx context.Context, req Request) (*media.Sequence, *audiofeat.Features, error) {
	var (
		seq   *media.Sequence
		feats *audiofeat.Features
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s, err := g.Video.Decode(services.WithStage(egCtx, "decode"), req.VideoPath)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "decode", "video", req.VideoPath, err)
		}
		seq = s
		return nil
	})
	eg.Go(func() error {
		f, err := g.Audio.Load(services.WithStage(egCtx, "audio"), req.AudioPath)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "audio", "features", req.AudioPath, err)
		}
		feats = f
		return nil
	})
	if err := eg.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, err
	}
	if seq == nil || feats == nil || feats.Mel == nil {
		return nil, nil, services.Wrap(services.ErrExternalTool, "generate", "load", "input loader returned no data", nil)
	}
	return seq, feats, nil
}

func checkInputs(req Request) error {
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrInvalidArgument, "generate", "inputs", "output path required", nil)
	}
	for _, in := range []struct{ label, path string }{
		{"video", req.VideoPath},
		{"audio", req.AudioPath},
	} {
		if strings.TrimSpace(in.path) == "" {
			return services.Wrap(services.ErrMissingInput, "generate", "inputs", in.label+" path required", nil)
		}
		info, err := os.Stat(in.path)
		if err != nil {
			return services.Wrap(services.ErrMissingInput, "generate", "inputs", fmt.Sprintf("%s %s", in.label, in.path), err)
		}
		if info.IsDir() {
			return services.Wrap(services.ErrMissingInput, "generate", "inputs", fmt.Sprintf("%s %s is a directory", in.label, in.path), nil)
		}
	}
	return nil
}

// begin and finish write history even when ctx is already cancelled.
func (g *Generator) begin(ctx context.Context, logger *slog.Logger, runID string, req Request, start time.Time) {
	if g.Runs == nil {
		return
	}
	_, err := g.Runs.Create(context.WithoutCancel(ctx), runstore.Run{
		ID:          runID,
		VideoPath:   req.VideoPath,
		AudioPath:   req.AudioPath,
		OutputPath:  req.OutputPath,
		FPS:         g.FPS,
		ModelDigest: g.ModelDigest,
		StartedAt:   start,
	})
	if err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "run_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history will not include this run"),
		)
	}
}

func (g *Generator) finish(ctx context.Context, logger *slog.Logger, report *Report, runErr error) {
	if g.Runs == nil {
		return
	}
	c := runstore.Completion{
		Status:      report.Status,
		FinalPath:   report.FinalPath,
		Frames:      report.Summary.Frames,
		Synthesized: report.Summary.Synthesized,
		Passthrough: report.Summary.Passthrough,
	}
	if runErr != nil {
		c.ErrorMessage = runErr.Error()
	}
	if _, err := g.Runs.Finish(context.WithoutCancel(ctx), report.RunID, c); err != nil {
		logging.WarnWithContext(logger, "failed to record run completion", "run_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history shows this run as running"),
		)
	}
}

func (g *Generator) newID() string {
	if g.NewID != nil {
		return g.NewID()
	}
	return uuid.NewString()
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrMissingInput):
		return "check the --video and --audio paths"
	case errors.Is(err, services.ErrOutputBusy):
		return "wait for the other run or choose a different --output"
	case errors.Is(err, services.ErrCodec):
		return "check ffmpeg output and free disk space"
	case errors.Is(err, services.ErrExternalTool):
		return "run `omnisync deps` and check the detector and predictor services"
	case errors.Is(err, services.ErrConfiguration):
		return "run `omnisync config validate`"
	default:
		return "see log for details"
	}
}
