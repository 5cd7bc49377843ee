package finalize

import (
	"log/slog"

	draptolib "github.com/five82/drapto"

	"omnisync/internal/logging"
)

// logReporter forwards drapto progress into structured logs, sampling the
// high-frequency progress callbacks.
type logReporter struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

func newLogReporter(logger *slog.Logger) *logReporter {
	return &logReporter{logger: logger, sampler: logging.NewProgressSampler(10)}
}

func (r *logReporter) Hardware(s draptolib.HardwareSummary) {
	r.logger.Debug("encoder host", logging.Any("hostname", s.Hostname))
}

func (r *logReporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Info("encode initialized",
		logging.Any("input", s.InputFile),
		logging.Any("output", s.OutputFile),
		logging.Any("resolution", s.Resolution),
	)
}

func (r *logReporter) StageProgress(s draptolib.StageProgress) {
	r.logger.Debug("encode stage", logging.Any("stage", s.Stage), logging.Any("message", s.Message))
}

func (r *logReporter) CropResult(s draptolib.CropSummary) {
	r.logger.Debug("crop detection", logging.Any("crop", s.Crop), logging.Any("required", s.Required))
}

func (r *logReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Debug("encoding config", logging.Any("preset", s.DraptoPreset))
}

func (r *logReporter) EncodingStarted(totalFrames uint64) {
	r.sampler.Reset()
	r.logger.Info("av1 encoding started", logging.Int("total_frames", int(totalFrames)))
}

func (r *logReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	percent := float64(s.Percent)
	if !r.sampler.ShouldLog(percent) {
		return
	}
	r.logger.Info("av1 encoding progress", logging.Float64("percent", percent), logging.Float64("speed", float64(s.Speed)))
}

func (r *logReporter) ValidationComplete(s draptolib.ValidationSummary) {
	r.logger.Info("encode validation complete", logging.Any("passed", s.Passed), logging.Int("steps", len(s.Steps)))
}

func (r *logReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Info("av1 encoding complete",
		logging.Any("output", s.OutputPath),
		logging.Int64("original_bytes", int64(s.OriginalSize)),
		logging.Int64("encoded_bytes", int64(s.EncodedSize)),
	)
}

func (r *logReporter) Warning(message string) {
	logging.WarnWithContext(r.logger, message, "encode_warning")
}

func (r *logReporter) Error(e draptolib.ReporterError) {
	logging.ErrorWithContext(r.logger, "drapto reported an error", "encode_error",
		logging.Any("title", e.Title),
		logging.Any("detail", e.Message),
		logging.Any(logging.FieldErrorHint, e.Suggestion),
	)
}

func (r *logReporter) OperationComplete(message string) {
	r.logger.Debug(message)
}

func (r *logReporter) BatchStarted(draptolib.BatchStartInfo) {}

func (r *logReporter) FileProgress(draptolib.FileProgressContext) {}

func (r *logReporter) BatchComplete(draptolib.BatchSummary) {}

var _ draptolib.Reporter = (*logReporter)(nil)
