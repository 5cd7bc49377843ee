package finalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	draptolib "github.com/five82/drapto"

	"omnisync/internal/logging"
)

// Encoder re-encodes inputPath into outputDir and returns the produced file.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputDir string) (string, error)
}

// Finalizer converts the assembled video to AV1 and replaces the original
// output with the encoded file.
type Finalizer struct {
	Encoder Encoder
	Logger  *slog.Logger
}

// New returns a Finalizer backed by the drapto library.
func New(logger *slog.Logger) *Finalizer {
	return &Finalizer{Encoder: &Library{Logger: logger}, Logger: logger}
}

// Finalize encodes path in a scratch directory next to it and returns the
// location of the AV1 result. The assembled file is left in place.
func (f *Finalizer) Finalize(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("finalize: input path required")
	}
	if f == nil || f.Encoder == nil {
		return "", errors.New("finalize: encoder not configured")
	}
	logger := logging.NewComponentLogger(f.Logger, "finalize")
	outDir := filepath.Join(filepath.Dir(path), ".av1")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	defer os.RemoveAll(outDir)

	logger.Info("av1 finalize started", logging.String("input", path))
	encoded, err := f.Encoder.Encode(ctx, path, outDir)
	if err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	final := OutputPath(path, filepath.Dir(path))
	if err := os.Rename(encoded, final); err != nil {
		return "", fmt.Errorf("finalize: move encoded file: %w", err)
	}
	logger.Info("av1 finalize completed", logging.String("output", final))
	return final, nil
}

// OutputPath returns the .mkv path drapto writes for inputPath in outputDir.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}

// Library encodes through the drapto Go library.
type Library struct {
	Logger *slog.Logger
}

// Encode runs a drapto encode with progress logged through Logger.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string) (string, error) {
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", err
	}
	rep := newLogReporter(logging.NewComponentLogger(l.Logger, "drapto"))
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", err
	}
	return OutputPath(inputPath, outputDir), nil
}
