package assembler

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"

	"omnisync/internal/logging"
	"omnisync/internal/media"
	"omnisync/internal/services"
)

// VideoCodec encodes an ordered frame sequence into a container at path.
type VideoCodec interface {
	Write(ctx context.Context, frames []*image.RGBA, fps float64, path string) error
}

// Assembler validates frame sequences and hands them to a VideoCodec.
type Assembler struct {
	Codec  VideoCodec
	Logger *slog.Logger
}

// New constructs an Assembler around codec.
func New(codec VideoCodec, logger *slog.Logger) *Assembler {
	return &Assembler{Codec: codec, Logger: logger}
}

// Assemble writes frames to path at fps. An empty sequence is a no-op and
// the codec is not invoked. Frame dimensions are taken from the first frame
// and every later frame must match.
func (a *Assembler) Assemble(ctx context.Context, frames []*image.RGBA, fps float64, path string) error {
	if len(frames) == 0 {
		return nil
	}
	if a.Codec == nil {
		return services.Wrap(services.ErrConfiguration, "assemble", "", "no video codec configured", nil)
	}
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return services.Wrap(services.ErrInvalidArgument, "assemble", "", fmt.Sprintf("fps must be positive, got %v", fps), nil)
	}
	if err := media.CheckUniform(frames); err != nil {
		return services.Wrap(services.ErrInvalidArgument, "assemble", "validate frames", "", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	size := frames[0].Bounds().Size()
	logger := logging.WithContext(ctx, logging.NewComponentLogger(a.Logger, "assembler"))
	logger.Info("writing video",
		logging.String("output", path),
		logging.Int("frames", len(frames)),
		logging.Int("width", size.X),
		logging.Int("height", size.Y),
		logging.Float64("fps", fps),
	)
	if err := a.Codec.Write(ctx, frames, fps, path); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrCodec, "assemble", "write", path, err)
	}
	logger.Debug("video written", logging.String("output", path))
	return nil
}
