package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"omnisync/internal/logging"
	"omnisync/internal/media"
	"omnisync/internal/media/ffprobe"
)

const defaultBinary = "ffmpeg"

// Decoder reads every frame of a video into memory as RGBA images.
type Decoder struct {
	FFmpeg  string
	FFprobe string
	Logger  *slog.Logger
}

// Decode probes path for dimensions and frame rate, then streams raw RGBA
// frames from ffmpeg. Audio streams are ignored.
func (d Decoder) Decode(ctx context.Context, path string) (*media.Sequence, error) {
	logger := logging.NewComponentLogger(d.Logger, "decoder")
	probe, err := ffprobe.Inspect(ctx, d.FFprobe, path)
	if err != nil {
		return nil, err
	}
	video, ok := probe.VideoStream()
	if !ok {
		return nil, fmt.Errorf("decode %s: no video stream", path)
	}
	if video.Width <= 0 || video.Height <= 0 {
		return nil, fmt.Errorf("decode %s: invalid dimensions %dx%d", path, video.Width, video.Height)
	}

	cmd := exec.CommandContext(ctx, binary(d.FFmpeg), DecodeArgs(path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("decode %s: start ffmpeg: %w", path, err)
	}

	frames, readErr := ReadFrames(bufio.NewReaderSize(stdout, 1<<20), video.Width, video.Height)
	if readErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, fmt.Errorf("decode %s: %w", path, readErr)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("decode %s: ffmpeg: %w: %s", path, waitErr, strings.TrimSpace(stderr.String()))
	}

	seq := &media.Sequence{Frames: frames, FPS: video.FrameRate()}
	logger.Debug("video decoded",
		logging.String("path", path),
		logging.Int("frames", seq.Len()),
		logging.Int("width", video.Width),
		logging.Int("height", video.Height),
		logging.Float64("fps", seq.FPS),
	)
	return seq, nil
}

// ReadFrames splits a raw RGBA stream into width x height frames. A trailing
// partial frame is an error.
func ReadFrames(r io.Reader, width, height int) ([]*image.RGBA, error) {
	size := width * height * 4
	if size <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	var frames []*image.RGBA
	for {
		frame := image.NewRGBA(image.Rect(0, 0, width, height))
		_, err := io.ReadFull(r, frame.Pix)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated frame %d", len(frames))
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
}

// DecodeArgs builds the ffmpeg arguments that write raw RGBA frames to stdout.
func DecodeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-nostdin",
		"-i", path,
		"-map", "0:v:0",
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	}
}

// Encoder writes RGBA frames to a video file through an ffmpeg pipe.
type Encoder struct {
	Binary string
	Codec  string
}

// Write encodes frames at fps into path. All frames must share the first
// frame's dimensions.
func (e Encoder) Write(ctx context.Context, frames []*image.RGBA, fps float64, path string) error {
	if len(frames) == 0 {
		return nil
	}
	if err := media.CheckUniform(frames); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	size := frames[0].Bounds().Size()
	cmd := exec.CommandContext(ctx, binary(e.Binary), EncodeArgs(size.X, size.Y, fps, e.Codec, path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("encode %s: start ffmpeg: %w", path, err)
	}

	var writeErr error
	for _, frame := range frames {
		if _, err := stdin.Write(media.PackedPix(frame)); err != nil {
			writeErr = err
			break
		}
	}
	closeErr := stdin.Close()
	waitErr := cmd.Wait()
	switch {
	case waitErr != nil:
		return fmt.Errorf("encode %s: ffmpeg: %w: %s", path, waitErr, strings.TrimSpace(stderr.String()))
	case writeErr != nil:
		return fmt.Errorf("encode %s: write frames: %w", path, writeErr)
	case closeErr != nil:
		return fmt.Errorf("encode %s: close pipe: %w", path, closeErr)
	}
	return nil
}

// evenPadFilter pads odd dimensions by one pixel; yuv420p needs even sizes.
const evenPadFilter = "pad=ceil(iw/2)*2:ceil(ih/2)*2"

// EncodeArgs builds the ffmpeg arguments that read raw RGBA frames from stdin.
func EncodeArgs(width, height int, fps float64, codec, path string) []string {
	codec = strings.TrimSpace(codec)
	if codec == "" {
		codec = "mpeg4"
	}
	args := []string{
		"-y",
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "pipe:0",
		"-an",
	}
	if width%2 != 0 || height%2 != 0 {
		args = append(args, "-vf", evenPadFilter)
	}
	return append(args,
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
		path,
	)
}

// ConvertToMonoWAV resamples any audio input to mono 16-bit PCM WAV at
// sampleRate, writing to outPath through a temporary file.
func ConvertToMonoWAV(ctx context.Context, ffmpegBinary, inPath, outPath string, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("convert %s: invalid sample rate %d", inPath, sampleRate)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("convert %s: %w", inPath, err)
	}
	tmpPath := outPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(ctx, binary(ffmpegBinary), MonoWAVArgs(inPath, sampleRate, tmpPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("convert %s: ffmpeg: %w (%s)", inPath, err, strings.TrimSpace(string(out)))
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("convert %s: %w", inPath, err)
	}
	return nil
}

// MonoWAVArgs builds the ffmpeg arguments for ConvertToMonoWAV.
func MonoWAVArgs(inPath string, sampleRate int, outPath string) []string {
	return []string{
		"-y",
		"-v", "error",
		"-i", inPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outPath,
	}
}

func binary(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return defaultBinary
}
