// Package ffprobe wraps ffprobe invocations and exposes typed helpers for the
// stream metadata the pipeline needs: video dimensions, frame rate, frame
// count, and duration.
package ffprobe
