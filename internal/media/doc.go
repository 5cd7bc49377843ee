// Package media defines the in-memory video frame sequence shared by the
// decoder, the orchestrator, and the assembler. Subpackages wrap ffprobe and
// ffmpeg and the optional AV1 finalize step.
package media
