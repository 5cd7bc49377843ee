// Package ffmpeg moves frames and audio between files and memory through
// ffmpeg subprocesses.
//
// Decoder streams raw RGBA frames out of a video, Encoder pipes RGBA frames
// into an encoder, and ConvertToMonoWAV normalizes any audio input to mono
// 16-bit PCM at the configured sample rate.
package ffmpeg
