// Package assembler writes the emitted frame sequence to a video file through
// a VideoCodec. It validates the sequence before the codec sees it so a bad
// run never leaves a half-written container behind.
package assembler
