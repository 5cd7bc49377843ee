// Package pipeline wires the generate run end to end.
//
// Generator checks inputs, takes an exclusive lock on the output path, loads
// video frames and audio features concurrently, aligns the features to the
// frame count, runs the per-frame orchestrator, assembles the output video and
// optionally finalizes it to AV1. Every run is recorded in the run store with
// its terminal status.
package pipeline
