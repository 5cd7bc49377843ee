// Package lipsync runs the per-frame synchronization loop.
//
// Each frame moves through an explicit state machine:
//
//	Detecting -> Passthrough  -> Emitted   (no face, or an empty mouth region)
//	Detecting -> Synthesizing -> Emitted   (face found, predictor invoked)
//
// Frames are processed strictly in input order and emitted in the same
// order. The predictor result is recorded in the frame Outcome but is not
// composited, so the emitted frame is always the input frame.
package lipsync
