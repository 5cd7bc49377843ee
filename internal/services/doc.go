// Package services defines shared utilities consumed by the pipeline stages
// and the capability clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, frame indices, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses (failed vs rejected).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
