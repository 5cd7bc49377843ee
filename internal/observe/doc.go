// Package observe records OpenTelemetry metrics for generate runs.
//
// Metrics implements lipsync.Observer so the orchestrator reports every
// emitted frame without knowing about OpenTelemetry. Tests and the CLI
// --metrics flag build Metrics on an sdk ManualReader and read the values
// back through Collect.
package observe
