// Package logging assembles structured slog loggers and formatting helpers used
// across omnisync.
//
// It owns the configurable console/JSON handlers, mirrors records into a JSON
// log file under the configured log directory, and exposes context-aware
// helpers so stage code can automatically tag log lines with run IDs, stages,
// frame indices, and correlation IDs. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
