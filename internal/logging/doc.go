// Package logging assembles structured slog loggers and formatting helpers used
// across framecast components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so the scene driver and frame
// server can tag log lines with the timeline unit they concern. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
