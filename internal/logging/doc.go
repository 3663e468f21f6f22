// Package logging assembles the structured slog loggers used across the
// conversion pipeline.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes standardized field names so workflow code tags log
// lines with subject, session, and data-type identifiers the same way
// everywhere. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
package logging
