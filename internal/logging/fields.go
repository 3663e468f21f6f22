package logging

import "log/slog"

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSubject is the standardized structured logging key for subject identifiers.
	FieldSubject = "subject"
	// FieldSession is the standardized structured logging key for BIDS session strings.
	FieldSession = "session"
	// FieldTask is the standardized structured logging key for BIDS task strings.
	FieldTask = "task"
	// FieldDataType is the standardized structured logging key for pipeline data types (mri, beh, rate, phys).
	FieldDataType = "data_type"
	// FieldInvocationID is the standardized structured logging key for per-run correlation identifiers.
	FieldInvocationID = "invocation_id"
)

// WithComponent returns a logger tagged with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// WithSubject returns a logger tagged with subject and session identifiers.
func WithSubject(logger *slog.Logger, subject, session string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	attrs := []any{slog.String(FieldSubject, subject)}
	if session != "" {
		attrs = append(attrs, slog.String(FieldSession, session))
	}
	return logger.With(attrs...)
}
