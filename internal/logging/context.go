package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType is the standardized key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized key for the operator's next step after a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldUnitIndex is the standardized key for the timeline unit being played or served.
	FieldUnitIndex = "unit_index"
	// FieldSceneName is the standardized key for the running timeline script.
	FieldSceneName = "scene"
	// FieldPeer is the standardized key for a remote peer address.
	FieldPeer = "peer"
)

type unitKey struct{}

// WithUnitIndex stores the timeline unit index on ctx for log correlation.
func WithUnitIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, unitKey{}, index)
}

// UnitIndexFromContext returns the unit index stored by WithUnitIndex.
func UnitIndexFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	index, ok := ctx.Value(unitKey{}).(int)
	return index, ok
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if index, ok := UnitIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldUnitIndex, index))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
