package logging

import (
	"context"
	"log/slog"

	"cutout/internal/services"
)

// Structured field keys shared across packages.
const (
	FieldComponent     = "component"
	FieldItemID        = "item_id"
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a line for filtering, e.g. "item_failed".
	FieldEventType = "event_type"
	// FieldErrorHint suggests the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldErrorKind holds the services.ErrorKind of a failure.
	FieldErrorKind = "error_kind"
	// FieldImpact describes what a warning costs the user.
	FieldImpact = "impact"
)

var contextFields = []struct {
	key    string
	lookup func(context.Context) (string, bool)
}{
	{FieldItemID, services.ItemIDFromContext},
	{FieldStage, services.StageFromContext},
	{FieldCorrelationID, services.RequestIDFromContext},
}

// WithContext returns logger with the item, stage and request ids carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var attrs []Attr
	for _, field := range contextFields {
		if v, ok := field.lookup(ctx); ok {
			attrs = append(attrs, String(field.key, v))
		}
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(attrs)...)
}
