package services

import "context"

// ctxKey scopes the values this package stores on a context.
type ctxKey int

const (
	itemIDKey ctxKey = iota
	stageKey
	requestIDKey
)

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithItemID tags ctx with the queue item being processed.
func WithItemID(ctx context.Context, id string) context.Context {
	return withString(ctx, itemIDKey, id)
}

func ItemIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, itemIDKey) }

// WithStage tags ctx with the processing step (for example "transform").
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, stageKey) }

// WithRequestID tags ctx with the HTTP request id assigned by the API router.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, requestIDKey) }
