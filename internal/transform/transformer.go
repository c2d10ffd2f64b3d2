package transform

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strings"

	"cutout/internal/config"
	"cutout/internal/logging"
	"cutout/internal/queue"
	"cutout/internal/services"
)

// Output is the product of a successful transform. Dimensions match the
// decoded source image.
type Output struct {
	Mask   *image.Gray
	Cutout *image.NRGBA
	Width  int
	Height int
}

// Transformer removes the background from one source. Implementations must
// not mutate src and are never called concurrently by the queue controller.
type Transformer interface {
	Transform(ctx context.Context, src queue.Source) (Output, error)
}

// Func adapts a plain function to Transformer.
type Func func(ctx context.Context, src queue.Source) (Output, error)

// Transform calls f.
func (f Func) Transform(ctx context.Context, src queue.Source) (Output, error) {
	return f(ctx, src)
}

// Error reports a failed transform. It matches services.ErrTransform, or
// services.ErrTimeout when the context deadline was hit, via errors.Is.
type Error struct {
	Op      string
	Message string
	Err     error
	marker  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	marker := e.marker
	if marker == nil {
		marker = services.ErrTransform
	}
	if e.Err == nil {
		return []error{marker}
	}
	return []error{marker, e.Err}
}

// Detail is the human readable message stored on a failed item.
func (e *Error) Detail() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "transform failed"
}

// Errorf builds a transform failure.
func Errorf(op string, cause error, format string, args ...any) *Error {
	return newError(op, fmt.Sprintf(format, args...), cause)
}

func newError(op, message string, cause error) *Error {
	e := &Error{Op: op, Message: message, Err: cause}
	if errors.Is(cause, context.DeadlineExceeded) {
		e.marker = services.ErrTimeout
	}
	return e
}

// AsError converts any error into a *Error, keeping existing ones intact.
func AsError(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return newError(op, "transform failed", err)
}

// New builds the engine selected in cfg.
func New(cfg *config.Config, logger *slog.Logger) (Transformer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transform", "new", "config is required", nil)
	}
	logger = logging.NewComponentLogger(logger, "transform")
	loader := NewLoader(&http.Client{Timeout: cfg.FetchTimeout()}, cfg.Transform.MaxSourceBytes)
	switch cfg.Transform.Engine {
	case config.EngineLocal, "":
		return NewLocal(LocalOptions{
			WorkingSize: cfg.Transform.WorkingSize,
			Tolerance:   cfg.Transform.Tolerance,
			Softness:    cfg.Transform.Softness,
			MaxPixels:   cfg.Transform.MaxPixels,
			Loader:      loader,
			Logger:      logger,
		}), nil
	case config.EngineRemote:
		return NewRemote(RemoteOptions{
			Endpoint:  cfg.Transform.Endpoint,
			Client:    &http.Client{},
			Loader:    loader,
			Logger:    logger,
			MaxPixels: cfg.Transform.MaxPixels,
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transform", "new",
			fmt.Sprintf("unknown engine %q", cfg.Transform.Engine), nil)
	}
}
