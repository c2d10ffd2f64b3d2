package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransform     = errors.New("transform error")
	ErrTransient     = errors.New("transient failure")
)

// ErrorKind is the classification reported in structured logs.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindTimeout       ErrorKind = "timeout"
	KindTransform     ErrorKind = "transform"
	KindTransient     ErrorKind = "transient"
	KindUnknown       ErrorKind = "unknown"
)

// ErrorDetails summarizes an error for logging and user-facing messages.
type ErrorDetails struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Details classifies err against the known markers. Message is the error text
// with the marker prefix removed.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	kind, marker := classify(err)
	message := strings.TrimSpace(err.Error())
	if marker != nil {
		message = strings.TrimSpace(strings.TrimPrefix(message, marker.Error()+":"))
	}
	return ErrorDetails{
		Kind:    kind,
		Message: message,
		Cause:   errors.Unwrap(err),
	}
}

func classify(err error) (ErrorKind, error) {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation, ErrValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration, ErrConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound, ErrNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout, ErrTimeout
	case errors.Is(err, ErrTransform):
		return KindTransform, ErrTransform
	case errors.Is(err, ErrTransient):
		return KindTransient, ErrTransient
	default:
		return KindUnknown, nil
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
