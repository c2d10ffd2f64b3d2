package queue

import (
	"errors"
	"fmt"

	"cutout/internal/services"
)

// ErrInvalidDescriptor marks submissions rejected before they enter the queue.
var ErrInvalidDescriptor = fmt.Errorf("%w: invalid image descriptor", services.ErrValidation)

func invalidDescriptor(reason string) error {
	return services.Wrap(ErrInvalidDescriptor, "queue", "enqueue", reason, nil)
}

// IsInvalidDescriptor reports whether err is a rejected submission.
func IsInvalidDescriptor(err error) bool {
	return errors.Is(err, ErrInvalidDescriptor)
}
