package workflow

import (
	"fmt"

	"cutout/internal/services"
)

var (
	// ErrQueueBusy is returned by ClearAll while the loop is running.
	ErrQueueBusy = fmt.Errorf("%w: queue is processing", services.ErrValidation)
	// ErrQueueFull is returned by Submit when the pending bound is reached.
	ErrQueueFull = fmt.Errorf("%w: queue is full", services.ErrValidation)
	// ErrClosed is returned by Submit after Close.
	ErrClosed = fmt.Errorf("%w: workflow manager closed", services.ErrConfiguration)
)
