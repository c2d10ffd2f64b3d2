// Package logging assembles structured slog loggers and formatting helpers used
// across the cutout daemon and CLI.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so controller and engine code can tag log
// lines with queue item IDs, stages, and correlation IDs. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
