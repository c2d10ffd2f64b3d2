// Package services defines shared utilities consumed by the queue controller,
// the transform engines, and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform (validation vs transform vs timeout).
//
// Use these helpers when wiring new engine or surface code so operational
// behaviour (error handling, observability) stays uniform across the daemon.
package services
