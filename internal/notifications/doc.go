// Package notifications delivers queue events via ntfy.
//
// The default implementation publishes to the topic configured in config.toml
// and degrades to a no-op when no topic is set. Event types cover the queue
// milestones users care about when they walk away from a batch: the queue
// starting, the queue draining, and individual images failing.
//
// Observer bridges workflow events to a Service; it keeps per-run counters so
// the drained notification can summarise what happened.
package notifications
