// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates queue, workflow and export models into
// transport-friendly DTOs so clients never touch image buffers or internal
// types.
//
// # Key Types
//
// QueueItem: transport representation of a queued image with status and
// failure detail.
//
// ResultItem: a completed cutout's metadata. Pixel data is served separately
// by the HTTP API as PNG.
//
// WorkflowStatus: running flag, derived counts and last item.
//
// DaemonStatus: workflow status plus process, lock and socket details.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Statuses
// are exposed as lowercase strings, with a display label alongside.
// Timestamps use RFC3339 with milliseconds.
package api
