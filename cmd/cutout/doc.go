// Package main hosts the cutout CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon: submitting images, inspecting and clearing the queue,
// exporting finished cutouts, and reading the export history. It also runs
// the daemon itself in the foreground, scaffolds configuration, and reports
// preflight checks.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
