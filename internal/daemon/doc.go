// Package daemon coordinates the long-running cutout process.
//
// It wires configuration, the workflow manager, the exporter and
// notifications into a single lifecycle with flock-based locking to prevent
// multiple instances sharing a state directory. The daemon exposes the queue
// operations used by the IPC server and serves the HTTP API.
//
// Keep orchestration logic here: processing belongs in workflow and transform
// while the daemon focuses on startup, shutdown, and high level coordination.
package daemon
