// Package ipc serves the daemon's control API as JSON-RPC over a Unix socket
// and provides the Client the CLI dials.
//
// Request and response payloads embed api types so the RPC and HTTP surfaces
// report the same shapes.
package ipc
