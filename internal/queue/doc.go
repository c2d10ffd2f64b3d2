// Package queue holds the in-memory registry of submitted images and the
// results produced for them.
//
// The Store keeps items in submission order alongside a separate, completion
// ordered results collection. Status transitions are atomic and only move
// forward (pending, processing, then done or error); operations that name an
// unknown item or an illegal transition report false and change nothing, so
// callers may race removals against completion without coordination.
//
// Nothing here survives a process restart. The workflow package is the only
// writer during processing; removal and clear calls come from the submitter.
package queue
