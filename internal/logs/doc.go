// Package logs reads the daemon log for `cutout logs`.
//
// Last returns the final lines of a file with bounded memory. Follow polls for
// appended lines and reopens the path when the cutout.log pointer is switched
// to a new run's file, so a follower survives daemon restarts.
package logs
