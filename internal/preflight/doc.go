// Package preflight provides readiness checks for the filesystem paths and
// external services that cutout depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs each failure so a broken
//     output directory or unreachable engine shows up before the first image.
//   - The CLI "cutout check" command prints the same results as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
