// Package export writes completed cutouts to the output directory and keeps a
// SQLite ledger of every file it produced.
//
// Exports are named after the item's display name with its extension replaced
// by "_no_bg.png". Existing files are never overwritten; a numeric suffix is
// added instead. The ledger is optional and lives in the state directory.
package export
