package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// PruneLogs deletes files in dir matching pattern whose modification time is
// older than retentionDays, skipping any path listed in keep. It returns the
// number of files removed. retentionDays <= 0 disables pruning.
func PruneLogs(logger *slog.Logger, dir, pattern string, retentionDays int, keep ...string) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		WarnWithContext(logger, "log retention pattern invalid", "log_retention_failed",
			String("pattern", pattern),
			Error(err),
			String(FieldErrorHint, "fix the retention glob"),
		)
		return 0
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, path := range matches {
		if slices.Contains(keep, path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
	return removed
}
