package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionTarget selects files in Dir whose names match Pattern. Files listed
// in Keep are never removed.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Keep    []string
}

// CleanupOldLogs removes files matching the targets whose modification time is
// older than retentionDays. A retentionDays value of 0 disables pruning. It
// returns the number of files removed.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, target := range targets {
		if target.Dir == "" {
			continue
		}
		keep := make(map[string]struct{}, len(target.Keep))
		for _, path := range target.Keep {
			if abs, err := filepath.Abs(path); err == nil {
				keep[abs] = struct{}{}
			}
		}
		pattern := target.Pattern
		if pattern == "" {
			pattern = "*"
		}
		matches, err := filepath.Glob(filepath.Join(target.Dir, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			if _, skip := keep[path]; skip {
				continue
			}
			info, err := os.Lstat(path)
			if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check file permissions and state_dir ownership"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			if logger != nil {
				logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
			}
		}
	}
	return removed
}
