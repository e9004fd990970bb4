package artifact

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Cleaner deletes artifacts older than a retention window. It shares no
// state with task execution: a task's in-flight files cannot yet be older
// than the window, so writes and deletes work on disjoint file sets.
type Cleaner struct {
	store     *Store
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewCleaner creates a Cleaner over the given store. Files with a
// modification time strictly older than now-retention are deleted each run.
func NewCleaner(store *Store, retention, interval time.Duration, logger *slog.Logger) *Cleaner {
	return &Cleaner{
		store:     store,
		retention: retention,
		interval:  interval,
		logger:    logger.With("component", "artifact_cleaner"),
	}
}

// Run executes RunOnce on the configured interval until the context is
// cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce scans the artifact directory and deletes expired files. Per-file
// failures are logged and do not abort the batch. Returns the number of
// files deleted.
func (c *Cleaner) RunOnce(ctx context.Context) int {
	cutoff := time.Now().Add(-c.retention)

	entries, err := os.ReadDir(c.store.Dir())
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to scan artifact directory", "error", err)
		return 0
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			c.logger.WarnContext(ctx, "failed to stat artifact", "name", entry.Name(), "error", err)
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(c.store.Dir(), entry.Name())
		if err := os.Remove(path); err != nil {
			c.logger.WarnContext(ctx, "failed to delete expired artifact", "path", path, "error", err)
			continue
		}

		deleted++
		c.logger.DebugContext(ctx, "deleted expired artifact", "path", path)
	}

	c.logger.InfoContext(ctx, "artifact cleanup completed",
		"deleted", deleted,
		"retention", c.retention)

	return deleted
}
