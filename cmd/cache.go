package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// CacheList prints cached entries, most recently used first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openResolver(); err != nil {
		return err
	}

	entries := r.cache.Entries()

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("Cache is empty.\n")
	}

	for _, entry := range entries {
		r.writePlain("%s  %10d bytes  %s\n", entry.Hash, entry.Size, entry.LastAccess.Format("2006-01-02 15:04:05"))
	}
	r.writePlain("\n%d entries, %d / %d bytes used\n", len(entries), r.cache.Size(), r.cache.Capacity())
	return nil
}

// CacheClear removes every cached file.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.openResolver(); err != nil {
		return err
	}

	before := r.cache.Len()
	if err := r.cache.Clear(); err != nil {
		return err
	}

	r.logger.Info("cache cleared", "evicted", before)
	return r.writePlain("✓ Cleared %d cached entries\n", before)
}
