package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/playsync/internal/library"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Resolve resolves a track id to a playable URL and prints the chosen tier.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("id")
	if trackID == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	if err := r.openResolver(); err != nil {
		return err
	}

	resolution, err := r.resolver.ResolveID(ctx, trackID)
	if err != nil {
		return fmt.Errorf("failed to resolve track %s: %w", trackID, err)
	}

	if cmd.Bool("wait") {
		r.logger.Info("waiting for background cache warm")
		r.warmer.Drain()
	}

	if cmd.Bool("json") {
		return r.writeJSON(resolution, cmd.Bool("pretty"))
	}

	r.writePlain("Tier: %s\n", resolution.Tier)
	r.writePlain("URL:  %s\n", resolution.URL)
	if resolution.Tier == library.TierCloud {
		r.writePlain("Expires: %s\n", resolution.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
