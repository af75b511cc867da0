package main

import (
	"context"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// TrackAdd inserts or updates a track in the index.
func (r *Runner) TrackAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(); err != nil {
		return err
	}

	track := models.Track{
		ID:          cmd.String("id"),
		Hash:        cmd.String("hash"),
		LocalPath:   cmd.String("path"),
		CloudKey:    cmd.String("cloud-key"),
		DurationSec: cmd.Float("duration"),
	}
	if track.ID == "" {
		track.ID = shared.GenerateID()
	}

	if err := r.tracks.Upsert(track); err != nil {
		return err
	}

	r.logger.Info("track indexed", "id", track.ID, "hash", track.Hash)
	return r.writePlain("%s\n", track.ID)
}

// TrackList prints every indexed track.
func (r *Runner) TrackList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(); err != nil {
		return err
	}

	tracks, err := r.tracks.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks indexed.\n")
	}

	for _, track := range tracks {
		location := "cloud"
		if track.LocalPath != "" {
			location = "local"
		}
		r.writePlain("%s  %-6s  %6.1fs  %s\n", track.ID, location, track.DurationSec, track.Hash)
	}
	return nil
}
