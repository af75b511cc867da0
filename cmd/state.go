package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
)

// StateGet shows the latest playback record.
func (r *Runner) StateGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(); err != nil {
		return err
	}

	exclude := ""
	if cmd.Bool("others") {
		exclude = r.config.Device.ID
	}

	record, err := r.states.Get(exclude)
	if err != nil {
		return err
	}
	if record == nil {
		return r.writePlain("No playback state.\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(record, true)
	}

	status := "paused"
	if record.IsPlaying {
		status = "playing"
	}
	r.writePlain("Device:   %s (%s)\n", record.DeviceName, record.DeviceID)
	r.writePlain("Track:    %s\n", record.TrackID)
	r.writePlain("Position: %.1fs (%s)\n", record.PositionSec, status)
	r.writePlain("Updated:  %s\n", time.Unix(record.UpdatedAt, 0).Format(time.RFC3339))
	return nil
}

// StateSet writes a playback record for this device.
func (r *Runner) StateSet(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(); err != nil {
		return err
	}

	trackID := cmd.String("track")
	position := cmd.Float("position")
	playing := cmd.Bool("playing")

	err := r.states.Set(r.config.Device.ID, r.config.Device.Name, trackID, position, playing)
	if err != nil {
		return err
	}

	r.logger.Info("playback state written", "track", trackID, "position", position)
	return r.writePlain("✓ State saved: %s at %.1fs\n", trackID, position)
}

// StateClear deletes the playback record.
func (r *Runner) StateClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(); err != nil {
		return err
	}

	if err := r.states.Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Playback state cleared\n")
}
