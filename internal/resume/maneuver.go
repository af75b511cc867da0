package resume

import (
	"context"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/notify"
)

// sync executes the resume maneuver and the post-Done bookkeeping.
//
// Seeking alone leaves decode state inconsistent on some playback engines,
// so after the seek the player briefly plays forward until currentTime
// enters the tolerance band below the target, which forces the decoder to
// commit to the position, and only then pauses. Every wait stage has its
// own timeout and the whole maneuver has a ceiling; any timeout still
// lands in Done with the player paused at whatever position it reached.
func (c *Coordinator) sync(ctx context.Context, remote *models.PlaybackState, crossDevice bool) *Outcome {
	c.setState(StateSyncing)

	c.maneuver(ctx, remote)

	c.setState(StateDone)
	position := c.player.CurrentTime()

	if crossDevice && c.notifier != nil {
		// Fire-and-forget: the other device may already be gone
		go func(deviceID string) {
			nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.notifier.NotifyStop(nctx, deviceID); err != nil {
				c.logger.Debugf("notify-stop to %s failed: %v", deviceID, err)
			}
		}(remote.DeviceID)
	}

	if crossDevice {
		if err := c.suppression.Suppress(c.suppressFor); err != nil {
			c.logger.Warnf("failed to arm suppression window after resume: %v", err)
		}
	}

	if err := c.states.Set(c.deviceID, c.deviceName, remote.TrackID, position, false); err != nil {
		c.logger.Warnf("failed to write back playback state: %v", err)
	}

	if c.bus != nil {
		c.bus.Publish(notify.TopicQueueResync, remote.TrackID)
	}

	return &Outcome{
		State:       StateDone,
		Resumed:     true,
		CrossDevice: crossDevice,
		FromDevice:  remote.DeviceName,
		TrackID:     remote.TrackID,
		PositionSec: position,
	}
}

// maneuver is the load→seek→play-forward→pause sequence. Player errors
// abort silently; the deferred block guarantees the deterministic end
// state (paused, original volume) on every path.
func (c *Coordinator) maneuver(ctx context.Context, remote *models.PlaybackState) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Ceiling)
	defer cancel()

	originalVolume := c.player.Volume()
	defer func() {
		if err := c.player.Pause(); err != nil {
			c.logger.Debugf("final pause failed: %v", err)
		}
		// Absorb late pause events from the engine before reporting paused
		sleep(ctx, c.timeouts.PauseRace)
		c.player.SetMuted(false)
		c.player.SetVolume(originalVolume)
	}()

	if err := c.player.Pause(); err != nil {
		c.logger.Debugf("pre-sync pause failed: %v", err)
	}
	c.player.SetMuted(true)

	resolution, err := c.resolver.ResolveID(ctx, remote.TrackID)
	if err != nil {
		c.logger.Warnf("resume aborted: track %s did not resolve: %v", remote.TrackID, err)
		return
	}
	if err := c.player.Load(resolution.URL); err != nil {
		c.logger.Warnf("resume aborted: load failed: %v", err)
		return
	}

	// Wait for the media to report a usable duration
	if !c.poll(ctx, c.timeouts.Readiness, func() bool { return c.player.Duration() > 0 }) {
		c.logger.Debug("resume: duration readiness timed out")
		return
	}

	target := min(remote.PositionSec, c.player.Duration())
	if err := c.player.Seek(target); err != nil {
		c.logger.Warnf("resume aborted: seek failed: %v", err)
		return
	}

	if err := c.player.Play(); err != nil {
		c.logger.Warnf("resume aborted: forward play failed: %v", err)
		return
	}

	band := target - c.tolerance
	if c.poll(ctx, c.timeouts.Forward, func() bool { return c.player.CurrentTime() >= band }) {
		// Let the decoder settle inside the band before pausing
		sleep(ctx, c.timeouts.Settle)
	} else {
		c.logger.Debug("resume: forward play timed out short of the band")
	}
}

// poll waits for cond within the stage timeout, bounded by the maneuver
// ceiling carried in ctx.
func (c *Coordinator) poll(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	stage, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if cond() {
			return true
		}
		select {
		case <-ticker.C:
		case <-stage.Done():
			return cond()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
