// Package resume implements the cross-device resume coordinator.
//
// The coordinator replaces the media element's implicit callback chains
// (canplay, seeked, timeupdate) with an explicit state machine: every wait
// has a single entry, a single exit, and its own timeout, and cancelling
// the maneuver is one context reset instead of scattered listener
// teardown. A resume that fails or times out never blocks normal playback
// of the loaded track; the machine always lands in Done with the player
// deterministically paused.
package resume

import (
	"context"
	"time"

	"github.com/desertthunder/playsync/internal/library"
	"github.com/desertthunder/playsync/internal/models"
)

// SyncState is a node in the coordinator's state machine.
type SyncState int

const (
	StateIdle SyncState = iota
	StateChecking
	StateNoResume
	StatePromptPending
	StateAutoResuming
	StateSyncing
	StateDone
)

func (s SyncState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateNoResume:
		return "no_resume"
	case StatePromptPending:
		return "prompt_pending"
	case StateAutoResuming:
		return "auto_resuming"
	case StateSyncing:
		return "syncing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Player abstracts the audio element driving actual output.
//
// CurrentTime and Duration are polled during the maneuver; Duration
// returns zero until the media reports a usable length.
type Player interface {
	Load(url string) error
	Play() error
	Pause() error
	Seek(positionSec float64) error
	SetMuted(muted bool)
	Volume() float64
	SetVolume(v float64)
	CurrentTime() float64
	Duration() float64
	// HasActiveSession reports whether the player is already mid-session,
	// in which case no resume check should interfere.
	HasActiveSession() bool
}

// Prompter asks the user whether to take over playback from another device.
// Dismissal is equivalent to answering no.
type Prompter interface {
	Confirm(ctx context.Context, deviceName string) (bool, error)
}

// Notifier tells another device's session that its position was claimed.
// Calls are best-effort fire-and-forget.
type Notifier interface {
	NotifyStop(ctx context.Context, deviceID string) error
}

// PlaybackStates is the store subset the coordinator reads and writes.
type PlaybackStates interface {
	Get(excludeDeviceID string) (*models.PlaybackState, error)
	Set(deviceID, deviceName, trackID string, positionSec float64, isPlaying bool) error
}

// Suppression persists the prompt cooldown between sessions.
type Suppression interface {
	Window() (*models.SuppressionWindow, error)
	Suppress(window time.Duration) error
}

// Resolver turns a remote record's track id into a playable URL.
type Resolver interface {
	ResolveID(ctx context.Context, trackID string) (*library.Resolution, error)
}

// Timeouts guards every wait stage of the maneuver.
type Timeouts struct {
	Readiness time.Duration // media reports a usable duration
	Forward   time.Duration // forward-play into the tolerance band
	Settle    time.Duration // let the decoder commit after reaching the band
	PauseRace time.Duration // absorb late pause events from the engine
	Ceiling   time.Duration // whole-maneuver upper bound
}

// DefaultTimeouts mirrors the tuning the maneuver was designed around.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Readiness: 3 * time.Second,
		Forward:   5 * time.Second,
		Settle:    1200 * time.Millisecond,
		PauseRace: 150 * time.Millisecond,
		Ceiling:   8 * time.Second,
	}
}

// Outcome reports where a resume check ended up.
type Outcome struct {
	State       SyncState
	Resumed     bool
	CrossDevice bool
	FromDevice  string // name of the device the session came from
	TrackID     string
	PositionSec float64
}
