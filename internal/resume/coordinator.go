package resume

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/notify"
	"github.com/desertthunder/playsync/internal/shared"
)

// Coordinator drives the resume state machine for one device session.
type Coordinator struct {
	deviceID   string
	deviceName string

	states      PlaybackStates
	suppression Suppression
	resolver    Resolver
	player      Player
	prompter    Prompter
	notifier    Notifier
	bus         *notify.Bus

	timeouts     Timeouts
	tolerance    float64
	suppressFor  time.Duration
	pollInterval time.Duration

	logger *log.Logger
	now    func() time.Time

	librarySynced <-chan notify.Event
	cancelSub     func()

	mu      sync.Mutex
	current SyncState
}

// Opts configures a Coordinator.
type Opts struct {
	DeviceID   string
	DeviceName string

	States      PlaybackStates
	Suppression Suppression
	Resolver    Resolver
	Player      Player
	Prompter    Prompter
	Notifier    Notifier

	// Bus, when set, gates the first check on the library.synced topic so
	// track ids are resolvable before the store is queried.
	Bus *notify.Bus

	Timeouts     Timeouts
	ToleranceSec float64
	SuppressFor  time.Duration
	PollInterval time.Duration
	Logger       *log.Logger
}

// NewCoordinator wires a Coordinator. Subscribes to library.synced
// immediately so a sync completing before Run is not missed.
func NewCoordinator(opts Opts) *Coordinator {
	if opts.Timeouts == (Timeouts{}) {
		opts.Timeouts = DefaultTimeouts()
	}
	if opts.ToleranceSec <= 0 {
		opts.ToleranceSec = 0.5
	}
	if opts.SuppressFor <= 0 {
		opts.SuppressFor = 30 * time.Minute
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	c := &Coordinator{
		deviceID:     opts.DeviceID,
		deviceName:   opts.DeviceName,
		states:       opts.States,
		suppression:  opts.Suppression,
		resolver:     opts.Resolver,
		player:       opts.Player,
		prompter:     opts.Prompter,
		notifier:     opts.Notifier,
		bus:          opts.Bus,
		timeouts:     opts.Timeouts,
		tolerance:    opts.ToleranceSec,
		suppressFor:  opts.SuppressFor,
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
		now:          time.Now,
		current:      StateIdle,
	}

	if c.bus != nil {
		c.librarySynced, c.cancelSub = c.bus.Subscribe(notify.TopicLibrarySynced)
	}

	return c
}

// State returns the machine's current node.
func (c *Coordinator) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Coordinator) setState(s SyncState) {
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	c.logger.Debugf("resume state -> %s", s)
}

// Close releases the library sync subscription.
func (c *Coordinator) Close() {
	if c.cancelSub != nil {
		c.cancelSub()
	}
}

// Run performs one resume check: query the store, decide same-device vs
// cross-device, confirm with the user when needed, and execute the sync
// maneuver. Media and timing failures are swallowed; the returned error is
// only ever a context cancellation before the check could start.
func (c *Coordinator) Run(ctx context.Context) (*Outcome, error) {
	c.setState(StateChecking)

	// Track ids are not resolvable until library and queue sync complete
	if c.librarySynced != nil {
		select {
		case <-c.librarySynced:
		case <-ctx.Done():
			c.setState(StateIdle)
			return nil, ctx.Err()
		}
	}

	if c.player.HasActiveSession() {
		return c.noResume("player already has an active session"), nil
	}

	remote, err := c.states.Get("")
	if err != nil {
		c.logger.Warnf("resume check: state read failed: %v", err)
		return c.noResume("state unavailable"), nil
	}
	if remote == nil {
		return c.noResume("no fresh playback state"), nil
	}

	// Reconnect on the same device restores silently; there is no
	// cross-device conflict to confirm.
	if remote.DeviceID == c.deviceID {
		c.setState(StateAutoResuming)
		return c.sync(ctx, remote, false), nil
	}

	if c.suppressed(remote.UpdatedAt) {
		return c.noResume("prompt suppressed"), nil
	}

	c.setState(StatePromptPending)
	accepted, err := c.prompter.Confirm(ctx, remote.DeviceName)
	if err != nil {
		c.logger.Warnf("resume prompt failed: %v", err)
		accepted = false
	}
	if !accepted {
		if err := c.suppression.Suppress(c.suppressFor); err != nil {
			c.logger.Warnf("failed to arm suppression window: %v", err)
		}
		c.setState(StateIdle)
		return &Outcome{State: StateIdle, FromDevice: remote.DeviceName}, nil
	}

	return c.sync(ctx, remote, true), nil
}

// suppressed applies the cooldown with its override: a remote record
// written after cooldown_set_at always reopens the prompt.
func (c *Coordinator) suppressed(stateUpdatedAt int64) bool {
	window, err := c.suppression.Window()
	if err != nil {
		c.logger.Warnf("failed to read suppression window: %v", err)
		return false
	}
	return window.Suppresses(stateUpdatedAt, c.now())
}

func (c *Coordinator) noResume(reason string) *Outcome {
	c.logger.Debugf("no resume: %s", reason)
	c.setState(StateNoResume)
	return &Outcome{State: StateNoResume}
}
