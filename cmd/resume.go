package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/resume"
	"github.com/urfave/cli/v3"
)

// simPlayer stands in for a real audio engine so the resume maneuver can be
// exercised from the terminal. Playback position advances with wall time.
type simPlayer struct {
	mu        sync.Mutex
	logger    *log.Logger
	duration  float64
	loaded    string
	playing   bool
	muted     bool
	volume    float64
	base      float64
	startedAt time.Time
}

func newSimPlayer(duration float64, logger *log.Logger) *simPlayer {
	return &simPlayer{duration: duration, volume: 1.0, logger: logger}
}

func (p *simPlayer) Load(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debug("player: load", "url", url)
	p.loaded = url
	p.base = 0
	p.playing = false
	return nil
}

func (p *simPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debug("player: play")
	if !p.playing {
		p.playing = true
		p.startedAt = time.Now()
	}
	return nil
}

func (p *simPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debug("player: pause")
	if p.playing {
		p.base += time.Since(p.startedAt).Seconds()
		p.playing = false
	}
	return nil
}

func (p *simPlayer) Seek(positionSec float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debug("player: seek", "position", positionSec)
	p.base = positionSec
	if p.playing {
		p.startedAt = time.Now()
	}
	return nil
}

func (p *simPlayer) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

func (p *simPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *simPlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *simPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return p.base + time.Since(p.startedAt).Seconds()
	}
	return p.base
}

func (p *simPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded == "" {
		return 0
	}
	return p.duration
}

func (p *simPlayer) HasActiveSession() bool { return false }

// autoAccept answers the resume prompt without asking.
type autoAccept struct{}

func (autoAccept) Confirm(ctx context.Context, deviceName string) (bool, error) {
	return true, nil
}

// Resume runs a single resume check against the shared playback record.
func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	if err := r.openResolver(); err != nil {
		return err
	}

	var prompter resume.Prompter = r.prompter
	if cmd.Bool("yes") || prompter == nil {
		prompter = autoAccept{}
	}

	player := newSimPlayer(cmd.Float("duration"), r.logger)
	notifier := resume.NewHTTPNotifier(
		fmt.Sprintf("http://%s:%d", r.config.Server.Host, r.config.Server.Port),
		r.httpClient,
	)

	coordinator := resume.NewCoordinator(resume.Opts{
		DeviceID:     r.config.Device.ID,
		DeviceName:   r.config.Device.Name,
		States:       r.states,
		Suppression:  r.suppression,
		Resolver:     r.resolver,
		Player:       player,
		Prompter:     prompter,
		Notifier:     notifier,
		ToleranceSec: r.config.Resume.ToleranceSec,
		SuppressFor:  r.config.Resume.Suppression(),
		Logger:       r.logger,
	})
	defer coordinator.Close()

	outcome, err := coordinator.Run(ctx)
	if err != nil {
		return err
	}

	switch {
	case outcome.Resumed && outcome.CrossDevice:
		r.writePlain("✓ Resumed %s at %.1fs (from %s)\n", outcome.TrackID, outcome.PositionSec, outcome.FromDevice)
	case outcome.Resumed:
		r.writePlain("✓ Restored %s at %.1fs\n", outcome.TrackID, outcome.PositionSec)
	case outcome.State == resume.StateIdle:
		r.writePlain("Prompt declined; staying put for a while.\n")
	default:
		r.writePlain("Nothing to resume.\n")
	}
	return nil
}
