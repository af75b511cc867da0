// package models defines the data model for the playback sync engine
package models

import (
	"time"
)

// Track identifies a single audio file in the library.
//
// ID and Hash are immutable once indexed. LocalPath comes and goes as files
// are downloaded or evicted; CloudKey never changes after upload.
type Track struct {
	ID          string  `json:"id"`
	Hash        string  `json:"hash"`
	LocalPath   string  `json:"local_path,omitempty"`
	CloudKey    string  `json:"cloud_key,omitempty"`
	DurationSec float64 `json:"duration_sec"`
}

// CacheEntry maps a track's content hash to a cached file.
type CacheEntry struct {
	Hash       string    `json:"hash"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

// PlaybackState is the library-wide latest playback record.
//
// Exactly one current record exists at any time; whichever device is
// actively playing overwrites it on every transport event. UpdatedAt is
// wall-clock unix seconds.
type PlaybackState struct {
	DeviceID    string  `json:"device_id"`
	DeviceName  string  `json:"device_name"`
	TrackID     string  `json:"track_id"`
	PositionSec float64 `json:"position_sec"`
	IsPlaying   bool    `json:"is_playing"`
	UpdatedAt   int64   `json:"updated_at"`
}

// Fresh reports whether the record is younger than ttl at the given instant.
func (s *PlaybackState) Fresh(ttl time.Duration, now time.Time) bool {
	if s == nil {
		return false
	}
	return now.Unix()-s.UpdatedAt < int64(ttl.Seconds())
}

// Age returns how old the record is at the given instant.
func (s *PlaybackState) Age(now time.Time) time.Duration {
	return time.Duration(now.Unix()-s.UpdatedAt) * time.Second
}

// SuppressionWindow is the client-local pair that keeps the resume prompt
// from reappearing after a dismissal.
type SuppressionWindow struct {
	SuppressUntil time.Time `json:"suppress_until"`
	CooldownSetAt time.Time `json:"cooldown_set_at"`
}

// Suppresses reports whether a remote record updated at stateUpdatedAt
// should be hidden at the given instant.
//
// A record written after CooldownSetAt overrides the window: a new remote
// playback event always beats an old dismissal.
func (w *SuppressionWindow) Suppresses(stateUpdatedAt int64, now time.Time) bool {
	if w == nil {
		return false
	}
	if !now.Before(w.SuppressUntil) {
		return false
	}
	return stateUpdatedAt <= w.CooldownSetAt.Unix()
}
