// package state persists the library-wide playback record and the
// client-local suppression window.
//
// The playback record is a single row overwritten on every transport
// event: writes are idempotent last-writer-wins, with no merge logic.
// Only one device is expected to be actively playing at a time, so a
// stale write from a backgrounded device is acceptable noise.
package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/playsync/internal/models"
)

// Store reads and writes the single current playback record.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewStore creates a Store over an initialized database. Records older
// than ttl are treated as absent by readers.
func NewStore(db *sql.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{db: db, ttl: ttl, now: time.Now}
}

// Set overwrites the current record for the given device.
func (s *Store) Set(deviceID, deviceName, trackID string, positionSec float64, isPlaying bool) error {
	if deviceID == "" || trackID == "" {
		return fmt.Errorf("device id and track id are required")
	}

	query := `
		INSERT INTO playback_state (rowid_fixed, device_id, device_name, track_id, position_sec, is_playing, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rowid_fixed) DO UPDATE SET
			device_id = excluded.device_id,
			device_name = excluded.device_name,
			track_id = excluded.track_id,
			position_sec = excluded.position_sec,
			is_playing = excluded.is_playing,
			updated_at = excluded.updated_at
	`

	playing := 0
	if isPlaying {
		playing = 1
	}

	_, err := s.db.Exec(query, deviceID, deviceName, trackID, positionSec, playing, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write playback state: %w", err)
	}

	return nil
}

// Get returns the current record, or nil when there is none.
//
// A record belonging to excludeDeviceID, or one older than the configured
// TTL, behaves as "no state" so a device never resumes from itself through
// the cross-device path. Pass an empty string to skip exclusion.
func (s *Store) Get(excludeDeviceID string) (*models.PlaybackState, error) {
	query := `
		SELECT device_id, device_name, track_id, position_sec, is_playing, updated_at
		FROM playback_state
		WHERE rowid_fixed = 1
	`

	var (
		record  models.PlaybackState
		playing int
	)

	err := s.db.QueryRow(query).Scan(
		&record.DeviceID,
		&record.DeviceName,
		&record.TrackID,
		&record.PositionSec,
		&playing,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read playback state: %w", err)
	}
	record.IsPlaying = playing != 0

	if excludeDeviceID != "" && record.DeviceID == excludeDeviceID {
		return nil, nil
	}
	if !record.Fresh(s.ttl, s.now()) {
		return nil, nil
	}

	return &record, nil
}

// Clear removes the current record.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM playback_state WHERE rowid_fixed = 1"); err != nil {
		return fmt.Errorf("failed to clear playback state: %w", err)
	}
	return nil
}
