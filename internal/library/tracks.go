package library

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
)

// TrackRepository persists the track index: where each track's bytes are
// known to live. Hash and cloud key never change after upload; the local
// path comes and goes as files are downloaded or evicted.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert inserts a track or refreshes its locations by id.
func (r *TrackRepository) Upsert(track models.Track) error {
	if track.ID == "" || track.Hash == "" {
		return fmt.Errorf("%w: track id and hash are required", shared.ErrInvalidInput)
	}

	now := time.Now()
	query := `
		INSERT INTO tracks (id, hash, local_path, cloud_key, duration_sec, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			local_path = excluded.local_path,
			cloud_key = excluded.cloud_key,
			duration_sec = excluded.duration_sec,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		track.ID,
		track.Hash,
		nullable(track.LocalPath),
		nullable(track.CloudKey),
		track.DurationSec,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}

	return nil
}

// Get retrieves a track by id.
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	query := `
		SELECT id, hash, local_path, cloud_key, duration_sec
		FROM tracks
		WHERE id = ?
	`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByHash retrieves a track by content hash.
func (r *TrackRepository) GetByHash(hash string) (*models.Track, error) {
	query := `
		SELECT id, hash, local_path, cloud_key, duration_sec
		FROM tracks
		WHERE hash = ?
	`
	return r.scanOne(r.db.QueryRow(query, hash))
}

// SetLocalPath records a freshly downloaded file location for a track.
func (r *TrackRepository) SetLocalPath(id, path string) error {
	return r.updatePath(id, nullable(path))
}

// ClearLocalPath drops a track's local path after the file disappeared.
func (r *TrackRepository) ClearLocalPath(id string) error {
	return r.updatePath(id, nil)
}

func (r *TrackRepository) updatePath(id string, path any) error {
	result, err := r.db.Exec(
		"UPDATE tracks SET local_path = ?, updated_at = ? WHERE id = ?",
		path, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update local path: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves all indexed tracks ordered by id.
func (r *TrackRepository) List() ([]models.Track, error) {
	rows, err := r.db.Query(`
		SELECT id, hash, local_path, cloud_key, duration_sec
		FROM tracks
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var (
			track     models.Track
			localPath sql.NullString
			cloudKey  sql.NullString
		)
		if err := rows.Scan(&track.ID, &track.Hash, &localPath, &cloudKey, &track.DurationSec); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		track.LocalPath = localPath.String
		track.CloudKey = cloudKey.String
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

func (r *TrackRepository) scanOne(row *sql.Row) (*models.Track, error) {
	var (
		track     models.Track
		localPath sql.NullString
		cloudKey  sql.NullString
	)

	err := row.Scan(&track.ID, &track.Hash, &localPath, &cloudKey, &track.DurationSec)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w", shared.ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track.LocalPath = localPath.String
	track.CloudKey = cloudKey.String
	return &track, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
