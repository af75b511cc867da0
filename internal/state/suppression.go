package state

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/playsync/internal/models"
)

const (
	keySuppressUntil = "resume.suppress_until"
	keyCooldownSetAt = "resume.cooldown_set_at"
)

// SuppressionStore persists the resume prompt cooldown in the kv table.
//
// Generalizes the browser-localStorage pair to a durable local key-value
// contract: two keys with TTL semantics, nothing else.
type SuppressionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSuppressionStore creates a SuppressionStore over an initialized database.
func NewSuppressionStore(db *sql.DB) *SuppressionStore {
	return &SuppressionStore{db: db, now: time.Now}
}

// Suppress arms the window: prompts stay hidden for records not newer
// than now, until now+window.
func (s *SuppressionStore) Suppress(window time.Duration) error {
	now := s.now()
	if err := s.setKey(keySuppressUntil, strconv.FormatInt(now.Add(window).Unix(), 10)); err != nil {
		return err
	}
	return s.setKey(keyCooldownSetAt, strconv.FormatInt(now.Unix(), 10))
}

// Window returns the persisted suppression pair, or nil when never armed.
func (s *SuppressionStore) Window() (*models.SuppressionWindow, error) {
	until, ok, err := s.getKey(keySuppressUntil)
	if err != nil || !ok {
		return nil, err
	}
	setAt, ok, err := s.getKey(keyCooldownSetAt)
	if err != nil || !ok {
		return nil, err
	}

	untilSec, err := strconv.ParseInt(until, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt suppress_until value %q: %w", until, err)
	}
	setAtSec, err := strconv.ParseInt(setAt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt cooldown_set_at value %q: %w", setAt, err)
	}

	return &models.SuppressionWindow{
		SuppressUntil: time.Unix(untilSec, 0),
		CooldownSetAt: time.Unix(setAtSec, 0),
	}, nil
}

// Clear disarms the window.
func (s *SuppressionStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key IN (?, ?)", keySuppressUntil, keyCooldownSetAt)
	if err != nil {
		return fmt.Errorf("failed to clear suppression window: %w", err)
	}
	return nil
}

func (s *SuppressionStore) setKey(key, value string) error {
	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, s.now()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *SuppressionStore) getKey(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}
