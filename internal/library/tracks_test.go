package library

import (
	"errors"
	"testing"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
)

func newTestRepo(t *testing.T) *TrackRepository {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewTrackRepository(db)
}

func TestTrackRepository_UpsertGet(t *testing.T) {
	repo := newTestRepo(t)

	track := models.Track{
		ID:          "t1",
		Hash:        "h1",
		LocalPath:   "/music/song.mp3",
		CloudKey:    "tracks/h1.mp3",
		DurationSec: 241.5,
	}
	if err := repo.Upsert(track); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := repo.Get("t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if *got != track {
		t.Errorf("Get = %+v, want %+v", got, track)
	}

	byHash, err := repo.GetByHash("h1")
	if err != nil {
		t.Fatalf("GetByHash failed: %v", err)
	}
	if byHash.ID != "t1" {
		t.Errorf("GetByHash id = %q, want t1", byHash.ID)
	}
}

func TestTrackRepository_UpsertOverwritesLocations(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Upsert(models.Track{ID: "t1", Hash: "h1"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := repo.Upsert(models.Track{ID: "t1", Hash: "h1", CloudKey: "tracks/h1"}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := repo.Get("t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CloudKey != "tracks/h1" {
		t.Errorf("CloudKey = %q after upsert, want tracks/h1", got.CloudKey)
	}

	tracks, err := repo.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Errorf("List returned %d tracks, want 1 (no duplicate rows)", len(tracks))
	}
}

func TestTrackRepository_ValidationErrors(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Upsert(models.Track{Hash: "h1"}); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("missing id error = %v, want ErrInvalidInput", err)
	}
	if err := repo.Upsert(models.Track{ID: "t1"}); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("missing hash error = %v, want ErrInvalidInput", err)
	}
}

func TestTrackRepository_LocalPathLifecycle(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Upsert(models.Track{ID: "t1", Hash: "h1"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := repo.SetLocalPath("t1", "/music/song.mp3"); err != nil {
		t.Fatalf("SetLocalPath failed: %v", err)
	}
	got, _ := repo.Get("t1")
	if got.LocalPath != "/music/song.mp3" {
		t.Errorf("LocalPath = %q after set", got.LocalPath)
	}

	if err := repo.ClearLocalPath("t1"); err != nil {
		t.Fatalf("ClearLocalPath failed: %v", err)
	}
	got, _ = repo.Get("t1")
	if got.LocalPath != "" {
		t.Errorf("LocalPath = %q after clear, want empty", got.LocalPath)
	}

	if err := repo.ClearLocalPath("missing"); !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("ClearLocalPath(missing) error = %v, want ErrTrackNotFound", err)
	}
}

func TestTrackRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrTrackNotFound", err)
	}
}
