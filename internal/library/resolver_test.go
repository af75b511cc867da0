package library

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/playsync/internal/cache"
	"github.com/desertthunder/playsync/internal/cloud"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/notify"
	"github.com/desertthunder/playsync/internal/shared"
)

// mockIndex is a test double for TrackIndex.
type mockIndex struct {
	mu      sync.Mutex
	tracks  map[string]*models.Track
	cleared []string
}

func (m *mockIndex) Get(id string) (*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if track, ok := m.tracks[id]; ok {
		copied := *track
		return &copied, nil
	}
	return nil, shared.ErrTrackNotFound
}

func (m *mockIndex) ClearLocalPath(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, id)
	if track, ok := m.tracks[id]; ok {
		track.LocalPath = ""
	}
	return nil
}

// mockGateway counts Sign calls.
type mockGateway struct {
	calls atomic.Int64
	url   string
	err   error
}

func (m *mockGateway) Sign(ctx context.Context, cloudKey string) (*cloud.SignedURL, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return &cloud.SignedURL{URL: m.url, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func newTestCache(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(t.TempDir(), 1<<20, nil)
	if err != nil {
		t.Fatalf("cache.Open failed: %v", err)
	}
	return s
}

func writeLocalFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write local file: %v", err)
	}
	return path
}

func TestResolver_TierPrecedence(t *testing.T) {
	// Track present in all three tiers resolves to the local tier.
	localPath := writeLocalFile(t, "local bytes")
	store := newTestCache(t)
	if _, err := store.Put("h1", strings.NewReader("cached bytes")); err != nil {
		t.Fatalf("cache Put failed: %v", err)
	}

	gw := &mockGateway{url: "https://signed.example.com/h1"}
	index := &mockIndex{tracks: map[string]*models.Track{
		"t1": {ID: "t1", Hash: "h1", LocalPath: localPath, CloudKey: "tracks/h1"},
	}}

	r := NewResolver(index, store, gw, nil, nil)

	res, err := r.ResolveID(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Tier != TierLocal {
		t.Errorf("Tier = %v, want local", res.Tier)
	}
	if res.Path != localPath {
		t.Errorf("Path = %q, want %q", res.Path, localPath)
	}
	if gw.calls.Load() != 0 {
		t.Errorf("gateway signed %d times during local resolution", gw.calls.Load())
	}
}

func TestResolver_StaleLocalPathFallsToCache(t *testing.T) {
	store := newTestCache(t)
	cachedPath, err := store.Put("h1", strings.NewReader("cached bytes"))
	if err != nil {
		t.Fatalf("cache Put failed: %v", err)
	}

	index := &mockIndex{tracks: map[string]*models.Track{
		"t1": {ID: "t1", Hash: "h1", LocalPath: "/gone/track.mp3"},
	}}

	r := NewResolver(index, store, nil, nil, nil)

	res, err := r.ResolveID(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Tier != TierCache {
		t.Errorf("Tier = %v, want cache", res.Tier)
	}
	if res.Path != cachedPath {
		t.Errorf("Path = %q, want %q", res.Path, cachedPath)
	}
	if len(index.cleared) != 1 || index.cleared[0] != "t1" {
		t.Errorf("stale local path not dropped from index: %v", index.cleared)
	}
}

func TestResolver_CacheHitSkipsSigning(t *testing.T) {
	store := newTestCache(t)
	if _, err := store.Put("h1", strings.NewReader("cached bytes")); err != nil {
		t.Fatalf("cache Put failed: %v", err)
	}

	gw := &mockGateway{url: "https://signed.example.com/h1"}
	index := &mockIndex{tracks: map[string]*models.Track{
		"t1": {ID: "t1", Hash: "h1", CloudKey: "tracks/h1"},
	}}

	r := NewResolver(index, store, gw, nil, nil)

	res, err := r.ResolveID(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Tier != TierCache {
		t.Errorf("Tier = %v, want cache", res.Tier)
	}
	if gw.calls.Load() != 0 {
		t.Errorf("gateway signed %d times on cache hit; want 0", gw.calls.Load())
	}
}

func TestResolver_CloudTierWarmsCache(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte("cloud bytes"))
	}))
	defer srv.Close()

	store := newTestCache(t)
	bus := notify.NewBus()
	warmed, cancel := bus.Subscribe(notify.TopicCacheWarmed)
	defer cancel()

	warmer := NewWarmer(WarmerOpts{Store: store, Bus: bus, RateLimit: 100})
	gw := &mockGateway{url: srv.URL + "/h1"}
	index := &mockIndex{tracks: map[string]*models.Track{
		"t1": {ID: "t1", Hash: "h1", CloudKey: "tracks/h1"},
	}}

	r := NewResolver(index, store, gw, warmer, nil)

	res, err := r.ResolveID(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Tier != TierCloud {
		t.Errorf("Tier = %v, want cloud", res.Tier)
	}
	if res.URL != srv.URL+"/h1" {
		t.Errorf("URL = %q", res.URL)
	}

	warmer.Drain()

	if _, ok := store.Get("h1"); !ok {
		t.Error("background warm did not populate the cache")
	}
	select {
	case evt := <-warmed:
		if evt.Payload != "h1" {
			t.Errorf("warm event payload = %v, want h1", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Error("no cache.warmed event published")
	}

	if fetches.Load() != 1 {
		t.Errorf("cloud fetched %d times, want 1", fetches.Load())
	}
}

func TestResolver_ConcurrentResolveDeduplicatesWarm(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("cloud bytes"))
	}))
	defer srv.Close()

	store := newTestCache(t)
	warmer := NewWarmer(WarmerOpts{Store: store, RateLimit: 1000})
	gw := &mockGateway{url: srv.URL + "/h1"}
	index := &mockIndex{tracks: map[string]*models.Track{
		"t1": {ID: "t1", Hash: "h1", CloudKey: "tracks/h1"},
	}}

	r := NewResolver(index, store, gw, warmer, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.ResolveID(context.Background(), "t1"); err != nil {
				t.Errorf("Resolve failed: %v", err)
			}
		}()
	}
	wg.Wait()
	warmer.Drain()

	if got := fetches.Load(); got != 1 {
		t.Errorf("%d background fetches for one track, want 1", got)
	}
}

func TestResolver_NotFoundInAnyTier(t *testing.T) {
	index := &mockIndex{tracks: map[string]*models.Track{
		"t1": {ID: "t1", Hash: "h1"},
	}}
	r := NewResolver(index, newTestCache(t), nil, nil, nil)

	if _, err := r.ResolveID(context.Background(), "t1"); !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("error = %v, want ErrTrackNotFound", err)
	}

	if _, err := r.ResolveID(context.Background(), "missing"); !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("unknown id error = %v, want ErrTrackNotFound", err)
	}
}

func TestResolver_UpstreamErrorPropagates(t *testing.T) {
	gw := &mockGateway{err: shared.ErrUpstream}
	index := &mockIndex{tracks: map[string]*models.Track{
		"t1": {ID: "t1", Hash: "h1", CloudKey: "tracks/h1"},
	}}
	r := NewResolver(index, newTestCache(t), gw, nil, nil)

	if _, err := r.ResolveID(context.Background(), "t1"); !errors.Is(err, shared.ErrUpstream) {
		t.Errorf("error = %v, want ErrUpstream", err)
	}
}
