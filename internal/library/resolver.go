// package library implements the tiered track resolution engine and the
// index of known track locations.
//
// Resolution order is Local, then Cache, then Cloud. The local path is
// re-checked against the filesystem on every call rather than trusted from
// the index, and a cloud resolution kicks off a detached cache warm so the
// next resolution hits tier two.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/cache"
	"github.com/desertthunder/playsync/internal/cloud"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
)

// Tier identifies which lookup tier produced a resolution.
type Tier int

const (
	TierLocal Tier = iota
	TierCache
	TierCloud
)

func (t Tier) String() string {
	switch t {
	case TierLocal:
		return "local"
	case TierCache:
		return "cache"
	case TierCloud:
		return "cloud"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the tier by name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a tier name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "local":
		*t = TierLocal
	case "cache":
		*t = TierCache
	case "cloud":
		*t = TierCloud
	default:
		return fmt.Errorf("%w: unknown tier %q", shared.ErrInvalidInput, name)
	}
	return nil
}

// Resolution is a playable reference for a track.
type Resolution struct {
	Tier      Tier      `json:"tier"`
	URL       string    `json:"url"`
	Path      string    `json:"path,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// TrackIndex is the subset of the track repository the resolver needs.
type TrackIndex interface {
	Get(id string) (*models.Track, error)
	ClearLocalPath(id string) error
}

// Resolver turns a track into a playable URL via the tiered lookup.
type Resolver struct {
	index   TrackIndex
	cache   *cache.Store
	gateway cloud.Gateway
	warmer  *Warmer
	logger  *log.Logger
}

// NewResolver assembles a Resolver. gateway and warmer may be nil when the
// cloud tier is not configured.
func NewResolver(index TrackIndex, store *cache.Store, gateway cloud.Gateway, warmer *Warmer, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{
		index:   index,
		cache:   store,
		gateway: gateway,
		warmer:  warmer,
		logger:  logger,
	}
}

// ResolveID looks the track up in the index and resolves it.
func (r *Resolver) ResolveID(ctx context.Context, trackID string) (*Resolution, error) {
	track, err := r.index.Get(trackID)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, *track)
}

// Resolve returns a playable reference for the track.
//
// Local wins over cache when both exist: freshest bytes, no duplicates.
// Tier-3 resolutions warm the cache in the background without blocking
// the response.
func (r *Resolver) Resolve(ctx context.Context, track models.Track) (*Resolution, error) {
	// Tier 1: live-check the known local path, never trust the stale index
	if track.LocalPath != "" {
		if _, err := os.Stat(track.LocalPath); err == nil {
			return &Resolution{Tier: TierLocal, URL: fileURL(track.LocalPath), Path: track.LocalPath}, nil
		}

		r.logger.Debugf("local path gone for track %s, dropping from index", track.ID)
		if err := r.index.ClearLocalPath(track.ID); err != nil && !errors.Is(err, shared.ErrTrackNotFound) {
			r.logger.Warnf("failed to clear stale local path for %s: %v", track.ID, err)
		}
	}

	// Tier 2: content-addressed cache; Get refreshes last access
	if track.Hash != "" && r.cache != nil {
		if path, ok := r.cache.Get(track.Hash); ok {
			return &Resolution{Tier: TierCache, URL: fileURL(path), Path: path}, nil
		}
	}

	// Tier 3: signed cloud URL plus detached cache warm
	if track.CloudKey == "" || r.gateway == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID)
	}

	signed, err := r.gateway.Sign(ctx, track.CloudKey)
	if err != nil {
		return nil, err
	}

	if r.warmer != nil {
		r.warmer.Warm(track.Hash, signed.URL)
	}

	return &Resolution{Tier: TierCloud, URL: signed.URL, ExpiresAt: signed.ExpiresAt}, nil
}

func fileURL(path string) string {
	return "file://" + path
}
