package library

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/cache"
	"github.com/desertthunder/playsync/internal/notify"
	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Warmer fetches cloud objects into the cache store in the background.
//
// Fetches are de-duplicated per content hash: concurrent resolutions of
// the same uncached track share a single download. A rate limiter keeps
// background traffic from starving foreground playback.
type Warmer struct {
	store      *cache.Store
	bus        *notify.Bus
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group
	logger     *log.Logger
	timeout    time.Duration
	wg         sync.WaitGroup
}

// WarmerOpts configures a Warmer.
type WarmerOpts struct {
	Store      *cache.Store
	Bus        *notify.Bus
	HTTPClient *http.Client
	RateLimit  float64 // fetches per second (default 2)
	Timeout    time.Duration
	Logger     *log.Logger
}

// NewWarmer creates a Warmer over the cache store.
func NewWarmer(opts WarmerOpts) *Warmer {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Warmer{
		store:      opts.Store,
		bus:        opts.Bus,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:     opts.Logger,
		timeout:    opts.Timeout,
	}
}

// Warm fetches url into the cache under hash, detached from the caller.
//
// Returns immediately; failures are logged, never surfaced. An in-flight
// fetch for the same hash is joined instead of duplicated.
func (w *Warmer) Warm(hash, url string) {
	if hash == "" || url == "" {
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if _, err, _ := w.group.Do(hash, func() (any, error) {
			return nil, w.fetch(hash, url)
		}); err != nil {
			w.logger.Warnf("cache warm failed for %s: %v", hash, err)
		}
	}()
}

// WarmMany prefetches a set of hash→URL pairs with bounded concurrency.
// Used by the CLI to pre-populate the cache; individual failures do not
// stop the batch.
func (w *Warmer) WarmMany(ctx context.Context, urls map[string]string, workers int) error {
	if workers <= 0 {
		workers = 2
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for hash, url := range urls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err, _ := w.group.Do(hash, func() (any, error) {
				return nil, w.fetch(hash, url)
			}); err != nil {
				w.logger.Warnf("cache warm failed for %s: %v", hash, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Drain blocks until all detached fetches complete.
func (w *Warmer) Drain() {
	w.wg.Wait()
}

func (w *Warmer) fetch(hash, url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	// Already cached by the time we got here
	if _, ok := w.store.Get(hash); ok {
		return nil
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: fetch returned status %d", shared.ErrUpstream, resp.StatusCode)
	}

	if _, err := w.store.Put(hash, resp.Body); err != nil {
		return fmt.Errorf("failed to cache fetched bytes: %w", err)
	}

	if w.bus != nil {
		w.bus.Publish(notify.TopicCacheWarmed, hash)
	}

	return nil
}
