package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/cache"
	"github.com/desertthunder/playsync/internal/cloud"
	"github.com/desertthunder/playsync/internal/library"
	"github.com/desertthunder/playsync/internal/notify"
	"github.com/desertthunder/playsync/internal/resume"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/state"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, cache, and resolver open lazily so commands like setup can
// run before any of them exist.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	bus        *notify.Bus
	prompter   resume.Prompter

	db          *sql.DB
	cache       *cache.Store
	gateway     cloud.Gateway
	warmer      *library.Warmer
	tracks      *library.TrackRepository
	resolver    *library.Resolver
	states      *state.Store
	suppression *state.SuppressionStore
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	DB         *sql.DB
	Prompter   resume.Prompter
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		bus:        notify.NewBus(),
		prompter:   opts.Prompter,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, resolveCommand, trackCommand, cacheCommand, stateCommand, resumeCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the configured sqlite database once and reuses it.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.db = db
	return db, nil
}

// openStores builds the state stores and track repository over the database.
func (r *Runner) openStores() error {
	db, err := r.database()
	if err != nil {
		return err
	}

	if r.states == nil {
		r.states = state.NewStore(db, r.config.Resume.StateTTL())
	}
	if r.suppression == nil {
		r.suppression = state.NewSuppressionStore(db)
	}
	if r.tracks == nil {
		r.tracks = library.NewTrackRepository(db)
	}
	return nil
}

// openResolver builds the cache store, cloud gateway, warmer, and resolver.
//
// A missing cloud provider is not fatal: the resolver serves local and
// cached tracks and reports everything else unavailable.
func (r *Runner) openResolver() error {
	if r.resolver != nil {
		return nil
	}
	if err := r.openStores(); err != nil {
		return err
	}

	store, err := cache.Open(r.config.Cache.Path(), r.config.Cache.CapacityBytes, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	r.cache = store

	gateway, err := cloud.FromConfig(r.config.Cloud)
	if err != nil {
		if !errors.Is(err, shared.ErrNoProvider) {
			return fmt.Errorf("failed to configure cloud gateway: %w", err)
		}
		r.logger.Debug("no cloud provider configured, cloud tier disabled")
	}
	r.gateway = gateway

	r.warmer = library.NewWarmer(library.WarmerOpts{
		Store:      store,
		Bus:        r.bus,
		HTTPClient: r.httpClient,
		RateLimit:  r.config.Cache.WarmRateLimit,
		Logger:     r.logger,
	})

	r.resolver = library.NewResolver(r.tracks, store, gateway, r.warmer, r.logger)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
