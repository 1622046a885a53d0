package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/repositories"
	"github.com/desertthunder/marquee/internal/services"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/desertthunder/marquee/internal/tasks"
	"github.com/desertthunder/marquee/internal/watchlist"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	catalog services.Catalog
	logger  *log.Logger
	output  io.Writer
	store   *watchlist.Store
	db      *sql.DB
	engine  *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog services.Catalog
	Logger  *log.Logger
	Output  io.Writer
	Store   *watchlist.Store // opened from the configured database on first use when nil
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

	return &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		logger:  opts.Logger,
		output:  opts.Output,
		store:   opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, listCommand, statsCommand, addCommand, removeCommand, toggleCommand, priorityCommand,
		notesCommand, clearCommand, importCommand, exportCommand, searchCommand, watchCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Watchlist returns the store, opening the configured slot on first use.
//
// The store becomes the process-wide default, so every consumer in this process shares it.
func (r *Runner) Watchlist() (*watchlist.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if r.config.Database.Path != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	opts := watchlist.Options{
		Slots:  repositories.NewSlotRepository(db, r.config.Watchlist.QuotaBytes),
		Key:    r.config.Watchlist.Slot,
		Logger: r.logger,
	}
	if err := watchlist.Configure(opts); err != nil {
		if !errors.Is(err, shared.ErrAlreadyConfigured) {
			db.Close()
			return nil, err
		}
		r.logger.Warn("default watchlist already open, reusing it")
		db.Close()
		db = nil
	}

	r.db = db
	r.store = watchlist.Default()
	return r.store, nil
}

// Engine returns the bulk task engine bound to the store and catalog.
func (r *Runner) Engine() (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	store, err := r.Watchlist()
	if err != nil {
		return nil, err
	}
	r.engine = tasks.NewEngine(store, r.catalog)
	return r.engine, nil
}

// Catalog returns the configured catalog or [shared.ErrMissingAPIKey].
func (r *Runner) Catalog() (services.Catalog, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: set catalog.api_key in config.toml", shared.ErrMissingAPIKey)
	}
	return r.catalog, nil
}

// Close drains pending notifications and releases the database.
func (r *Runner) Close() error {
	if r.store != nil {
		r.store.Close()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// syncOptions builds the cross-process watcher settings for the configured database.
func (r *Runner) syncOptions() watchlist.SyncOptions {
	opts := watchlist.SyncOptions{
		Interval: r.config.Watchlist.PollInterval,
		Logger:   r.logger,
	}
	if path := r.config.Database.Path; path != "" && path != ":memory:" {
		opts.Dir = filepath.Dir(path)
	}
	return opts
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
