package watchlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/fsnotify/fsnotify"
)

// Syncer defaults.
const (
	DefaultPollInterval = 3 * time.Second
	DefaultDebounce     = 250 * time.Millisecond
)

// SyncOptions configures a [Syncer].
type SyncOptions struct {
	// Dir is watched for file changes, typically the directory holding the database.
	// Empty disables the watcher and leaves only polling.
	Dir      string
	Interval time.Duration
	Debounce time.Duration
	Logger   *log.Logger
}

// Syncer reloads a [Store] when another instance writes to its slot.
type Syncer struct {
	store    *Store
	dir      string
	interval time.Duration
	debounce time.Duration
	logger   *log.Logger

	mu   sync.Mutex
	seen int64
}

// NewSyncer creates a [Syncer] for store.
func NewSyncer(store *Store, opts SyncOptions) *Syncer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Syncer{
		store:    store,
		dir:      opts.Dir,
		interval: opts.Interval,
		debounce: opts.Debounce,
		logger:   shared.WithLogger(opts.Logger, "component", "syncer", "key", store.Key()),
	}
}

// Check compares the slot revision with the last one this instance knows about
// and reloads the store when a different origin wrote it. Reports whether a reload happened.
//
// The local revision is read before the slot's, so a write this instance makes
// in between shows up under its own origin. A failed reload is retried on the next check.
func (s *Syncer) Check() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := s.store.persist.Revision()
	rev, origin, err := s.store.slots.Revision(s.store.Key())
	if err != nil {
		s.logger.Warn("failed to read slot revision", "error", err)
		return false
	}

	if rev == max(s.seen, local) {
		return false
	}
	if origin == s.store.Origin() {
		s.seen = rev
		return false
	}

	s.logger.Debug("slot changed by another instance", "revision", rev, "writer", origin)
	if err := s.store.Reload(); err != nil {
		return false
	}
	s.seen = rev
	return true
}

// Run polls the slot and, when a directory is configured, also checks shortly
// after files in it change. It returns when ctx is done.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if s.dir != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer w.Close()

		if err := w.Add(s.dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", s.dir, err)
		}
		events, errs = w.Events, w.Errors
		s.logger.Debug("watching for slot changes", "dir", s.dir, "interval", s.interval)
	}

	debounce := time.NewTimer(s.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Check()
		case <-debounce.C:
			s.Check()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				debounce.Reset(s.debounce)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}
