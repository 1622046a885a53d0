package watchlist

import (
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/repositories"
	"github.com/desertthunder/marquee/internal/shared"
)

// DefaultSlotKey names the slot the watchlist lives in unless configured otherwise.
const DefaultSlotKey = "movieDashWatchlist"

// Options configures a [Store]. Every field is optional.
type Options struct {
	Slots  SlotStore     // defaults to an in-memory slot store
	Key    string        // defaults to [DefaultSlotKey]
	Origin string        // tags this instance's writes; defaults to a fresh uuid
	Logger *log.Logger   // defaults to stderr
	Events *EventChannel // defaults to a channel owned by the store
	Now    func() time.Time
}

// ImportResult summarizes a call to [Store.Import].
type ImportResult struct {
	Accepted int // records that normalized
	Rejected int // records dropped by normalization
	Added    int // new keys
	Merged   int // accepted records folded into an existing key
}

// Store is the authoritative in-memory watchlist.
//
// All operations are safe for concurrent use and each runs atomically. Every
// mutation is persisted before its notification is queued.
type Store struct {
	logger  *log.Logger
	now     func() time.Time
	persist *Persistence
	bus     *bus
	events  *EventChannel
	slots   SlotStore
	key     string

	mu      sync.Mutex
	entries []models.Entry
}

// New builds a store from the slot named in opts, repairing the slot when its
// canonical form differs from what was stored.
func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Slots == nil {
		opts.Slots = repositories.NewMemorySlotRepository(0)
	}
	if opts.Key == "" {
		opts.Key = DefaultSlotKey
	}
	if opts.Origin == "" {
		opts.Origin = shared.GenerateID()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Events == nil {
		opts.Events = NewEventChannel(opts.Logger)
	}

	logger := shared.WithLogger(opts.Logger, "component", "watchlist", "origin", opts.Origin)
	s := &Store{
		logger:  logger,
		now:     opts.Now,
		persist: NewPersistence(opts.Slots, opts.Key, opts.Origin, logger),
		events:  opts.Events,
		slots:   opts.Slots,
		key:     opts.Key,
	}
	s.bus = newBus(s.events, logger)

	entries, err := s.load()
	if err != nil {
		logger.Warn("starting with an empty watchlist", "error", err)
	}
	s.entries = entries
	logger.Debug("watchlist loaded", "entries", len(s.entries), "revision", s.persist.Revision())
	return s
}

func (s *Store) load() ([]models.Entry, error) {
	records, err := s.persist.Load()
	if err != nil {
		return nil, err
	}

	entries := Dedupe(normalizeAll(records, s.now))
	s.persist.Repair(entries)
	return entries, nil
}

// Snapshot returns the collection and its stats as of the same moment.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// GetAll returns a copy of the collection in its current order.
func (s *Store) GetAll() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.entries)
}

// GetStats computes the aggregate view of the collection.
func (s *Store) GetStats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeStats(s.entries)
}

// IsTracked reports whether an entry with the given key exists.
func (s *Store) IsTracked(id int, mt models.MediaType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id, mt) >= 0
}

// Get returns the entry with the given key.
func (s *Store) Get(id int, mt models.MediaType) (models.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id, mt)
	if i < 0 {
		return models.Entry{}, false
	}
	return s.entries[i].Clone(), true
}

// Add tracks a catalog item as mt, prepending it to the collection.
//
// Returns false when the key is already tracked or the item has no usable title.
func (s *Store) Add(item models.CatalogItem, mt models.MediaType) bool {
	mt = models.ParseMediaType(string(mt))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(item.ID, mt) >= 0 {
		return false
	}

	title := item.DisplayTitle(mt)
	if title == "" {
		s.logger.Warn("refusing to add untitled item", "key", models.EntryKey(item.ID, mt))
		return false
	}

	now := stamp(s.now())
	vote := item.VoteAverage
	if math.IsNaN(vote) || math.IsInf(vote, 0) {
		vote = 0
	}

	e := models.Entry{
		ID:           item.ID,
		MediaType:    mt,
		Title:        title,
		Overview:     strings.TrimSpace(item.Overview),
		PosterPath:   strings.TrimSpace(item.PosterPath),
		BackdropPath: strings.TrimSpace(item.BackdropPath),
		ReleaseYear:  releaseYear(item.Released(mt), nil, now),
		VoteAverage:  vote,
		VoteCount:    max(0, item.VoteCount),
		DateAdded:    now,
		Priority:     models.Medium,
	}

	s.entries = slices.Insert(s.entries, 0, e)
	s.commitLocked()
	s.logger.Info("added to watchlist", "key", e.Key(), "title", e.Title)
	return true
}

// Remove deletes the entry with the given key.
func (s *Store) Remove(id int, mt models.MediaType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id, mt)
	if i < 0 {
		return false
	}

	s.entries = slices.Delete(s.entries, i, i+1)
	s.commitLocked()
	s.logger.Info("removed from watchlist", "key", models.EntryKey(id, mt))
	return true
}

// ToggleWatched flips the watched flag, stamping DateWatched when it becomes
// watched and clearing it when it becomes unwatched.
func (s *Store) ToggleWatched(id int, mt models.MediaType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id, mt)
	if i < 0 {
		return false
	}

	e := &s.entries[i]
	e.IsWatched = !e.IsWatched
	if e.IsWatched {
		watched := stamp(s.now())
		e.DateWatched = &watched
	} else {
		e.DateWatched = nil
	}

	s.commitLocked()
	return true
}

// SetPriority changes the priority of an entry. Values outside high, medium and low are refused.
func (s *Store) SetPriority(id int, mt models.MediaType, p models.Priority) bool {
	priority, ok := models.ParsePriority(string(p))
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id, mt)
	if i < 0 {
		return false
	}

	s.entries[i].Priority = priority
	s.commitLocked()
	return true
}

// UpdateNotes replaces the notes of an entry. Blank text removes them.
//
// The change is persisted but subscribers are not notified.
func (s *Store) UpdateNotes(id int, mt models.MediaType, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id, mt)
	if i < 0 {
		return false
	}

	s.entries[i].Notes = strings.TrimSpace(text)
	s.persist.Save(s.entries)
	return true
}

// Clear empties the collection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.commitLocked()
	s.logger.Info("cleared watchlist")
}

// ForceUpdate re-notifies subscribers with the current state.
func (s *Store) ForceUpdate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.notify(s.snapshotLocked())
}

// Reload re-reads the slot, replacing the in-memory collection, and notifies subscribers.
//
// When the slot cannot be read the collection is kept, nobody is notified
// and the read error is returned.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		s.logger.Warn("reload failed, keeping current watchlist", "error", err)
		return err
	}

	s.entries = entries
	s.logger.Debug("watchlist reloaded", "entries", len(s.entries), "revision", s.persist.Revision())
	s.bus.notify(s.snapshotLocked())
	return nil
}

// Import merges loosely shaped records into the collection.
//
// Records go through the same normalization and merge rules as the slot
// itself. Subscribers are notified once when anything was accepted.
func (s *Store) Import(records []any) ImportResult {
	incoming := normalizeAll(records, s.now)
	result := ImportResult{Accepted: len(incoming), Rejected: len(records) - len(incoming)}
	if len(incoming) == 0 {
		return result
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.entries)
	s.entries = Dedupe(append(cloneEntries(s.entries), incoming...))
	result.Added = len(s.entries) - before
	result.Merged = result.Accepted - result.Added

	s.commitLocked()
	s.logger.Info("imported into watchlist", "accepted", result.Accepted, "rejected", result.Rejected, "added", result.Added)
	return result
}

// Subscribe registers fn for every future notification. Call the returned
// func to stop; it is safe to call more than once.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	return s.bus.subscribe(fn)
}

// Events returns the channel the store publishes [EventUpdate] on.
func (s *Store) Events() *EventChannel {
	return s.events
}

// Origin identifies this instance's writes to the slot.
func (s *Store) Origin() string {
	return s.persist.Origin()
}

// Key is the name of the slot backing the store.
func (s *Store) Key() string {
	return s.key
}

// Flush waits until every notification queued so far has been delivered.
//
// Must not be called from a subscriber.
func (s *Store) Flush() {
	s.bus.flush()
}

// Close delivers pending notifications and stops the dispatcher.
// Mutations after Close still persist but notify nobody.
func (s *Store) Close() {
	s.bus.close()
}

func (s *Store) indexLocked(id int, mt models.MediaType) int {
	mt = models.ParseMediaType(string(mt))
	return slices.IndexFunc(s.entries, func(e models.Entry) bool {
		return e.ID == id && e.MediaType == mt
	})
}

// commitLocked persists the collection, then queues the notification.
func (s *Store) commitLocked() {
	s.persist.Save(s.entries)
	s.bus.notify(s.snapshotLocked())
}

func (s *Store) snapshotLocked() models.Snapshot {
	return models.Snapshot{Watchlist: cloneEntries(s.entries), Stats: ComputeStats(s.entries)}
}

func cloneEntries(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
