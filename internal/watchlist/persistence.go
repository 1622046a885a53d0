package watchlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// SlotStore is a durable key-value store holding whole-collection values.
//
// Implemented by [repositories.SlotRepository] and [repositories.MemorySlotRepository].
type SlotStore interface {
	Get(key string) (*models.Slot, error)
	Put(key string, value []byte, origin string) (int64, error)
	Revision(key string) (int64, string, error)
}

// Persistence reads and writes the watchlist slot.
//
// Save never returns errors: failures are logged and the caller continues
// with its in-memory state.
type Persistence struct {
	slots  SlotStore
	key    string
	origin string
	logger *log.Logger

	mu       sync.Mutex
	revision int64
	raw      []byte
	isArray  bool
}

// NewPersistence creates a [Persistence] for the slot named key, tagging writes with origin.
func NewPersistence(slots SlotStore, key, origin string, logger *log.Logger) *Persistence {
	return &Persistence{slots: slots, key: key, origin: origin, logger: logger}
}

// Load returns the records stored in the slot.
//
// An absent slot or a value that is not a JSON array yields no records.
// A failed read is returned as an error and leaves the last known revision in place.
func (p *Persistence) Load() ([]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, err := p.slots.Get(p.key)
	if errors.Is(err, shared.ErrSlotNotFound) {
		p.revision = 0
		p.raw, p.isArray = nil, false
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist slot %s: %w", p.key, err)
	}

	p.revision = slot.Revision
	p.raw, p.isArray = slot.Value, false

	var decoded any
	if err := json.Unmarshal(slot.Value, &decoded); err != nil {
		p.logger.Warn("discarding malformed watchlist slot", "key", p.key, "error", err)
		return nil, nil
	}

	records, ok := decoded.([]any)
	if !ok {
		p.logger.Warn("discarding watchlist slot that is not an array", "key", p.key)
		return nil, nil
	}

	p.isArray = true
	return records, nil
}

// Save replaces the slot with the whole collection.
func (p *Persistence) Save(entries []models.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write(entries)
}

// Repair writes entries back when their canonical form differs from what Load read.
//
// Nothing is written when the last Load found no array. Reports whether a write happened.
func (p *Persistence) Repair(entries []models.Entry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isArray {
		return false
	}

	canonical, err := encode(entries)
	if err != nil || bytes.Equal(canonical, p.raw) {
		return false
	}

	p.logger.Info("repairing watchlist slot", "key", p.key, "before", len(p.raw), "after", len(canonical))
	return p.write(entries)
}

// Revision is the slot revision last read or written by this instance.
func (p *Persistence) Revision() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revision
}

// Origin is the tag written alongside every value.
func (p *Persistence) Origin() string {
	return p.origin
}

func (p *Persistence) write(entries []models.Entry) bool {
	value, err := encode(entries)
	if err != nil {
		p.logger.Warn("failed to encode watchlist", "key", p.key, "error", err)
		return false
	}

	rev, err := p.slots.Put(p.key, value, p.origin)
	switch {
	case errors.Is(err, shared.ErrQuotaExceeded):
		p.logger.Warn("watchlist not persisted, storage quota exceeded", "key", p.key, "bytes", len(value), "error", err)
		return false
	case err != nil:
		p.logger.Warn("failed to persist watchlist", "key", p.key, "error", err)
		return false
	}

	p.revision = rev
	p.raw, p.isArray = value, true
	return true
}

func encode(entries []models.Entry) ([]byte, error) {
	if entries == nil {
		entries = []models.Entry{}
	}
	return json.Marshal(entries)
}
