package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// MemorySlotRepository keeps slots in process memory with the same semantics as [SlotRepository].
type MemorySlotRepository struct {
	mu    sync.RWMutex
	slots map[string]models.Slot
	quota int
}

// NewMemorySlotRepository creates an empty in-memory slot store.
func NewMemorySlotRepository(quota int) *MemorySlotRepository {
	return &MemorySlotRepository{slots: make(map[string]models.Slot), quota: quota}
}

// Get returns a copy of the slot stored under key.
func (r *MemorySlotRepository) Get(key string) (*models.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, ok := r.slots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSlotNotFound, key)
	}
	slot.Value = append([]byte(nil), slot.Value...)
	return &slot, nil
}

// Put replaces the value stored under key and returns the new revision.
func (r *MemorySlotRepository) Put(key string, value []byte, origin string) (int64, error) {
	if r.quota > 0 && len(value) > r.quota {
		return 0, fmt.Errorf("%w: %d bytes exceeds %d", shared.ErrQuotaExceeded, len(value), r.quota)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slots[key]
	slot.Key = key
	slot.Value = append([]byte(nil), value...)
	slot.Revision++
	slot.Origin = origin
	slot.UpdatedAt = time.Now().UTC()
	r.slots[key] = slot

	return slot.Revision, nil
}

// Revision returns the current revision and writer of key.
func (r *MemorySlotRepository) Revision(key string) (int64, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot := r.slots[key]
	return slot.Revision, slot.Origin, nil
}

// Delete removes key.
func (r *MemorySlotRepository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.slots, key)
	return nil
}

// Keys lists every stored slot key in lexical order.
func (r *MemorySlotRepository) Keys() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.slots))
	for k := range r.slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
