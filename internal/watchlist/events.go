package watchlist

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/sourcegraph/conc/panics"
)

// Event names carried by an [EventChannel].
const (
	// EventUpdate is published after every notifying mutation. Detail is a [models.Snapshot].
	EventUpdate = "watchlist:update"
	// EventAdd asks the store to add an item. Detail is an [AddDetail].
	EventAdd = "watchlist:add"
	// EventLegacyAdd is the older name of [EventAdd].
	EventLegacyAdd = "addToWatchlist"
	// EventRemove asks the store to remove an entry. Detail is a [KeyDetail].
	EventRemove = "watchlist:remove"
	// EventToggle asks the store to flip an entry's watched flag. Detail is a [KeyDetail].
	EventToggle = "watchlist:toggle"
)

// Event is a named message with an arbitrary payload.
type Event struct {
	Name   string
	Detail any
}

// AddDetail is the payload of [EventAdd] and [EventLegacyAdd].
type AddDetail struct {
	Item models.CatalogItem `json:"item"`
	Type string             `json:"type"`
}

// KeyDetail is the payload of [EventRemove] and [EventToggle].
type KeyDetail struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// Handler reacts to an [Event].
type Handler func(Event)

type handlerEntry struct {
	id uint64
	fn Handler
}

// EventChannel is a named publish point shared by consumers that do not hold a *Store.
//
// Handlers run synchronously inside Dispatch, in registration order. A
// panicking handler is logged and does not stop the others.
type EventChannel struct {
	logger *log.Logger

	mu       sync.RWMutex
	handlers map[string][]handlerEntry
	nextID   uint64
	bind     sync.Once
}

// NewEventChannel creates an empty [EventChannel].
func NewEventChannel(logger *log.Logger) *EventChannel {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &EventChannel{logger: logger, handlers: make(map[string][]handlerEntry)}
}

// On registers fn for events called name and returns a func that removes it.
func (c *EventChannel) On(name string, fn Handler) (off func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.handlers[name] = append(c.handlers[name], handlerEntry{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.handlers[name] = slices.DeleteFunc(c.handlers[name], func(h handlerEntry) bool { return h.id == id })
	}
}

// Dispatch calls every handler registered for ev.Name.
func (c *EventChannel) Dispatch(ev Event) {
	c.mu.RLock()
	handlers := slices.Clone(c.handlers[ev.Name])
	c.mu.RUnlock()

	for _, h := range handlers {
		var pc panics.Catcher
		pc.Try(func() { h.fn(ev) })
		if r := pc.Recovered(); r != nil {
			c.logger.Error("event handler panicked", "event", ev.Name, "panic", r.Value)
		}
	}
}

// DecodeEvent builds an [Event] from its name and JSON payload, as received from outside the process.
func DecodeEvent(name string, detail json.RawMessage) (Event, error) {
	switch name {
	case EventAdd, EventLegacyAdd:
		var d AddDetail
		if err := json.Unmarshal(detail, &d); err != nil {
			return Event{}, fmt.Errorf("%w: %s detail: %v", shared.ErrInvalidInput, name, err)
		}
		return Event{Name: name, Detail: d}, nil
	case EventRemove, EventToggle:
		var d KeyDetail
		if err := json.Unmarshal(detail, &d); err != nil {
			return Event{}, fmt.Errorf("%w: %s detail: %v", shared.ErrInvalidInput, name, err)
		}
		return Event{Name: name, Detail: d}, nil
	default:
		return Event{}, fmt.Errorf("%w: unknown event %q", shared.ErrInvalidInput, name)
	}
}

// BindEvents routes the input events on c to store.
//
// Only the first call for a given channel has any effect.
func BindEvents(c *EventChannel, store *Store) {
	c.bind.Do(func() {
		onAdd := func(ev Event) {
			d, ok := detailAs[AddDetail](ev.Detail)
			if !ok {
				c.logger.Warn("ignoring malformed event", "event", ev.Name)
				return
			}
			mt := models.ParseMediaType(d.Type)
			added := store.Add(d.Item, mt)
			c.logger.Debug("handled event", "event", ev.Name, "key", models.EntryKey(d.Item.ID, mt), "ok", added)
		}
		c.On(EventAdd, onAdd)
		c.On(EventLegacyAdd, onAdd)

		c.On(EventRemove, func(ev Event) {
			d, ok := detailAs[KeyDetail](ev.Detail)
			if !ok {
				c.logger.Warn("ignoring malformed event", "event", ev.Name)
				return
			}
			removed := store.Remove(d.ID, models.ParseMediaType(d.Type))
			c.logger.Debug("handled event", "event", ev.Name, "id", d.ID, "ok", removed)
		})

		c.On(EventToggle, func(ev Event) {
			d, ok := detailAs[KeyDetail](ev.Detail)
			if !ok {
				c.logger.Warn("ignoring malformed event", "event", ev.Name)
				return
			}
			toggled := store.ToggleWatched(d.ID, models.ParseMediaType(d.Type))
			c.logger.Debug("handled event", "event", ev.Name, "id", d.ID, "ok", toggled)
		})
	})
}

// detailAs accepts a typed payload, a pointer to one or any JSON-shaped value.
func detailAs[T any](detail any) (T, bool) {
	var zero T
	switch v := detail.(type) {
	case T:
		return v, true
	case *T:
		if v == nil {
			return zero, false
		}
		return *v, true
	case json.RawMessage:
		return decodeAs[T](v)
	case []byte:
		return decodeAs[T](v)
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return zero, false
		}
		return decodeAs[T](b)
	default:
		return zero, false
	}
}

func decodeAs[T any](b []byte) (T, bool) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return v, false
	}
	return v, true
}
