package watchlist

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/sourcegraph/conc/panics"
)

// Listener receives a snapshot after every notifying mutation.
type Listener func(models.Snapshot)

type subscriber struct {
	id     uint64
	fn     Listener
	active atomic.Bool
}

type delivery struct {
	snapshot models.Snapshot
	targets  []*subscriber
	flushed  chan struct{}
}

// bus delivers snapshots on a single dispatcher goroutine in the order they were queued.
type bus struct {
	logger *log.Logger
	events *EventChannel

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []delivery
	subs   []*subscriber
	nextID uint64
	closed bool
	done   chan struct{}
}

func newBus(events *EventChannel, logger *log.Logger) *bus {
	b := &bus{logger: logger, events: events, done: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)
	go b.run()
	return b
}

func (b *bus) subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{id: b.nextID, fn: fn}
	sub.active.Store(true)
	b.subs = append(b.subs, sub)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)

			b.mu.Lock()
			defer b.mu.Unlock()
			b.subs = slices.DeleteFunc(b.subs, func(s *subscriber) bool { return s.id == sub.id })
		})
	}
}

// notify queues snap for everyone subscribed right now.
func (b *bus) notify(snap models.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.queue = append(b.queue, delivery{snapshot: snap, targets: slices.Clone(b.subs)})
	b.cond.Signal()
}

// flush blocks until every delivery queued before the call has run.
func (b *bus) flush() {
	ch := make(chan struct{})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, delivery{flushed: ch})
	b.cond.Signal()
	b.mu.Unlock()

	<-ch
}

// close stops accepting deliveries and waits for the queue to drain.
func (b *bus) close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		b.cond.Broadcast()
	}
	b.mu.Unlock()

	<-b.done
}

func (b *bus) run() {
	defer close(b.done)

	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		d := b.queue[0]
		b.queue[0] = delivery{}
		b.queue = b.queue[1:]
		b.mu.Unlock()

		b.deliver(d)
	}
}

func (b *bus) deliver(d delivery) {
	if d.flushed != nil {
		close(d.flushed)
		return
	}

	for _, sub := range d.targets {
		if !sub.active.Load() {
			continue
		}

		snap := copySnapshot(d.snapshot)
		var c panics.Catcher
		c.Try(func() { sub.fn(snap) })
		if r := c.Recovered(); r != nil {
			b.logger.Error("watchlist subscriber panicked", "subscriber", sub.id, "panic", r.Value)
		}
	}

	if b.events != nil {
		b.events.Dispatch(Event{Name: EventUpdate, Detail: copySnapshot(d.snapshot)})
	}
}

func copySnapshot(s models.Snapshot) models.Snapshot {
	entries := make([]models.Entry, len(s.Watchlist))
	for i, e := range s.Watchlist {
		entries[i] = e.Clone()
	}
	return models.Snapshot{Watchlist: entries, Stats: s.Stats}
}
