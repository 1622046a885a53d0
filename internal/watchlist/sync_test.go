package watchlist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/repositories"
	"github.com/desertthunder/marquee/internal/shared"
	tu "github.com/desertthunder/marquee/internal/testing"
)

func TestSyncerCheck(t *testing.T) {
	slots := repositories.NewMemorySlotRepository(0)
	a := New(Options{Slots: slots, Key: "wl", Origin: "a", Logger: discardLogger()})
	b := New(Options{Slots: slots, Key: "wl", Origin: "b", Logger: discardLogger()})
	t.Cleanup(a.Close)
	t.Cleanup(b.Close)

	syncA := NewSyncer(a, SyncOptions{Logger: discardLogger()})
	syncB := NewSyncer(b, SyncOptions{Logger: discardLogger()})

	t.Run("Nothing Changed", func(t *testing.T) {
		if syncB.Check() {
			t.Error("expected no reload")
		}
	})

	t.Run("Foreign Write Reloads", func(t *testing.T) {
		a.Add(dune, models.Movie)

		if !syncB.Check() {
			t.Fatal("expected b to reload after a's write")
		}
		if !b.IsTracked(42, models.Movie) {
			t.Error("expected b to see a's entry")
		}
		if syncB.Check() {
			t.Error("expected a single reload per write")
		}
	})

	t.Run("Own Write Ignored", func(t *testing.T) {
		if syncA.Check() {
			t.Error("a must not reload its own write")
		}
	})

	t.Run("Reverse Direction", func(t *testing.T) {
		b.ToggleWatched(42, models.Movie)

		if syncB.Check() {
			t.Error("b must not reload its own write")
		}
		if !syncA.Check() {
			t.Fatal("expected a to reload")
		}
		if e, _ := a.Get(42, models.Movie); !e.IsWatched {
			t.Error("expected a to see the toggle")
		}
	})
}

func TestSyncerCheckRetries(t *testing.T) {
	slots := repositories.NewMemorySlotRepository(0)
	flaky := &tu.FlakySlotStore{Slots: slots, Err: errors.New("database is locked")}
	a := New(Options{Slots: slots, Key: "wl", Origin: "a", Logger: discardLogger()})
	b := New(Options{Slots: flaky, Key: "wl", Origin: "b", Logger: discardLogger()})
	t.Cleanup(a.Close)
	t.Cleanup(b.Close)

	b.Add(models.CatalogItem{ID: 1, Title: "One"}, models.Movie)
	syncA := NewSyncer(a, SyncOptions{Logger: discardLogger()})
	syncB := NewSyncer(b, SyncOptions{Logger: discardLogger()})

	t.Run("Failed Reload Is Retried", func(t *testing.T) {
		syncA.Check()
		a.Add(dune, models.Movie)

		flaky.FailReads(1)
		if syncB.Check() {
			t.Fatal("expected no reload while the slot cannot be read")
		}
		if !b.IsTracked(1, models.Movie) || b.IsTracked(42, models.Movie) {
			t.Fatalf("expected b to keep its entries, got %+v", b.GetAll())
		}

		if !syncB.Check() {
			t.Fatal("expected the next check to reload")
		}
		if !b.IsTracked(1, models.Movie) || !b.IsTracked(42, models.Movie) {
			t.Errorf("expected both entries after reload, got %+v", b.GetAll())
		}
	})

	t.Run("Own Write After Foreign Write", func(t *testing.T) {
		a.Remove(1, models.Movie)
		b.ToggleWatched(42, models.Movie)

		if syncB.Check() {
			t.Error("b must not reload when the latest write is its own")
		}
		if !b.IsTracked(1, models.Movie) {
			t.Error("b's own state must stay in place")
		}
	})
}

func TestSyncerRun(t *testing.T) {
	t.Run("Polling", func(t *testing.T) {
		slots := repositories.NewMemorySlotRepository(0)
		a := New(Options{Slots: slots, Key: "wl", Origin: "a", Logger: discardLogger()})
		b := New(Options{Slots: slots, Key: "wl", Origin: "b", Logger: discardLogger()})
		t.Cleanup(a.Close)
		t.Cleanup(b.Close)

		updates := make(chan models.Snapshot, 4)
		defer b.Subscribe(func(s models.Snapshot) { updates <- s })()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- NewSyncer(b, SyncOptions{Interval: 10 * time.Millisecond, Logger: discardLogger()}).Run(ctx) }()

		a.Add(dune, models.Movie)

		select {
		case snap := <-updates:
			if snap.Stats.Total != 1 {
				t.Errorf("expected 1 entry, got %d", snap.Stats.Total)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("b never observed a's write")
		}

		cancel()
		if err := <-done; err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	})

	t.Run("File Watch", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "marquee.db")

		dbA, err := shared.NewDatabase(path)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer dbA.Close()
		if err := shared.RunMigrations(dbA); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		dbB, err := shared.NewDatabase(path)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer dbB.Close()

		a := New(Options{Slots: repositories.NewSlotRepository(dbA, 0), Key: "wl", Origin: "a", Logger: discardLogger()})
		b := New(Options{Slots: repositories.NewSlotRepository(dbB, 0), Key: "wl", Origin: "b", Logger: discardLogger()})
		t.Cleanup(a.Close)
		t.Cleanup(b.Close)

		updates := make(chan models.Snapshot, 4)
		defer b.Subscribe(func(s models.Snapshot) { updates <- s })()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		syncer := NewSyncer(b, SyncOptions{Dir: dir, Interval: time.Hour, Debounce: 10 * time.Millisecond, Logger: discardLogger()})
		go syncer.Run(ctx)

		deadline := time.After(5 * time.Second)
		a.Add(dune, models.Movie)
		for {
			select {
			case snap := <-updates:
				if snap.Stats.Total == 1 {
					return
				}
			case <-time.After(100 * time.Millisecond):
				// the watcher may not have been registered before the first write
				if _, err := a.slots.Put("wl", mustEncode(t, a.GetAll()), "a"); err != nil {
					t.Fatalf("rewrite failed: %v", err)
				}
			case <-deadline:
				t.Fatal("b never observed a's write through the file watcher")
			}
		}
	})

	t.Run("Missing Directory", func(t *testing.T) {
		s := newTestStore(t, nil)
		err := NewSyncer(s, SyncOptions{Dir: filepath.Join(t.TempDir(), "absent"), Logger: discardLogger()}).Run(context.Background())
		if err == nil {
			t.Error("expected an error for a missing directory")
		}
	})
}

func mustEncode(t *testing.T, entries []models.Entry) []byte {
	t.Helper()
	b, err := encode(entries)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return b
}
