package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/repositories"
	"github.com/desertthunder/marquee/internal/shared"
	tu "github.com/desertthunder/marquee/internal/testing"
	"github.com/desertthunder/marquee/internal/watchlist"
)

var (
	dune      = models.CatalogItem{ID: 42, Title: "Dune", VoteAverage: 8.1, ReleaseDate: "2021-10-01"}
	arrival   = models.CatalogItem{ID: 329865, Title: "Arrival", VoteAverage: 7.6, ReleaseDate: "2016-11-10"}
	severance = models.CatalogItem{ID: 95396, Name: "Severance", VoteAverage: 8.4, FirstAirDate: "2022-02-17"}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, catalog *tu.MockCatalog) (*Model, *watchlist.Store) {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	store := watchlist.New(watchlist.Options{
		Slots:  repositories.NewMemorySlotRepository(0),
		Key:    "wl",
		Origin: "ui-test",
		Logger: logger,
	})
	t.Cleanup(store.Close)

	var m *Model
	if catalog == nil {
		m = NewModel(context.Background(), store, nil, logger)
	} else {
		m = NewModel(context.Background(), store, catalog, logger)
	}
	t.Cleanup(m.Close)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, store
}

// deliver waits for the store to deliver and feeds the resulting snapshot to the model.
func deliver(t *testing.T, m *Model, store *watchlist.Store) {
	t.Helper()
	store.Flush()

	msg := m.waitForSnapshot()()
	if msg == nil {
		t.Fatal("expected a snapshot message")
	}
	m.Update(msg)
}

func entriesOf(m *Model) []models.Entry {
	var out []models.Entry
	for _, item := range m.entries.Items() {
		out = append(out, item.(entryItem).entry)
	}
	return out
}

func TestModel(t *testing.T) {
	t.Run("Init renders the current watchlist", func(t *testing.T) {
		m, store := newTestModel(t, nil)
		store.Add(dune, models.Movie)
		store.Add(severance, models.Series)

		if m.Init() == nil {
			t.Fatal("expected Init to wait for snapshots")
		}
		if got := len(m.entries.Items()); got != 2 {
			t.Fatalf("expected 2 items, got %d", got)
		}

		view := m.View()
		for _, want := range []string{"Watchlist · 2 titles, 0 watched", "Severance (2022)", "Dune (2021)"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q", want)
			}
		}
	})

	t.Run("Empty watchlist", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		m.Init()

		if !strings.Contains(m.View(), "Nothing here yet") {
			t.Errorf("expected empty state, got %s", m.View())
		}
	})

	t.Run("Toggle watched", func(t *testing.T) {
		m, store := newTestModel(t, nil)
		store.Add(dune, models.Movie)
		m.Init()

		m.Update(runes("w"))
		deliver(t, m, store)

		entries := entriesOf(m)
		if !entries[0].IsWatched {
			t.Error("expected entry to be watched after w")
		}
		if m.stats.Watched != 1 {
			t.Errorf("expected stats to follow, got %+v", m.stats)
		}
	})

	t.Run("Cycle priority", func(t *testing.T) {
		m, store := newTestModel(t, nil)
		store.Add(dune, models.Movie)
		m.Init()

		m.Update(runes("p"))
		deliver(t, m, store)

		if got := entriesOf(m)[0].Priority; got != models.Low {
			t.Errorf("expected medium to cycle to low, got %s", got)
		}
	})

	t.Run("Remove requires confirmation", func(t *testing.T) {
		m, store := newTestModel(t, nil)
		store.Add(dune, models.Movie)
		m.Init()

		m.Update(runes("d"))
		if m.State() != ConfirmView {
			t.Fatalf("expected ConfirmView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "Remove 'Dune' from the watchlist?") {
			t.Errorf("unexpected confirm view %s", m.View())
		}

		m.Update(runes("n"))
		if m.State() != ListView || !store.IsTracked(42, models.Movie) {
			t.Fatal("declining must keep the entry")
		}

		m.Update(runes("d"))
		m.Update(runes("y"))
		if store.IsTracked(42, models.Movie) {
			t.Error("expected entry to be removed")
		}
		deliver(t, m, store)
		if len(m.entries.Items()) != 0 {
			t.Error("expected list to empty out")
		}
		if m.status != "Removed Dune" {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("External changes are rendered", func(t *testing.T) {
		m, store := newTestModel(t, nil)
		m.Init()

		store.Add(arrival, models.Movie)
		store.Add(dune, models.Movie)
		deliver(t, m, store)

		if got := len(entriesOf(m)); got != 2 {
			t.Errorf("expected the latest snapshot with 2 entries, got %d", got)
		}
	})

	t.Run("Quit unsubscribes", func(t *testing.T) {
		m, store := newTestModel(t, nil)
		m.Init()

		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}

		store.Add(dune, models.Movie)
		store.Flush()
		if msg := m.waitForSnapshot()(); msg != nil {
			t.Errorf("expected no delivery after quit, got %v", msg)
		}
		m.Close()
	})
}

func TestModelAdd(t *testing.T) {
	catalog := tu.NewMockCatalog([]models.CatalogItem{dune, arrival}, []models.CatalogItem{severance})

	search := func(t *testing.T, m *Model, query string) {
		t.Helper()
		m.Update(runes("a"))
		if m.State() != SearchView {
			t.Fatalf("expected SearchView, got %v", m.State())
		}
		m.Update(runes(query))
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if cmd == nil {
			t.Fatal("expected a search command")
		}
		m.Update(cmd())
	}

	t.Run("Search and add a movie", func(t *testing.T) {
		m, store := newTestModel(t, catalog)
		m.Init()

		search(t, m, "dune")
		if m.State() != ResultView {
			t.Fatalf("expected ResultView, got %v (status %q)", m.State(), m.status)
		}
		if !strings.Contains(m.View(), `Results for "dune"`) {
			t.Errorf("unexpected results view %s", m.View())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.State() != ListView {
			t.Errorf("expected ListView after adding, got %v", m.State())
		}
		if !store.IsTracked(42, models.Movie) {
			t.Error("expected Dune to be tracked")
		}
		if m.status != "Added Dune" {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("Tab switches to series", func(t *testing.T) {
		m, store := newTestModel(t, catalog)
		m.Init()

		m.Update(runes("a"))
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if !strings.Contains(m.View(), "Add a series") {
			t.Errorf("expected series search, got %s", m.View())
		}
		m.Update(runes("sever"))
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(cmd())
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if !store.IsTracked(95396, models.Series) {
			t.Error("expected Severance to be tracked as a series")
		}
	})

	t.Run("Already tracked", func(t *testing.T) {
		m, store := newTestModel(t, catalog)
		store.Add(dune, models.Movie)
		m.Init()

		search(t, m, "dune")
		if !strings.Contains(m.View(), "(tracked)") {
			t.Error("expected tracked marker in results")
		}
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.status != "Dune is already on the watchlist" {
			t.Errorf("unexpected status %q", m.status)
		}
		if store.GetStats().Total != 1 {
			t.Error("duplicate add must not grow the watchlist")
		}
	})

	t.Run("No results", func(t *testing.T) {
		m, _ := newTestModel(t, catalog)
		m.Init()

		search(t, m, "zzz")
		if m.State() != SearchView {
			t.Errorf("expected to stay in SearchView, got %v", m.State())
		}
		if m.status != `No movie results for "zzz"` {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("Search failure", func(t *testing.T) {
		failing := tu.NewMockCatalog(nil, nil)
		failing.Err = errors.New("boom")
		m, _ := newTestModel(t, failing)
		m.Init()

		search(t, m, "dune")
		if !strings.Contains(m.status, "Search failed: boom") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("Escape returns to the list", func(t *testing.T) {
		m, _ := newTestModel(t, catalog)
		m.Init()

		m.Update(runes("a"))
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.State() != ListView {
			t.Errorf("expected ListView, got %v", m.State())
		}
	})

	t.Run("No catalog", func(t *testing.T) {
		m, _ := newTestModel(t, nil)
		m.Init()

		m.Update(runes("a"))
		if m.State() != ListView {
			t.Errorf("expected to stay in ListView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "No catalog configured") {
			t.Error("expected a hint about the missing catalog")
		}
	})
}
