package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/services"
	"github.com/desertthunder/marquee/internal/watchlist"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	ConfirmView
	SearchView
	ResultView
)

// Watchlist is the part of [watchlist.Store] the TUI drives.
type Watchlist interface {
	GetAll() []models.Entry
	GetStats() models.Stats
	IsTracked(id int, mt models.MediaType) bool
	Add(item models.CatalogItem, mt models.MediaType) bool
	Remove(id int, mt models.MediaType) bool
	ToggleWatched(id int, mt models.MediaType) bool
	SetPriority(id int, mt models.MediaType, p models.Priority) bool
	Subscribe(fn watchlist.Listener) (unsubscribe func())
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	store       Watchlist
	catalog     services.Catalog
	logger      *log.Logger
	width       int
	height      int
	entries     list.Model
	results     list.Model
	query       textinput.Model
	kind        models.MediaType
	stats       models.Stats
	pending     *models.Entry
	status      string
	err         error
	updates     chan models.Snapshot
	done        chan struct{}
	stop        sync.Once
	unsubscribe func()
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// catalog may be nil, in which case adding titles is disabled.
func NewModel(ctx context.Context, store Watchlist, catalog services.Catalog, logger *log.Logger) *Model {
	query := textinput.New()
	query.Placeholder = "Title"
	query.CharLimit = 120

	entries := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	entries.Title = "Watchlist"
	entries.SetShowHelp(false)
	entries.KeyMap.Quit.SetEnabled(false)

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.SetShowHelp(false)
	results.KeyMap.Quit.SetEnabled(false)

	if logger == nil {
		logger = log.Default()
	}

	return &Model{
		ctx:     ctx,
		view:    ListView,
		store:   store,
		catalog: catalog,
		logger:  logger,
		entries: entries,
		results: results,
		query:   query,
		kind:    models.Movie,
		updates: make(chan models.Snapshot, 1),
		done:    make(chan struct{}),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init subscribes to the store and renders its current contents.
func (m *Model) Init() tea.Cmd {
	m.unsubscribe = m.store.Subscribe(m.receive)
	m.setEntries(m.store.GetAll(), m.store.GetStats())
	return m.waitForSnapshot()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.entries.SetSize(msg.Width-4, msg.Height-6)
		m.results.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgSnapshot:
			snap := msg.data.(models.Snapshot)
			m.setEntries(snap.Watchlist, snap.Stats)
			return m, m.waitForSnapshot()
		case MsgSearchResults:
			return m.showResults(msg.data.(searchResults))
		}
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ListView:
		return m.renderList()
	case ConfirmView:
		return m.renderConfirm()
	case SearchView:
		return m.renderSearch()
	case ResultView:
		return m.renderResults()
	default:
		return ""
	}
}

// State reports the current view.
func (m *Model) State() ViewState {
	return m.view
}

// Close drops the store subscription. Safe to call more than once.
func (m *Model) Close() {
	m.stop.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		close(m.done)
	})
}

// receive runs on the store's dispatcher; it replaces any snapshot not yet rendered.
func (m *Model) receive(snap models.Snapshot) {
	for {
		select {
		case m.updates <- snap:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-m.updates:
			return snapshotMsg(snap)
		case <-m.done:
			return nil
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) setEntries(entries []models.Entry, stats models.Stats) {
	m.stats = stats
	m.entries.Title = fmt.Sprintf("Watchlist · %d titles, %d watched", stats.Total, stats.Watched)
	m.entries.SetItems(entryItems(entries))
}

func (m *Model) selected() (models.Entry, bool) {
	item, ok := m.entries.SelectedItem().(entryItem)
	if !ok {
		return models.Entry{}, false
	}
	return item.entry, true
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entries.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.entries, cmd = m.entries.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.toggle):
		if e, ok := m.selected(); ok {
			m.store.ToggleWatched(e.ID, e.MediaType)
		}
		return m, nil
	case key.Matches(msg, m.keys.priority):
		if e, ok := m.selected(); ok {
			m.store.SetPriority(e.ID, e.MediaType, e.Priority.Next())
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if e, ok := m.selected(); ok {
			m.pending = &e
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.add):
		if m.catalog == nil {
			m.status = "No catalog configured; run setup to add an API key"
			return m, nil
		}
		m.status = ""
		m.view = SearchView
		m.query.SetValue("")
		return m, m.query.Focus()
	}

	var cmd tea.Cmd
	m.entries, cmd = m.entries.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		if m.pending != nil && m.store.Remove(m.pending.ID, m.pending.MediaType) {
			m.status = fmt.Sprintf("Removed %s", m.pending.Title)
		}
		m.pending = nil
		m.view = ListView
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = ListView
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.query.Blur()
		m.view = ListView
		return m, nil
	case msg.Type == tea.KeyCtrlC:
		return m.quit()
	case key.Matches(msg, m.keys.kind):
		if m.kind == models.Movie {
			m.kind = models.Series
		} else {
			m.kind = models.Movie
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		query := strings.TrimSpace(m.query.Value())
		if query == "" {
			return m, nil
		}
		m.status = fmt.Sprintf("Searching %s for %q…", m.catalog.Name(), query)
		return m, m.search(query, m.kind)
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		return m, m.query.Focus()
	case key.Matches(msg, m.keys.enter):
		if hit, ok := m.results.SelectedItem().(resultItem); ok {
			title := hit.item.DisplayTitle(hit.kind)
			if m.store.Add(hit.item, hit.kind) {
				m.status = fmt.Sprintf("Added %s", title)
			} else {
				m.status = fmt.Sprintf("%s is already on the watchlist", title)
			}
			m.view = ListView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) showResults(res searchResults) (tea.Model, tea.Cmd) {
	if res.err != nil {
		m.logger.Warn("catalog search failed", "query", res.query, "error", res.err)
		m.status = fmt.Sprintf("Search failed: %v", res.err)
		return m, nil
	}
	if len(res.items) == 0 {
		m.status = fmt.Sprintf("No %s results for %q", strings.ToLower(res.kind.Label()), res.query)
		return m, nil
	}

	items := make([]list.Item, len(res.items))
	for i, item := range res.items {
		items[i] = resultItem{item: item, kind: res.kind, tracked: m.store.IsTracked(item.ID, res.kind)}
	}
	m.status = ""
	m.results.Title = fmt.Sprintf("Results for %q", res.query)
	m.results.SetItems(items)
	m.results.ResetSelected()
	m.query.Blur()
	m.view = ResultView
	return m, nil
}

func (m *Model) search(query string, kind models.MediaType) tea.Cmd {
	return func() tea.Msg {
		items, err := m.catalog.Search(m.ctx, query, kind)
		return searchResultsMsg(query, kind, items, err)
	}
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ListView:
		m.entries, cmd = m.entries.Update(msg)
	case ResultView:
		m.results, cmd = m.results.Update(msg)
	case SearchView:
		m.query, cmd = m.query.Update(msg)
	}
	return m, cmd
}

func (m *Model) withStatus(body string, keys ...key.Binding) string {
	out := body
	if m.status != "" {
		out += "\n" + styles.warn.Render(m.status)
	}
	return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView(keys))
}

func (m *Model) renderList() string {
	if len(m.entries.Items()) == 0 {
		body := styles.title.Render("Watchlist") + "\n" + styles.help.Render("Nothing here yet. Press a to add a title.")
		return m.withStatus(body, m.keys.add, m.keys.quit)
	}
	return m.withStatus(m.entries.View(), m.keys.toggle, m.keys.priority, m.keys.remove, m.keys.add, m.keys.quit)
}

func (m *Model) renderConfirm() string {
	if m.pending == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Remove '%s' from the watchlist?", m.pending.Title))
	info := fmt.Sprintf("\n%s • %d • added %s\n", m.pending.MediaType.Label(), m.pending.ReleaseYear, m.pending.DateAdded.Format("Jan 2, 2006"))
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
}

func (m *Model) renderSearch() string {
	title := styles.title.Render(fmt.Sprintf("Add a %s", strings.ToLower(m.kind.Label())))
	return m.withStatus(fmt.Sprintf("%s\n%s", title, m.query.View()), m.keys.enter, m.keys.kind, m.keys.back)
}

func (m *Model) renderResults() string {
	return m.withStatus(m.results.View(), m.keys.enter, m.keys.back, m.keys.quit)
}
