package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/desertthunder/marquee/internal/watchlist"
)

// maxEventBytes bounds a POSTed input event.
const maxEventBytes = 1 << 20

// DefaultHeartbeat is how often idle SSE streams get a comment line.
const DefaultHeartbeat = 15 * time.Second

// InputEvent is the wire form of an event sent by a client.
type InputEvent struct {
	Type   string          `json:"type"`
	Detail json.RawMessage `json:"detail"`
}

type errorBody struct {
	Error string `json:"error"`
}

// WatchlistHandler serves the store's contents and relays its event channel.
type WatchlistHandler struct {
	store     *watchlist.Store
	events    *watchlist.EventChannel
	logger    *log.Logger
	heartbeat time.Duration
	origins   []string
}

// NewWatchlistHandler creates a handler over store and binds the store's event channel
// so input events reach it.
func NewWatchlistHandler(store *watchlist.Store, logger *log.Logger) *WatchlistHandler {
	events := store.Events()
	watchlist.BindEvents(events, store)

	return &WatchlistHandler{
		store:     store,
		events:    events,
		logger:    shared.WithLogger(logger, "component", "server"),
		heartbeat: DefaultHeartbeat,
	}
}

// SetHeartbeat changes the SSE keep-alive interval. d <= 0 disables it.
func (h *WatchlistHandler) SetHeartbeat(d time.Duration) {
	h.heartbeat = d
}

// SetOrigins lists host patterns allowed to open a websocket from a browser page.
// Requests without an Origin header, or from the server's own host, are always accepted.
func (h *WatchlistHandler) SetOrigins(patterns ...string) {
	h.origins = patterns
}

// Routes returns the HTTP routes this handler serves.
func (h *WatchlistHandler) Routes() []string {
	return []string{
		"GET /watchlist",
		"GET /watchlist/stats",
		"GET /watchlist/{type}/{id}",
		"GET /events",
		"POST /events",
		"GET /ws",
	}
}

// ServeHTTP dispatches on the matched route pattern.
func (h *WatchlistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET /watchlist":
		writeJSON(w, http.StatusOK, h.snapshot())
	case "GET /watchlist/stats":
		writeJSON(w, http.StatusOK, h.store.GetStats())
	case "GET /watchlist/{type}/{id}":
		h.entry(w, r)
	case "GET /events":
		h.stream(w, r)
	case "POST /events":
		h.intake(w, r)
	case "GET /ws":
		h.socket(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *WatchlistHandler) entry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: id must be an integer", shared.ErrInvalidArgument))
		return
	}

	e, ok := h.store.Get(id, models.ParseMediaType(r.PathValue("type")))
	if !ok {
		writeError(w, http.StatusNotFound, shared.ErrNotTracked)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// intake decodes one input event and dispatches it. Dispatch is synchronous,
// so the store has applied the event when the response is written.
func (h *WatchlistHandler) intake(w http.ResponseWriter, r *http.Request) {
	var in InputEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	if err := h.dispatch(in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.snapshot())
}

func (h *WatchlistHandler) dispatch(in InputEvent) error {
	if in.Type == watchlist.EventUpdate {
		return fmt.Errorf("%w: %s is published by the store", shared.ErrInvalidInput, in.Type)
	}

	ev, err := watchlist.DecodeEvent(in.Type, in.Detail)
	if err != nil {
		return err
	}

	h.logger.Debug("dispatching input event", "event", ev.Name)
	h.events.Dispatch(ev)
	return nil
}

func (h *WatchlistHandler) snapshot() models.Snapshot {
	snap := h.store.Snapshot()
	if snap.Watchlist == nil {
		snap.Watchlist = []models.Entry{}
	}
	return snap
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}
