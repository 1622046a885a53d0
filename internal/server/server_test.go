package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/repositories"
	"github.com/desertthunder/marquee/internal/shared"
	"github.com/desertthunder/marquee/internal/watchlist"
	"nhooyr.io/websocket"
)

const duneEvent = `{"type": "addToWatchlist", "detail": {"item": {"id": 42, "title": "Dune", "release_date": "2021-10-01", "vote_average": 8.1}, "type": "movie"}}`

func newTestHandler(t *testing.T) (*WatchlistHandler, *watchlist.Store, *httptest.Server) {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	store := watchlist.New(watchlist.Options{
		Slots:  repositories.NewMemorySlotRepository(0),
		Key:    "wl",
		Origin: "server-test",
		Logger: logger,
	})

	h := NewWatchlistHandler(store, logger)
	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(h)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.CloseClientConnections()
		srv.Close()
		store.Close()
	})
	return h, store, srv
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func postEvent(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /events failed: %v", err)
	}
	return resp
}

func TestBasicRouter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(tag("first"), tag("second"))
		r.Handle(http.MethodGet, "/ping", ok)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second, got %v", order)
		}
		if rec.Body.String() != "ok" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})

	t.Run("Method Filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle("get", "/ping", ok)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Any Method", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle("", "/ping", ok)

		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(method, "/ping", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("%s: expected 200, got %d", method, rec.Code)
			}
		}
	})

	t.Run("CORS Preflight", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodPost, "/events", ok)
		h := CORS("")(r)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/events", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected wildcard origin")
		}
	})
}

func TestWatchlistHandler(t *testing.T) {
	t.Run("GET /watchlist", func(t *testing.T) {
		_, store, srv := newTestHandler(t)

		resp, err := http.Get(srv.URL + "/watchlist")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		snap := decodeBody[models.Snapshot](t, resp)
		if snap.Watchlist == nil || len(snap.Watchlist) != 0 {
			t.Errorf("expected an empty watchlist, got %+v", snap)
		}

		store.Add(models.CatalogItem{ID: 7, Name: "Severance"}, models.Series)
		resp, _ = http.Get(srv.URL + "/watchlist")
		snap = decodeBody[models.Snapshot](t, resp)
		if len(snap.Watchlist) != 1 || snap.Stats.TVShows != 1 {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	})

	t.Run("GET /watchlist/stats", func(t *testing.T) {
		_, store, srv := newTestHandler(t)
		store.Add(models.CatalogItem{ID: 42, Title: "Dune", VoteAverage: 8}, models.Movie)

		resp, _ := http.Get(srv.URL + "/watchlist/stats")
		stats := decodeBody[models.Stats](t, resp)
		if stats.Total != 1 || stats.Movies != 1 || stats.AvgRating != 8 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("GET /watchlist/{type}/{id}", func(t *testing.T) {
		_, store, srv := newTestHandler(t)
		store.Add(models.CatalogItem{ID: 7, Name: "Severance"}, models.Series)

		tests := []struct {
			path   string
			status int
		}{
			{"/watchlist/tv/7", http.StatusOK},
			{"/watchlist/series/7", http.StatusOK},
			{"/watchlist/movie/7", http.StatusNotFound},
			{"/watchlist/tv/abc", http.StatusBadRequest},
		}

		for _, tt := range tests {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s failed: %v", tt.path, err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("%s: expected %d, got %d", tt.path, tt.status, resp.StatusCode)
			}
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		_, _, srv := newTestHandler(t)

		resp, _ := http.Post(srv.URL+"/watchlist", "application/json", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestEventIntake(t *testing.T) {
	t.Run("Legacy Add", func(t *testing.T) {
		_, store, srv := newTestHandler(t)

		resp := postEvent(t, srv, duneEvent)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", resp.StatusCode)
		}
		snap := decodeBody[models.Snapshot](t, resp)
		if len(snap.Watchlist) != 1 || snap.Watchlist[0].Title != "Dune" {
			t.Errorf("unexpected snapshot %+v", snap)
		}
		if !store.IsTracked(42, models.Movie) {
			t.Error("expected Dune to be tracked")
		}
	})

	t.Run("Toggle and Remove", func(t *testing.T) {
		_, store, srv := newTestHandler(t)
		postEvent(t, srv, duneEvent).Body.Close()

		postEvent(t, srv, `{"type": "watchlist:toggle", "detail": {"id": 42, "type": "movie"}}`).Body.Close()
		if e, _ := store.Get(42, models.Movie); !e.IsWatched {
			t.Error("expected toggle to mark watched")
		}

		postEvent(t, srv, `{"type": "watchlist:remove", "detail": {"id": 42, "type": "movie"}}`).Body.Close()
		if store.IsTracked(42, models.Movie) {
			t.Error("expected remove to untrack")
		}
	})

	t.Run("Rejected Input", func(t *testing.T) {
		_, store, srv := newTestHandler(t)

		tests := []struct {
			name string
			body string
		}{
			{"not json", `{`},
			{"unknown event", `{"type": "watchlist:explode", "detail": {}}`},
			{"bad detail", `{"type": "watchlist:remove", "detail": "nope"}`},
			{"update is output only", `{"type": "watchlist:update", "detail": {}}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp := postEvent(t, srv, tt.body)
				body := decodeBody[errorBody](t, resp)
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", resp.StatusCode)
				}
				if body.Error == "" {
					t.Error("expected an error message")
				}
			})
		}

		if store.GetStats().Total != 0 {
			t.Error("rejected input must not mutate the store")
		}
	})
}

// readEvent reads one SSE event and returns its name and data.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()

	var name, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && (name != "" || data != ""):
			return name, data
		case strings.HasPrefix(line, ": "):
			return "comment", strings.TrimPrefix(line, ": ")
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventStream(t *testing.T) {
	t.Run("SSE", func(t *testing.T) {
		h, store, srv := newTestHandler(t)
		h.SetHeartbeat(0)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /events failed: %v", err)
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
			t.Errorf("unexpected content type %q", ct)
		}

		reader := bufio.NewReader(resp.Body)
		name, data := readEvent(t, reader)
		if name != watchlist.EventUpdate || !strings.Contains(data, `"watchlist":[]`) {
			t.Fatalf("expected initial empty snapshot, got %s %s", name, data)
		}

		store.Add(models.CatalogItem{ID: 42, Title: "Dune"}, models.Movie)

		name, data = readEvent(t, reader)
		if name != watchlist.EventUpdate || !strings.Contains(data, `"title":"Dune"`) {
			t.Errorf("expected update with Dune, got %s %s", name, data)
		}
	})

	t.Run("SSE Heartbeat", func(t *testing.T) {
		h, _, srv := newTestHandler(t)
		h.SetHeartbeat(10 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /events failed: %v", err)
		}
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		readEvent(t, reader)
		if name, data := readEvent(t, reader); name != "comment" || data != "ping" {
			t.Errorf("expected a ping comment, got %s %s", name, data)
		}
	})

	t.Run("Websocket", func(t *testing.T) {
		_, store, srv := newTestHandler(t)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		read := func() map[string]any {
			t.Helper()
			_, data, err := conn.Read(ctx)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			var msg map[string]any
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("bad message %s: %v", data, err)
			}
			return msg
		}

		if msg := read(); msg["event"] != watchlist.EventUpdate {
			t.Fatalf("expected initial update, got %v", msg)
		}

		if err := conn.Write(ctx, websocket.MessageText, []byte(duneEvent)); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		msg := read()
		data, _ := json.Marshal(msg["data"])
		if msg["event"] != watchlist.EventUpdate || !strings.Contains(string(data), `"title":"Dune"`) {
			t.Errorf("expected update with Dune, got %v", msg)
		}
		if !store.IsTracked(42, models.Movie) {
			t.Error("expected websocket input to reach the store")
		}

		if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type": "nope"}`)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if msg := read(); msg["event"] != "error" {
			t.Errorf("expected an error message, got %v", msg)
		}
	})
}

func TestServerRun(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	s := New("127.0.0.1:0", http.NotFoundHandler(), logger)
	if s.Addr() != "127.0.0.1:0" {
		t.Errorf("unexpected addr %s", s.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
