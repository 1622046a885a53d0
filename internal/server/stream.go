package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/watchlist"
	"nhooyr.io/websocket"
)

// wsMessage is the envelope for messages sent to websocket clients.
type wsMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// follower receives watchlist:update snapshots for one client. Only the newest
// undelivered snapshot is kept, so a slow client skips intermediate states.
type follower struct {
	updates chan models.Snapshot
	off     func()
}

func (h *WatchlistHandler) follow() *follower {
	f := &follower{updates: make(chan models.Snapshot, 1)}
	f.off = h.events.On(watchlist.EventUpdate, func(ev watchlist.Event) {
		snap, ok := ev.Detail.(models.Snapshot)
		if !ok {
			return
		}
		for {
			select {
			case f.updates <- snap:
				return
			default:
			}
			select {
			case <-f.updates:
			default:
			}
		}
	})
	return f
}

// stream serves GET /events as Server-Sent Events. The first event carries the
// current snapshot.
func (h *WatchlistHandler) stream(w http.ResponseWriter, r *http.Request) {
	f := h.follow()
	defer f.off()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, h.snapshot()); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Warn("response does not support streaming", "error", err)
		return
	}

	var heartbeat <-chan time.Time
	if h.heartbeat > 0 {
		t := time.NewTicker(h.heartbeat)
		defer t.Stop()
		heartbeat = t.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-f.updates:
			if err := writeEvent(w, snap); err != nil {
				h.logger.Debug("sse client gone", "error", err)
				return
			}
		case <-heartbeat:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w io.Writer, snap models.Snapshot) error {
	if snap.Watchlist == nil {
		snap.Watchlist = []models.Entry{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", watchlist.EventUpdate, data)
	return err
}

// socket serves GET /ws. Updates go out as {"event", "data"} envelopes; text
// messages coming in are input events in the POST /events shape.
func (h *WatchlistHandler) socket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	f := h.follow()
	defer f.off()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}

			var in InputEvent
			if err := json.Unmarshal(data, &in); err != nil {
				h.send(ctx, conn, wsMessage{Event: "error", Data: errorBody{Error: err.Error()}})
				continue
			}
			if err := h.dispatch(in); err != nil {
				h.send(ctx, conn, wsMessage{Event: "error", Data: errorBody{Error: err.Error()}})
			}
		}
	}()

	if err := h.send(ctx, conn, wsMessage{Event: watchlist.EventUpdate, Data: h.snapshot()}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap := <-f.updates:
			if snap.Watchlist == nil {
				snap.Watchlist = []models.Entry{}
			}
			if err := h.send(ctx, conn, wsMessage{Event: watchlist.EventUpdate, Data: snap}); err != nil {
				h.logger.Debug("websocket client gone", "error", err)
				return
			}
		}
	}
}

func (h *WatchlistHandler) send(ctx context.Context, conn *websocket.Conn, msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
