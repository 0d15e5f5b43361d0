package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/weevibin/internal/version"
)

// maxBodyBytes bounds command request bodies.
const maxBodyBytes = 64 << 10

type setServerRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the HTTP handler for UI clients. Commands run under ctx
// rather than the request context: a connection started by a command must
// outlive the request that started it.
func (b *Bridge) Handler(ctx context.Context, cmds Commands) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		snap := b.Snapshot()
		stats := b.Stats()

		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "healthy",
			"version":    version.Get(),
			"connection": snap.AppState.VibinConnection.String(),
			"clients":    stats.Clients,
		})
	})

	mux.HandleFunc("GET /state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.Snapshot())
	})

	mux.HandleFunc("GET /events", b.serveEvents)

	mux.HandleFunc("POST /server", func(w http.ResponseWriter, r *http.Request) {
		var req setServerRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}

		b.logger.Info("set server requested", "url", req.URL, "remote", r.RemoteAddr)

		if err := cmds.SetEndpoint(ctx, req.URL); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /ready", func(w http.ResponseWriter, r *http.Request) {
		b.logger.Info("ui ready", "remote", r.RemoteAddr)
		cmds.Ready(ctx)
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

// serveEvents streams published events to one WebSocket client.
func (b *Bridge) serveEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("event stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := b.register()
	defer b.unregister(c)

	logger := b.logger.With("client", c.id)
	logger.Info("ui client connected", "remote", r.RemoteAddr)

	// The reader only handles control frames; when the client goes away it
	// closes the queue, which ends the write loop.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				c.queue.Close()
				return
			}
		}
	}()

	for {
		ev, ok := c.queue.Receive()
		if !ok {
			break
		}
		conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				logger.Debug("event write failed", "error", err)
			}
			break
		}
	}

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	logger.Info("ui client disconnected")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
