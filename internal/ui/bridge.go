package ui

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/weevibin/internal/state"
)

// Commands are the host commands a UI can issue.
type Commands interface {
	SetEndpoint(ctx context.Context, endpoint string) error
	Ready(ctx context.Context)
}

// Config holds Bridge settings.
type Config struct {
	// EventBuffer is the most events queued per client before new events
	// are dropped for that client.
	EventBuffer int

	// WriteTimeout bounds each event write to a client.
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EventBuffer:  256,
		WriteTimeout: 5 * time.Second,
	}
}

// Event is one published event as sent to UI clients.
type Event struct {
	ID      string            `json:"id"`
	Type    state.MessageKind `json:"type"`
	Payload any               `json:"payload"`
}

// Snapshot is the latest published state.
type Snapshot struct {
	AppState   state.AppState    `json:"app_state"`
	VibinState *state.VibinState `json:"vibin_state"`
	Position   *state.Position   `json:"position"`
}

// BridgeStats contains runtime statistics.
type BridgeStats struct {
	Clients   int
	Published int64
	Dropped   int64
}

// Bridge implements state.Publisher for WebSocket UI clients.
type Bridge struct {
	cfg    Config
	logger *slog.Logger

	upgrader websocket.Upgrader

	mu        sync.Mutex
	latest    Snapshot
	clients   map[*client]struct{}
	published int64
	dropped   int64
	closed    bool
}

type client struct {
	id    string
	queue *Queue[Event]
}

// NewBridge creates a Bridge.
func NewBridge(cfg Config, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EventBuffer < 1 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}

	return &Bridge{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		latest: Snapshot{
			AppState: state.AppState{VibinConnection: state.Disconnected("")},
		},
		clients: make(map[*client]struct{}),
	}
}

func (b *Bridge) PublishAppState(s state.AppState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest.AppState = s
	b.broadcast(state.MessageAppState, s)
}

func (b *Bridge) PublishVibinState(s state.VibinState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest.VibinState = &s
	b.broadcast(state.MessageVibinState, s)
}

func (b *Bridge) PublishPosition(p state.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest.Position = &p
	b.broadcast(state.MessagePosition, p)
}

func (b *Bridge) PublishError(e state.AppError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast(state.MessageError, e)
}

// Snapshot returns the latest published state.
func (b *Bridge) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{AppState: b.latest.AppState}
	if b.latest.VibinState != nil {
		v := b.latest.VibinState.Clone()
		snap.VibinState = &v
	}
	if b.latest.Position != nil {
		p := *b.latest.Position
		snap.Position = &p
	}
	return snap
}

// Stats returns current statistics.
func (b *Bridge) Stats() BridgeStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BridgeStats{
		Clients:   len(b.clients),
		Published: b.published,
		Dropped:   b.dropped,
	}
}

// broadcast queues an event for every client. Must be called with lock held.
func (b *Bridge) broadcast(kind state.MessageKind, payload any) {
	b.published++
	ev := Event{
		ID:      uuid.NewString(),
		Type:    kind,
		Payload: payload,
	}
	for c := range b.clients {
		if c.queue.Closed() {
			continue
		}
		if !c.queue.Send(ev) {
			b.dropped++
			b.logger.Warn("client queue full; dropping event",
				"client", c.id,
				"type", kind,
			)
		}
	}
}

// register adds a client and queues the latest state for it in the same
// critical section, so nothing published afterwards can overtake it.
func (b *Bridge) register() *client {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := &client{
		id:    uuid.NewString(),
		queue: NewQueue[Event](min(16, b.cfg.EventBuffer), b.cfg.EventBuffer),
	}
	c.queue.Send(Event{
		ID:      uuid.NewString(),
		Type:    state.MessageAppState,
		Payload: b.latest.AppState,
	})
	if b.latest.VibinState != nil {
		c.queue.Send(Event{
			ID:      uuid.NewString(),
			Type:    state.MessageVibinState,
			Payload: b.latest.VibinState.Clone(),
		})
	}
	if b.closed {
		c.queue.Close()
		return c
	}
	b.clients[c] = struct{}{}
	return c
}

func (b *Bridge) unregister(c *client) {
	b.mu.Lock()
	delete(b.clients, c)
	b.mu.Unlock()
	c.queue.Close()
}

// Close ends every client event stream. Clients registered afterwards get
// the current snapshot and then an ended stream.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for c := range b.clients {
		c.queue.Close()
		delete(b.clients, c)
	}
}
