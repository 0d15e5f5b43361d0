package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/weevibin/internal/state"
)

// Connection runs a single attempt against the Vibin WebSocket server, from
// handshake to termination. It never retries; that is the Manager's job.
type Connection struct {
	// OnConnected, when set, is called once the handshake succeeds and the
	// lifecycle is Connected, while the attempt is still running.
	OnConnected func()

	cfg       Config
	endpoint  string
	lifecycle *state.Lifecycle
	pub       state.Publisher
	logger    *slog.Logger
	dispatch  dispatcher
}

// NewConnection creates a Connection for endpoint.
func NewConnection(
	cfg Config,
	endpoint string,
	lifecycle *state.Lifecycle,
	store *state.Store,
	pub state.Publisher,
	logger *slog.Logger,
) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = state.Discard
	}
	logger = logger.With("attempt", uuid.NewString())

	return &Connection{
		cfg:       cfg,
		endpoint:  endpoint,
		lifecycle: lifecycle,
		pub:       pub,
		logger:    logger,
		dispatch: dispatcher{
			store:  store,
			pub:    pub,
			logger: logger,
		},
	}
}

// frameKind classifies frames handed from the reader to the frame loop.
type frameKind int

const (
	frameKeepalive frameKind = iota
	frameText
	frameOther
	frameError
)

type frame struct {
	kind frameKind
	data []byte
	at   time.Time
	err  error
}

// ParseEndpoint validates a Vibin endpoint URL.
func ParseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q needs a scheme and host", ErrInvalidEndpoint, raw)
	}
	return u, nil
}

// Run performs the attempt and blocks until it ends. Cancelling ctx requests
// a stop: it aborts a pending handshake, and is otherwise noticed at the next
// tick of the frame loop.
func (c *Connection) Run(ctx context.Context) Outcome {
	if current := c.lifecycle.Current(); !current.Is(state.StatusDisconnected) {
		c.logger.Warn("not starting connection", "state", current.String())
		c.reportError(ErrNotDisconnected.Error() + "; not proceeding with Vibin WebSocket connection")
		return Outcome{Err: ErrNotDisconnected}
	}

	u, err := ParseEndpoint(c.endpoint)
	if err != nil {
		c.reportError(fmt.Sprintf("Vibin host URL parsing error: %v", err))
		return Outcome{Err: err}
	}

	if err := c.lifecycle.BeginConnecting(c.endpoint); err != nil {
		c.reportError(err.Error())
		return Outcome{Err: fmt.Errorf("%w: %v", ErrNotDisconnected, err)}
	}

	conn, err := c.dial(ctx, u)
	if err != nil && ctx.Err() != nil {
		c.lifecycle.MarkDisconnected("")
		c.logger.Info("handshake abandoned", "url", c.endpoint)
		return Outcome{}
	}
	if err != nil {
		c.lifecycle.MarkDisconnected(err.Error())
		c.reportError(err.Error())
		return Outcome{Err: err}
	}

	if err := c.lifecycle.MarkConnected(c.endpoint); err != nil {
		conn.Close()
		c.lifecycle.MarkDisconnected(err.Error())
		return Outcome{Err: err}
	}
	c.logger.Info("connected to vibin", "url", c.endpoint)
	if c.OnConnected != nil {
		c.OnConnected()
	}

	err = c.serve(ctx, conn)
	switch {
	case err == nil:
		c.lifecycle.MarkDisconnected("")
		c.logger.Info("vibin connection stopped")
	default:
		c.lifecycle.MarkDisconnected(err.Error())
		c.reportError(err.Error())
		c.logger.Warn("vibin connection ended", "error", err)
	}

	return Outcome{Connected: true, Err: err}
}

// dial performs the WebSocket handshake under the handshake timeout.
func (c *Connection) dial(ctx context.Context, u *url.URL) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	// The dialer only applies ctx deadlines to the socket, so cancellation
	// expires the deadline to abort a pending handshake. The watch is bound
	// to our ctx; the dialer cancels its own derived ctx on return.
	var stopAbort func() bool
	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		NetDialContext: func(dialCtx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			nc, err := d.DialContext(dialCtx, network, addr)
			if err != nil {
				return nil, err
			}
			stopAbort = context.AfterFunc(ctx, func() {
				nc.SetDeadline(time.Now())
			})
			return nc, nil
		},
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if stopAbort != nil && !stopAbort() && err == nil {
		conn.Close()
		err = ctx.Err()
	}
	if err != nil {
		return nil, &HandshakeError{
			URL:     u.String(),
			Timeout: isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:     err,
		}
	}
	return conn, nil
}

// serve runs the frame loop until stop, close, watchdog expiry or an I/O
// error. A nil return means a requested stop.
func (c *Connection) serve(ctx context.Context, conn *websocket.Conn) error {
	frames := make(chan frame)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.readLoop(conn, frames, done)
	}()

	defer func() {
		close(done)
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteTimeout),
		)
		conn.Close()
		wg.Wait()
	}()

	dog := newWatchdog(c.cfg, time.Now())

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			if dog.expired(now) {
				c.logger.Warn("keepalive silence exceeded threshold",
					"silence", dog.silence(now),
					"threshold", dog.threshold(),
				)
				return fmt.Errorf("%w: no keepalive from %s for %s",
					ErrClientLostConnection, c.endpoint, dog.silence(now).Round(time.Second))
			}

		case f := <-frames:
			switch f.kind {
			case frameKeepalive:
				dog.observe(f.at)
			case frameText:
				c.handleText(f.data)
			case frameOther:
				c.logger.Debug("ignoring non-text frame", "bytes", len(f.data))
			case frameError:
				return classifyReadError(f.err)
			}
		}
	}
}

// readLoop reads frames and hands them to the frame loop until the socket
// fails or done is closed.
func (c *Connection) readLoop(conn *websocket.Conn, frames chan<- frame, done <-chan struct{}) {
	deliver := func(f frame) bool {
		select {
		case frames <- f:
			return true
		case <-done:
			return false
		}
	}

	// Server sends ping, we respond with pong and feed the watchdog.
	conn.SetPingHandler(func(data string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.cfg.WriteTimeout))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) && !isTimeout(err) {
			return err
		}
		deliver(frame{kind: frameKeepalive, at: time.Now()})
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			deliver(frame{kind: frameError, err: err})
			return
		}

		kind := frameOther
		if msgType == websocket.TextMessage {
			kind = frameText
		}
		if !deliver(frame{kind: kind, data: data, at: time.Now()}) {
			return
		}
	}
}

func (c *Connection) handleText(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.reportError(fmt.Sprintf("Could not deserialize WebSocket message; error: %v :: message: %s", err, data))
		return
	}

	if err := c.dispatch.dispatch(env); err != nil {
		c.logger.Warn("failed to decode message", "type", env.Type, "error", err)
		c.reportError(err.Error())
	}
}

func (c *Connection) reportError(msg string) {
	c.pub.PublishError(state.AppError{
		Category: state.CategoryWebSocket,
		Message:  msg,
	})
}

// classifyReadError maps a read failure to a close or I/O error. An
// abnormal closure (1006) is how gorilla reports a dropped TCP stream, so it
// counts as I/O rather than a close frame from the server.
func classifyReadError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
		return fmt.Errorf("%w: %v", ErrServerClosedConnection, closeErr)
	}
	return fmt.Errorf("%w: %v", ErrConnectionIO, err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
