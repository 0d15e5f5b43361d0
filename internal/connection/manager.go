package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/rickgao/weevibin/internal/state"
)

// Manager owns the lifecycle of the single logical Vibin connection.
type Manager interface {
	// Start launches the supervised connection. It is a no-op returning
	// ErrAlreadyStarted or ErrNoEndpoint when it cannot start. The
	// connection outlives ctx; use Stop or Shutdown to end it.
	Start(ctx context.Context) error

	// Stop disconnects an established connection and waits until the
	// lifecycle reports Disconnected. It is a no-op unless Connected.
	Stop(ctx context.Context) error

	// SetEndpoint validates endpoint, ends any active connection, stores
	// the endpoint and starts again.
	SetEndpoint(ctx context.Context, endpoint string) error

	// Ready republishes the current AppState and VibinState and starts the
	// connection if it is not already started.
	Ready(ctx context.Context)

	// Shutdown ends the active connection in whatever state it is in and
	// waits for the supervisor to exit.
	Shutdown(ctx context.Context) error

	// Endpoint returns the configured endpoint ("" when not configured).
	Endpoint() string

	// Stats returns current manager statistics.
	Stats() ManagerStats
}

// run is one started supervisor. Its id distinguishes a finished run from
// one started after it.
type run struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}
}

// manager implements the Manager interface.
type manager struct {
	cfg       ManagerConfig
	lifecycle *state.Lifecycle
	store     *state.Store
	pub       state.Publisher
	logger    *slog.Logger

	cmdMu sync.Mutex // Serializes SetEndpoint and Ready

	mu            sync.Mutex
	endpoint      string
	active        *run // Non-nil while started
	everConnected bool
	attempts      int
}

// NewManager creates a Manager publishing to pub.
func NewManager(cfg ManagerConfig, pub state.Publisher, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = state.Discard
	}

	return &manager{
		cfg:       cfg,
		lifecycle: state.NewLifecycle(pub),
		store:     state.NewStore(pub),
		pub:       pub,
		logger:    logger,
		endpoint:  cfg.Endpoint,
	}
}

// Start launches the supervised connection.
func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.active != nil {
		m.mu.Unlock()
		m.logger.Warn("manager is already started; ignoring start request")
		return ErrAlreadyStarted
	}
	if m.endpoint == "" {
		m.mu.Unlock()
		m.logger.Warn("manager not starting; no vibin endpoint specified")
		return ErrNoEndpoint
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.active = r
	m.everConnected = false
	endpoint := m.endpoint
	m.mu.Unlock()

	m.logger.Info("manager started", "url", endpoint, "run", r.id)

	go m.supervise(runCtx, r, endpoint)

	return nil
}

// supervise runs connection attempts until one ends without being eligible
// for a retry.
func (m *manager) supervise(ctx context.Context, r *run, endpoint string) {
	defer close(r.done)
	defer func() {
		r.cancel()

		m.mu.Lock()
		if m.active == r {
			m.active = nil
		}
		m.mu.Unlock()

		m.lifecycle.Publish()
		m.logger.Info("manager run completed", "run", r.id)
	}()

	err := retry.Do(
		func() error {
			m.mu.Lock()
			m.attempts++
			m.mu.Unlock()

			conn := NewConnection(m.cfg.Connection, endpoint, m.lifecycle, m.store, m.pub, m.logger)
			conn.OnConnected = func() { m.markConnected(r) }
			return conn.Run(ctx).Err
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(m.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool {
			// A server that was never reached is treated as misconfiguration.
			return ctx.Err() == nil && !isConfigError(err) && m.hasConnected(r)
		}),
		retry.OnRetry(func(n uint, err error) {
			m.logger.Info("will attempt reconnect",
				"delay", m.cfg.RetryDelay,
				"retry", n+1,
				"error", err,
			)
		}),
	)

	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Warn("manager giving up", "url", endpoint, "error", err)
	}
}

func (m *manager) markConnected(r *run) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == r {
		m.everConnected = true
	}
}

func (m *manager) hasConnected(r *run) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active == r && m.everConnected
}

// Stop disconnects an established connection.
func (m *manager) Stop(ctx context.Context) error {
	if current := m.lifecycle.Current(); !current.Is(state.StatusConnected) {
		m.logger.Debug("not connected; ignoring stop request", "state", current.String())
		return nil
	}

	if err := m.lifecycle.BeginDisconnecting(); err != nil {
		// The connection ended on its own in the meantime.
		m.logger.Debug("stop raced with disconnect", "error", err)
		return nil
	}

	m.mu.Lock()
	r := m.active
	m.mu.Unlock()
	if r != nil {
		r.cancel()
	}

	m.logger.Info("waiting for disconnect")

	_, err := m.lifecycle.WaitFor(ctx, func(s state.ConnectionState) bool {
		return s.Is(state.StatusDisconnected)
	})
	if err != nil {
		return fmt.Errorf("wait for disconnect: %w", err)
	}

	m.mu.Lock()
	if m.active == r {
		m.active = nil
	}
	m.everConnected = false
	m.mu.Unlock()

	m.logger.Info("disconnected")
	return nil
}

// Shutdown ends the active connection and waits for its supervisor.
func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	r := m.active
	m.mu.Unlock()

	if r == nil {
		return nil
	}

	if m.lifecycle.Current().Is(state.StatusConnected) {
		_ = m.lifecycle.BeginDisconnecting()
	}
	r.cancel()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for supervisor: %w", ctx.Err())
	}
}

// SetEndpoint switches to a new endpoint.
func (m *manager) SetEndpoint(ctx context.Context, endpoint string) error {
	if _, err := ParseEndpoint(endpoint); err != nil {
		m.pub.PublishError(state.AppError{
			Category: state.CategoryConfig,
			Message:  fmt.Sprintf("Invalid URL: %v", err),
		})
		return err
	}

	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.logger.Info("new vibin endpoint requested", "url", endpoint)

	if err := m.Stop(ctx); err != nil {
		return err
	}
	if err := m.Shutdown(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.endpoint = endpoint
	m.mu.Unlock()

	return m.Start(ctx)
}

// Ready republishes state and starts the connection if needed.
func (m *manager) Ready(ctx context.Context) {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.lifecycle.Publish()
	m.store.Publish()

	m.mu.Lock()
	started := m.active != nil
	m.mu.Unlock()

	if !started {
		if err := m.Start(ctx); err != nil {
			m.logger.Debug("ready did not start manager", "error", err)
		}
	}
}

// Endpoint returns the configured endpoint.
func (m *manager) Endpoint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint
}

// Stats returns current statistics.
func (m *manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return ManagerStats{
		Started:       m.active != nil,
		EverConnected: m.everConnected,
		Attempts:      m.attempts,
		State:         m.lifecycle.Current(),
	}
}
