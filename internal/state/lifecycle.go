package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrIllegalTransition is returned for transitions outside the lifecycle
// table. Nothing is published when it is returned.
var ErrIllegalTransition = errors.New("illegal connection state transition")

// Lifecycle owns the current ConnectionState. The legal transitions are:
//
//	Disconnected  -> Connecting     (BeginConnecting)
//	Connecting    -> Connected      (MarkConnected)
//	Connected     -> Disconnecting  (BeginDisconnecting)
//	any           -> Disconnected   (MarkDisconnected)
//
// Each transition is published to the Publisher with the lock held, and
// wakes every channel returned by Changed.
type Lifecycle struct {
	mu      sync.Mutex
	current ConnectionState
	changed chan struct{}
	pub     Publisher
}

// NewLifecycle creates a Lifecycle in the Disconnected state.
func NewLifecycle(pub Publisher) *Lifecycle {
	if pub == nil {
		pub = Discard
	}
	return &Lifecycle{
		current: Disconnected(""),
		changed: make(chan struct{}),
		pub:     pub,
	}
}

// Current returns the current state.
func (l *Lifecycle) Current() ConnectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Changed returns a channel closed on the next transition.
func (l *Lifecycle) Changed() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.changed
}

// Publish republishes the current state.
func (l *Lifecycle) Publish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pub.PublishAppState(AppState{VibinConnection: l.current})
}

// BeginConnecting moves Disconnected -> Connecting(target).
func (l *Lifecycle) BeginConnecting(target string) error {
	return l.transition(Connecting(target), StatusDisconnected)
}

// MarkConnected moves Connecting -> Connected(target).
func (l *Lifecycle) MarkConnected(target string) error {
	return l.transition(Connected(target), StatusConnecting)
}

// BeginDisconnecting moves Connected -> Disconnecting.
func (l *Lifecycle) BeginDisconnecting() error {
	return l.transition(Disconnecting(), StatusConnected)
}

// MarkDisconnected moves any state to Disconnected(reason).
func (l *Lifecycle) MarkDisconnected(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.set(Disconnected(reason))
}

// WaitFor blocks until pred holds for the current state or ctx is done.
func (l *Lifecycle) WaitFor(ctx context.Context, pred func(ConnectionState) bool) (ConnectionState, error) {
	for {
		l.mu.Lock()
		current, changed := l.current, l.changed
		l.mu.Unlock()

		if pred(current) {
			return current, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return current, ctx.Err()
		}
	}
}

func (l *Lifecycle) transition(next ConnectionState, from Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, l.current.Status, next.Status)
	}
	l.set(next)
	return nil
}

// set must be called with mu held.
func (l *Lifecycle) set(next ConnectionState) {
	l.current = next
	close(l.changed)
	l.changed = make(chan struct{})
	l.pub.PublishAppState(AppState{VibinConnection: next})
}
