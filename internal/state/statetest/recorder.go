// Package statetest provides a recording Publisher for tests.
package statetest

import (
	"sync"

	"github.com/rickgao/weevibin/internal/state"
)

// Recorder records every published event in order.
type Recorder struct {
	mu        sync.Mutex
	appStates []state.AppState
	vibin     []state.VibinState
	positions []state.Position
	errors    []state.AppError
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PublishAppState(s state.AppState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appStates = append(r.appStates, s)
}

func (r *Recorder) PublishVibinState(s state.VibinState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vibin = append(r.vibin, s)
}

func (r *Recorder) PublishPosition(p state.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = append(r.positions, p)
}

func (r *Recorder) PublishError(e state.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, e)
}

// Statuses returns the status of every published AppState, in order.
func (r *Recorder) Statuses() []state.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]state.Status, len(r.appStates))
	for i, s := range r.appStates {
		out[i] = s.VibinConnection.Status
	}
	return out
}

// AppStates returns the published AppStates.
func (r *Recorder) AppStates() []state.AppState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.AppState(nil), r.appStates...)
}

// VibinStates returns the published VibinState snapshots.
func (r *Recorder) VibinStates() []state.VibinState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.VibinState(nil), r.vibin...)
}

// Positions returns the published positions.
func (r *Recorder) Positions() []state.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.Position(nil), r.positions...)
}

// Errors returns the published errors.
func (r *Recorder) Errors() []state.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.AppError(nil), r.errors...)
}
