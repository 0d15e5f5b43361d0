package state_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/weevibin/internal/state"
	"github.com/rickgao/weevibin/internal/state/statetest"
)

func TestLifecycle_FullCycle(t *testing.T) {
	rec := statetest.NewRecorder()
	lc := state.NewLifecycle(rec)

	require.NoError(t, lc.BeginConnecting("ws://vibin.local/ws"))
	require.NoError(t, lc.MarkConnected("ws://vibin.local/ws"))
	require.NoError(t, lc.BeginDisconnecting())
	lc.MarkDisconnected("")

	assert.Equal(t, []state.Status{
		state.StatusConnecting,
		state.StatusConnected,
		state.StatusDisconnecting,
		state.StatusDisconnected,
	}, rec.Statuses())
	assert.Equal(t, state.Disconnected(""), lc.Current())
}

func TestLifecycle_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*state.Lifecycle)
		try   func(*state.Lifecycle) error
	}{
		{
			name:  "connect while connecting",
			setup: func(lc *state.Lifecycle) { _ = lc.BeginConnecting("a") },
			try:   func(lc *state.Lifecycle) error { return lc.BeginConnecting("b") },
		},
		{
			name:  "connected from disconnected",
			setup: func(*state.Lifecycle) {},
			try:   func(lc *state.Lifecycle) error { return lc.MarkConnected("a") },
		},
		{
			name:  "disconnecting from disconnected",
			setup: func(*state.Lifecycle) {},
			try:   func(lc *state.Lifecycle) error { return lc.BeginDisconnecting() },
		},
		{
			name:  "disconnecting from connecting",
			setup: func(lc *state.Lifecycle) { _ = lc.BeginConnecting("a") },
			try:   func(lc *state.Lifecycle) error { return lc.BeginDisconnecting() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := statetest.NewRecorder()
			lc := state.NewLifecycle(rec)
			tt.setup(lc)
			before := len(rec.AppStates())

			err := tt.try(lc)
			assert.ErrorIs(t, err, state.ErrIllegalTransition)
			assert.Len(t, rec.AppStates(), before, "illegal transition must not publish")
		})
	}
}

func TestLifecycle_FailureSkipsDisconnecting(t *testing.T) {
	rec := statetest.NewRecorder()
	lc := state.NewLifecycle(rec)

	require.NoError(t, lc.BeginConnecting("ws://x"))
	lc.MarkDisconnected("Timed out connecting to: ws://x")

	got := lc.Current()
	assert.Equal(t, state.StatusDisconnected, got.Status)
	assert.Equal(t, "Timed out connecting to: ws://x", got.Message)
}

func TestLifecycle_WaitFor(t *testing.T) {
	lc := state.NewLifecycle(nil)
	require.NoError(t, lc.BeginConnecting("ws://x"))
	require.NoError(t, lc.MarkConnected("ws://x"))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = lc.BeginDisconnecting()
		time.Sleep(20 * time.Millisecond)
		lc.MarkDisconnected("")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := lc.WaitFor(ctx, func(s state.ConnectionState) bool {
		return s.Is(state.StatusDisconnected)
	})
	require.NoError(t, err)
	assert.Equal(t, state.StatusDisconnected, got.Status)
}

func TestLifecycle_WaitForContextDone(t *testing.T) {
	lc := state.NewLifecycle(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := lc.WaitFor(ctx, func(s state.ConnectionState) bool {
		return s.Is(state.StatusConnected)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLifecycle_ChangedWakes(t *testing.T) {
	lc := state.NewLifecycle(nil)
	changed := lc.Changed()

	require.NoError(t, lc.BeginConnecting("ws://x"))

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("Changed channel was not closed on transition")
	}
}

func TestConnectionState_JSON(t *testing.T) {
	tests := []struct {
		state state.ConnectionState
		want  string
	}{
		{state.Disconnected(""), `{"state":"Disconnected","message":null}`},
		{state.Disconnected("boom"), `{"state":"Disconnected","message":"boom"}`},
		{state.Connecting("ws://x"), `{"state":"Connecting","message":"ws://x"}`},
		{state.Connected("ws://x"), `{"state":"Connected","message":"ws://x"}`},
		{state.Disconnecting(), `{"state":"Disconnecting","message":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			data, err := json.Marshal(tt.state)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back state.ConnectionState
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.state, back)
		})
	}
}

func TestAppState_JSON(t *testing.T) {
	data, err := json.Marshal(state.AppState{VibinConnection: state.Connected("ws://x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"vibin_connection":{"state":"Connected","message":"ws://x"}}`, string(data))
}
