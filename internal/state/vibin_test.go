package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/weevibin/internal/state"
	"github.com/rickgao/weevibin/internal/state/statetest"
)

func ptr[T any](v T) *T { return &v }

func TestNewVibinState_PowerOff(t *testing.T) {
	s := state.NewVibinState()
	require.NotNil(t, s.Power)
	assert.Equal(t, "off", *s.Power)
	assert.Nil(t, s.Transport)
	assert.Nil(t, s.ActiveTrack)
}

func TestStreamerDisplay_Merge(t *testing.T) {
	d := state.StreamerDisplay{
		Line1:  ptr("Artist"),
		Line2:  ptr("Title"),
		Format: ptr("FLAC"),
	}

	d.Merge(state.StreamerDisplay{Line2: ptr("Other Title"), ArtURL: ptr("http://art")})

	assert.Equal(t, "Artist", *d.Line1)
	assert.Equal(t, "Other Title", *d.Line2)
	assert.Equal(t, "FLAC", *d.Format)
	assert.Equal(t, "http://art", *d.ArtURL)
	assert.Nil(t, d.Line3)
}

func TestVibinState_CloneIsDeep(t *testing.T) {
	orig := state.VibinState{
		Power:       ptr("on"),
		Amplifier:   &state.Amplifier{Mute: ptr("off"), Volume: ptr(float32(0.4))},
		Display:     state.StreamerDisplay{Line1: ptr("x")},
		Transport:   &state.TransportState{PlayState: ptr("play"), ActiveControls: []string{"pause"}},
		Source:      &state.Source{Name: ptr("Spotify")},
		ActiveTrack: &state.ActiveTrack{Title: ptr("Song"), Duration: ptr(200)},
	}

	clone := orig.Clone()
	*clone.Power = "off"
	*clone.Amplifier.Volume = 1
	*clone.Display.Line1 = "y"
	clone.Transport.ActiveControls[0] = "play"
	*clone.Source.Name = "Radio"
	*clone.ActiveTrack.Duration = 1

	assert.Equal(t, "on", *orig.Power)
	assert.Equal(t, float32(0.4), *orig.Amplifier.Volume)
	assert.Equal(t, "x", *orig.Display.Line1)
	assert.Equal(t, []string{"pause"}, orig.Transport.ActiveControls)
	assert.Equal(t, "Spotify", *orig.Source.Name)
	assert.Equal(t, 200, *orig.ActiveTrack.Duration)
}

func TestStore_UpdatePublishesOnChange(t *testing.T) {
	rec := statetest.NewRecorder()
	store := state.NewStore(rec)

	store.Update(func(s *state.VibinState) bool {
		s.Power = ptr("on")
		return true
	})
	store.Update(func(s *state.VibinState) bool {
		return false
	})

	published := rec.VibinStates()
	require.Len(t, published, 1)
	assert.Equal(t, "on", *published[0].Power)
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	store := state.NewStore(nil)
	store.Update(func(s *state.VibinState) bool {
		s.ActiveTrack = &state.ActiveTrack{Title: ptr("A")}
		return true
	})

	snap := store.Snapshot()
	*snap.ActiveTrack.Title = "B"

	assert.Equal(t, "A", *store.Snapshot().ActiveTrack.Title)
}

func TestTee(t *testing.T) {
	a, b := statetest.NewRecorder(), statetest.NewRecorder()
	pub := state.Tee(a, b)

	pub.PublishPosition(state.Position{Position: 12})
	pub.PublishError(state.AppError{Category: state.CategoryWebSocket, Message: "x"})

	for _, rec := range []*statetest.Recorder{a, b} {
		assert.Equal(t, []state.Position{{Position: 12}}, rec.Positions())
		assert.Len(t, rec.Errors(), 1)
	}
}
