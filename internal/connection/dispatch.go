package connection

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rickgao/weevibin/internal/state"
)

// dispatcher merges decoded envelopes into the shared VibinState.
type dispatcher struct {
	store  *state.Store
	pub    state.Publisher
	logger *slog.Logger
}

// dispatch applies one envelope. A returned error is a decode failure for
// a known type; it never ends the connection.
func (d *dispatcher) dispatch(env Envelope) error {
	switch env.Type {
	case TypeSystem:
		var p SystemPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		d.store.Update(func(s *state.VibinState) bool {
			applySystem(s, p)
			return true
		})

	case TypeTransportState:
		var p TransportStatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		d.store.Update(func(s *state.VibinState) bool {
			s.Transport = &state.TransportState{
				PlayState:      p.PlayState,
				ActiveControls: p.ActiveControls,
				Repeat:         p.Repeat,
				Shuffle:        p.Shuffle,
			}
			return true
		})

	case TypeCurrentlyPlaying:
		var p CurrentlyPlayingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		d.store.Update(func(s *state.VibinState) bool {
			s.ActiveTrack = &state.ActiveTrack{
				Title:    p.ActiveTrack.Title,
				Artist:   p.ActiveTrack.Artist,
				Album:    p.ActiveTrack.Album,
				ArtURL:   p.ActiveTrack.ArtURL,
				Duration: p.ActiveTrack.Duration,
			}
			return true
		})

	case TypePosition:
		var p PositionPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.logger.Debug("dropping undecodable position", "error", err)
			return nil
		}
		d.pub.PublishPosition(state.Position{Position: p.Position})

	default:
		d.logger.Debug("ignoring message", "type", env.Type)
	}

	return nil
}

// applySystem merges a System payload. Power is always overwritten, the
// amplifier is replaced, and display fields are merged one by one.
func applySystem(s *state.VibinState, p SystemPayload) {
	s.Power = p.Power

	if p.Amplifier != nil {
		s.Amplifier = &state.Amplifier{
			Mute:   p.Amplifier.Mute,
			Volume: p.Amplifier.Volume,
		}
	}

	if p.Streamer == nil {
		return
	}
	if p.Streamer.Display != nil {
		s.Display.Merge(*p.Streamer.Display)
	}
	if p.Streamer.Sources != nil {
		active := p.Streamer.Sources.Active
		s.Source = &active
	}
}
