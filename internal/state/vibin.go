package state

import (
	"slices"
	"sync"
)

// StreamerDisplay mirrors the streamer's front-panel display.
type StreamerDisplay struct {
	Line1          *string `json:"line1"`
	Line2          *string `json:"line2"`
	Line3          *string `json:"line3"`
	Format         *string `json:"format"`
	PlaybackSource *string `json:"playback_source"`
	ArtURL         *string `json:"art_url"`
}

// Merge copies every field set in other, leaving the rest untouched.
func (d *StreamerDisplay) Merge(other StreamerDisplay) {
	mergeField(&d.Line1, other.Line1)
	mergeField(&d.Line2, other.Line2)
	mergeField(&d.Line3, other.Line3)
	mergeField(&d.Format, other.Format)
	mergeField(&d.PlaybackSource, other.PlaybackSource)
	mergeField(&d.ArtURL, other.ArtURL)
}

// Source is a streamer input (e.g. "stream.service.spotify").
type Source struct {
	ID                *string `json:"id"`
	Name              *string `json:"name"`
	DefaultName       *string `json:"default_name"`
	Class             *string `json:"class"`
	Nameable          *bool   `json:"nameable"`
	UISelectable      *bool   `json:"ui_selectable"`
	Description       *string `json:"description"`
	DescriptionLocale *string `json:"description_locale"`
	PreferredOrder    *int    `json:"preferred_order"`
}

// StreamerSources lists the active and available inputs.
type StreamerSources struct {
	Active    Source   `json:"active"`
	Available []Source `json:"available"`
}

// Amplifier is the amplifier state.
type Amplifier struct {
	Mute   *string  `json:"mute"`
	Volume *float32 `json:"volume"`
}

// TransportState is the playback transport (play state, controls, modes).
type TransportState struct {
	PlayState      *string  `json:"play_state"`
	ActiveControls []string `json:"active_controls"`
	Repeat         *string  `json:"repeat"`
	Shuffle        *string  `json:"shuffle"`
}

// ActiveTrack is the track currently playing.
type ActiveTrack struct {
	Title    *string `json:"title"`
	Artist   *string `json:"artist"`
	Album    *string `json:"album"`
	ArtURL   *string `json:"art_url"`
	Duration *int    `json:"duration"`
}

// VibinState aggregates everything known about the Vibin system. Fields are
// filled in by the frame kinds that carry them.
type VibinState struct {
	Power       *string         `json:"power"`
	Amplifier   *Amplifier      `json:"amplifier"`
	Display     StreamerDisplay `json:"display"`
	Transport   *TransportState `json:"transport"`
	Source      *Source         `json:"source"`
	ActiveTrack *ActiveTrack    `json:"active_track"`
}

// NewVibinState returns the state before any frame has been received.
func NewVibinState() VibinState {
	off := "off"
	return VibinState{Power: &off}
}

// Clone returns a deep copy that shares no memory with s.
func (s VibinState) Clone() VibinState {
	out := VibinState{
		Power: clonePtr(s.Power),
		Display: StreamerDisplay{
			Line1:          clonePtr(s.Display.Line1),
			Line2:          clonePtr(s.Display.Line2),
			Line3:          clonePtr(s.Display.Line3),
			Format:         clonePtr(s.Display.Format),
			PlaybackSource: clonePtr(s.Display.PlaybackSource),
			ArtURL:         clonePtr(s.Display.ArtURL),
		},
	}
	if s.Amplifier != nil {
		out.Amplifier = &Amplifier{
			Mute:   clonePtr(s.Amplifier.Mute),
			Volume: clonePtr(s.Amplifier.Volume),
		}
	}
	if s.Transport != nil {
		out.Transport = &TransportState{
			PlayState:      clonePtr(s.Transport.PlayState),
			ActiveControls: slices.Clone(s.Transport.ActiveControls),
			Repeat:         clonePtr(s.Transport.Repeat),
			Shuffle:        clonePtr(s.Transport.Shuffle),
		}
	}
	if s.Source != nil {
		src := s.Source.clone()
		out.Source = &src
	}
	if s.ActiveTrack != nil {
		out.ActiveTrack = &ActiveTrack{
			Title:    clonePtr(s.ActiveTrack.Title),
			Artist:   clonePtr(s.ActiveTrack.Artist),
			Album:    clonePtr(s.ActiveTrack.Album),
			ArtURL:   clonePtr(s.ActiveTrack.ArtURL),
			Duration: clonePtr(s.ActiveTrack.Duration),
		}
	}
	return out
}

func (s Source) clone() Source {
	return Source{
		ID:                clonePtr(s.ID),
		Name:              clonePtr(s.Name),
		DefaultName:       clonePtr(s.DefaultName),
		Class:             clonePtr(s.Class),
		Nameable:          clonePtr(s.Nameable),
		UISelectable:      clonePtr(s.UISelectable),
		Description:       clonePtr(s.Description),
		DescriptionLocale: clonePtr(s.DescriptionLocale),
		PreferredOrder:    clonePtr(s.PreferredOrder),
	}
}

// Store owns the shared VibinState.
type Store struct {
	mu    sync.Mutex
	state VibinState
	pub   Publisher
}

// NewStore creates a Store holding NewVibinState.
func NewStore(pub Publisher) *Store {
	if pub == nil {
		pub = Discard
	}
	return &Store{
		state: NewVibinState(),
		pub:   pub,
	}
}

// Update applies fn to the state under the store lock. When fn returns true
// a snapshot of the updated state is published before the lock is released.
func (s *Store) Update(fn func(*VibinState) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fn(&s.state) {
		s.pub.PublishVibinState(s.state.Clone())
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() VibinState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Publish republishes the current state.
func (s *Store) Publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pub.PublishVibinState(s.state.Clone())
}

func mergeField[T any](dst **T, src *T) {
	if src != nil {
		*dst = clonePtr(src)
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
