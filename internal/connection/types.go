package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/weevibin/internal/state"
)

// Errors
var (
	ErrNotDisconnected        = errors.New("connection state is not Disconnected")
	ErrInvalidEndpoint        = errors.New("invalid vibin endpoint")
	ErrClientLostConnection   = errors.New("client lost connection (no keepalive)")
	ErrServerClosedConnection = errors.New("server closed connection")
	ErrConnectionIO           = errors.New("connection i/o error")
	ErrAlreadyStarted         = errors.New("manager already started")
	ErrNoEndpoint             = errors.New("no vibin endpoint configured")
)

// HandshakeError is returned when the WebSocket handshake fails.
type HandshakeError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *HandshakeError) Error() string {
	if e.Timeout {
		return "Timed out connecting to: " + e.URL
	}
	return fmt.Sprintf("Connection error: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// isConfigError reports whether err can never be fixed by retrying.
func isConfigError(err error) bool {
	return errors.Is(err, ErrInvalidEndpoint) || errors.Is(err, ErrNotDisconnected)
}

// Outcome is the result of one connection attempt.
type Outcome struct {
	Connected bool  // The handshake succeeded at least once during the attempt
	Err       error // Why the attempt ended; nil after a requested stop
}

// Config configures a single connection attempt.
type Config struct {
	HandshakeTimeout    time.Duration // Bound on the WebSocket handshake
	TickInterval        time.Duration // Stop/watchdog check period
	DefaultSilence      time.Duration // Allowed keepalive silence before warm-up completes
	SilenceFactor       float64       // Multiplier applied to the mean keepalive interval
	MinKeepaliveSamples int           // Samples needed before the learned threshold is used
	KeepaliveWindow     int           // Capacity of the keepalive interval window
	WriteTimeout        time.Duration // Deadline for pong and close control frames
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:    5 * time.Second,
		TickInterval:        2 * time.Second,
		DefaultSilence:      60 * time.Second,
		SilenceFactor:       1.25,
		MinKeepaliveSamples: 3,
		KeepaliveWindow:     10,
		WriteTimeout:        time.Second,
	}
}

// ManagerConfig configures the Manager.
type ManagerConfig struct {
	Endpoint   string        // Vibin WebSocket URL (e.g., ws://vibin.local:8080/ws); empty = not configured
	RetryDelay time.Duration // Wait before reconnecting a lost connection
	Connection Config
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		RetryDelay: 5 * time.Second,
		Connection: DefaultConfig(),
	}
}

// ManagerStats provides statistics about the Manager.
type ManagerStats struct {
	Started       bool
	EverConnected bool
	Attempts      int // Connection attempts since the Manager was created
	State         state.ConnectionState
}

// Envelope types sent by the Vibin server.
const (
	TypeSystem           = "System"
	TypeTransportState   = "TransportState"
	TypeCurrentlyPlaying = "CurrentlyPlaying"
	TypePosition         = "Position"
)

// Envelope is a text frame from the Vibin server.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SystemPayload is the payload of a System frame.
type SystemPayload struct {
	Power     *string           `json:"power"`
	Streamer  *StreamerPayload  `json:"streamer"`
	Amplifier *AmplifierPayload `json:"amplifier"`
}

// StreamerPayload is the streamer section of a System frame.
type StreamerPayload struct {
	Sources *state.StreamerSources `json:"sources"`
	Display *state.StreamerDisplay `json:"display"`
}

// AmplifierPayload is the amplifier section of a System frame.
type AmplifierPayload struct {
	Mute   *string  `json:"mute"`
	Volume *float32 `json:"volume"`
}

// TransportStatePayload is the payload of a TransportState frame.
type TransportStatePayload struct {
	PlayState      *string  `json:"play_state"`
	ActiveControls []string `json:"active_controls"`
	Repeat         *string  `json:"repeat"`
	Shuffle        *string  `json:"shuffle"`
}

// CurrentlyPlayingPayload is the payload of a CurrentlyPlaying frame.
// Format and stream details are sent too but are not part of VibinState.
type CurrentlyPlayingPayload struct {
	AlbumMediaID *string            `json:"album_media_id"`
	TrackMediaID *string            `json:"track_media_id"`
	ActiveTrack  ActiveTrackPayload `json:"active_track"`
}

// ActiveTrackPayload is the active_track section of a CurrentlyPlaying frame.
type ActiveTrackPayload struct {
	Title    *string `json:"title"`
	Artist   *string `json:"artist"`
	Album    *string `json:"album"`
	ArtURL   *string `json:"art_url"`
	Duration *int    `json:"duration"`
}

// PositionPayload is the payload of a Position frame.
type PositionPayload struct {
	Position int `json:"position"`
}
