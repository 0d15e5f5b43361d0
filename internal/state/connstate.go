package state

import (
	"encoding/json"
	"fmt"
)

// Status is the connection status of a ConnectionState.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusDisconnecting
)

// String returns the name used on the wire.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ConnectionState is the state of the feed connection.
//
// Message carries the target endpoint for Connecting and Connected, and an
// optional human-readable reason for Disconnected. It is empty for
// Disconnecting.
type ConnectionState struct {
	Status  Status
	Message string
}

// Disconnected returns a Disconnected state. An empty reason means none.
func Disconnected(reason string) ConnectionState {
	return ConnectionState{Status: StatusDisconnected, Message: reason}
}

// Connecting returns a Connecting state for target.
func Connecting(target string) ConnectionState {
	return ConnectionState{Status: StatusConnecting, Message: target}
}

// Connected returns a Connected state for target.
func Connected(target string) ConnectionState {
	return ConnectionState{Status: StatusConnected, Message: target}
}

// Disconnecting returns the Disconnecting state.
func Disconnecting() ConnectionState {
	return ConnectionState{Status: StatusDisconnecting}
}

// Is reports whether the state has the given status.
func (s ConnectionState) Is(status Status) bool {
	return s.Status == status
}

func (s ConnectionState) String() string {
	if s.Message == "" {
		return s.Status.String()
	}
	return s.Status.String() + "(" + s.Message + ")"
}

type connectionStateJSON struct {
	State   string  `json:"state"`
	Message *string `json:"message"`
}

// MarshalJSON encodes the state as {"state": ..., "message": ...}.
// A Disconnected state without a reason encodes message as null.
func (s ConnectionState) MarshalJSON() ([]byte, error) {
	out := connectionStateJSON{State: s.Status.String()}
	if s.Status != StatusDisconnected || s.Message != "" {
		msg := s.Message
		out.Message = &msg
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (s *ConnectionState) UnmarshalJSON(data []byte) error {
	var in connectionStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch in.State {
	case "Disconnected":
		s.Status = StatusDisconnected
	case "Connecting":
		s.Status = StatusConnecting
	case "Connected":
		s.Status = StatusConnected
	case "Disconnecting":
		s.Status = StatusDisconnecting
	default:
		return fmt.Errorf("unknown connection state %q", in.State)
	}

	s.Message = ""
	if in.Message != nil {
		s.Message = *in.Message
	}
	return nil
}

// AppState is the application state published to the presentation layer.
type AppState struct {
	VibinConnection ConnectionState `json:"vibin_connection"`
}
