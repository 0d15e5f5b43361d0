package state

import (
	"log/slog"
)

// MessageKind names a published event.
type MessageKind string

const (
	MessageAppState   MessageKind = "AppState"
	MessageVibinState MessageKind = "VibinState"
	MessagePosition   MessageKind = "Position"
	MessageError      MessageKind = "Error"
)

// ErrorCategory classifies an AppError.
type ErrorCategory string

const (
	CategoryWebSocket ErrorCategory = "WebSocket"
	CategoryConfig    ErrorCategory = "Config"
)

// AppError is a non-fatal diagnostic for the presentation layer.
type AppError struct {
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
}

// Position is the current track position in seconds. It is published on
// its own, roughly once per second, and never merged into VibinState.
type Position struct {
	Position int `json:"position"`
}

// Publisher receives state snapshots and events for the presentation layer.
// Calls are made while state locks are held; implementations must return
// promptly and must not call back into the Lifecycle or Store.
type Publisher interface {
	PublishAppState(AppState)
	PublishVibinState(VibinState)
	PublishPosition(Position)
	PublishError(AppError)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) PublishAppState(AppState)     {}
func (discard) PublishVibinState(VibinState) {}
func (discard) PublishPosition(Position)     {}
func (discard) PublishError(AppError)        {}

// Tee returns a Publisher that forwards every event to each of pubs in order.
func Tee(pubs ...Publisher) Publisher {
	return tee(pubs)
}

type tee []Publisher

func (t tee) PublishAppState(s AppState) {
	for _, p := range t {
		p.PublishAppState(s)
	}
}

func (t tee) PublishVibinState(s VibinState) {
	for _, p := range t {
		p.PublishVibinState(s)
	}
}

func (t tee) PublishPosition(pos Position) {
	for _, p := range t {
		p.PublishPosition(pos)
	}
}

func (t tee) PublishError(e AppError) {
	for _, p := range t {
		p.PublishError(e)
	}
}

// LogPublisher logs every published event.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. Position events are logged at
// debug level since they arrive every second.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishAppState(s AppState) {
	p.logger.Info("app state", "connection", s.VibinConnection.String())
}

func (p *LogPublisher) PublishVibinState(s VibinState) {
	attrs := []any{"power", deref(s.Power)}
	if s.Transport != nil {
		attrs = append(attrs, "play_state", deref(s.Transport.PlayState))
	}
	if s.ActiveTrack != nil {
		attrs = append(attrs,
			"title", deref(s.ActiveTrack.Title),
			"artist", deref(s.ActiveTrack.Artist),
		)
	}
	if s.Source != nil {
		attrs = append(attrs, "source", deref(s.Source.Name))
	}
	p.logger.Info("vibin state", attrs...)
}

func (p *LogPublisher) PublishPosition(pos Position) {
	p.logger.Debug("position", "seconds", pos.Position)
}

func (p *LogPublisher) PublishError(e AppError) {
	p.logger.Warn("app error", "category", e.Category, "message", e.Message)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
