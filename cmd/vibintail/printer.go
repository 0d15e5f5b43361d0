package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rickgao/weevibin/internal/state"
	"github.com/rickgao/weevibin/internal/ui"
)

type consoleEvent struct {
	kind    state.MessageKind
	payload any
	at      time.Time
}

// printEvents writes events until the queue is closed and drained.
func printEvents(w io.Writer, events *ui.Queue[consoleEvent], verbose bool) {
	for {
		ev, ok := events.Receive()
		if !ok {
			return
		}
		fmt.Fprintln(w, formatEvent(ev, verbose))
	}
}

func formatEvent(ev consoleEvent, verbose bool) string {
	stamp := ev.at.Format("15:04:05.000")

	if verbose {
		data, _ := json.MarshalIndent(ev.payload, "", "  ")
		return fmt.Sprintf("%s [%s] %s", stamp, strings.ToUpper(string(ev.kind)), data)
	}

	switch p := ev.payload.(type) {
	case state.AppState:
		return fmt.Sprintf("%s [APPSTATE] connection=%s", stamp, p.VibinConnection)
	case state.VibinState:
		return fmt.Sprintf("%s [VIBINSTATE] %s", stamp, summarize(p))
	case state.Position:
		return fmt.Sprintf("%s [POSITION] %ds", stamp, p.Position)
	case state.AppError:
		return fmt.Sprintf("%s [ERROR] %s: %s", stamp, p.Category, p.Message)
	default:
		return fmt.Sprintf("%s [%s] %v", stamp, strings.ToUpper(string(ev.kind)), p)
	}
}

func summarize(s state.VibinState) string {
	parts := []string{"power=" + orDash(s.Power)}
	if s.Amplifier != nil && s.Amplifier.Volume != nil {
		parts = append(parts, fmt.Sprintf("volume=%.2f", *s.Amplifier.Volume))
	}
	if s.Source != nil {
		parts = append(parts, "source="+orDash(s.Source.Name))
	}
	if s.Transport != nil {
		parts = append(parts, "play_state="+orDash(s.Transport.PlayState))
	}
	if s.ActiveTrack != nil {
		parts = append(parts, fmt.Sprintf("track=%q artist=%q",
			orDash(s.ActiveTrack.Title), orDash(s.ActiveTrack.Artist)))
	}
	if s.Display.Line1 != nil {
		parts = append(parts, fmt.Sprintf("display=%q", *s.Display.Line1))
	}
	return strings.Join(parts, " ")
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
