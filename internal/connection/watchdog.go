package connection

import (
	"time"

	"github.com/rickgao/weevibin/internal/average"
)

// watchdog infers a silently dropped connection from gaps between server
// keepalives. The first keepalive only sets the baseline; every later one
// adds its interval (in seconds) to a running average.
type watchdog struct {
	intervals      *average.RunningAverage
	last           time.Time
	seen           int
	defaultSilence time.Duration
	factor         float64
	minSamples     int
}

func newWatchdog(cfg Config, start time.Time) *watchdog {
	return &watchdog{
		intervals:      average.New(cfg.KeepaliveWindow),
		last:           start,
		defaultSilence: cfg.DefaultSilence,
		factor:         cfg.SilenceFactor,
		minSamples:     cfg.MinKeepaliveSamples,
	}
}

// observe records a keepalive received at t.
func (w *watchdog) observe(t time.Time) {
	if w.seen > 0 {
		w.intervals.Add(t.Sub(w.last).Seconds())
	}
	w.seen++
	w.last = t
}

// threshold returns the silence currently tolerated.
func (w *watchdog) threshold() time.Duration {
	if w.intervals.Len() < w.minSamples {
		return w.defaultSilence
	}
	avg, err := w.intervals.Average()
	if err != nil {
		return w.defaultSilence
	}
	return time.Duration(avg * w.factor * float64(time.Second))
}

// expired reports whether the silence at t exceeds the threshold.
func (w *watchdog) expired(t time.Time) bool {
	return t.Sub(w.last) > w.threshold()
}

// silence returns the time since the last keepalive.
func (w *watchdog) silence(t time.Time) time.Duration {
	return t.Sub(w.last)
}
