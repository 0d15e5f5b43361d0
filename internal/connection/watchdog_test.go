package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchdog_DefaultThresholdUntilWarm(t *testing.T) {
	start := time.Unix(1000, 0)
	w := newWatchdog(DefaultConfig(), start)

	assert.Equal(t, 60*time.Second, w.threshold())
	assert.False(t, w.expired(start.Add(60*time.Second)))
	assert.True(t, w.expired(start.Add(61*time.Second)))

	// First keepalive only sets the baseline.
	w.observe(start.Add(30 * time.Second))
	assert.Equal(t, 0, w.intervals.Len())

	// Two samples are not enough to leave the default.
	w.observe(start.Add(40 * time.Second))
	w.observe(start.Add(50 * time.Second))
	assert.Equal(t, 2, w.intervals.Len())
	assert.Equal(t, 60*time.Second, w.threshold())
}

func TestWatchdog_LearnedThresholdBoundary(t *testing.T) {
	start := time.Unix(1000, 0)
	w := newWatchdog(DefaultConfig(), start)

	// Baseline plus three 10s intervals.
	last := start
	for i := 0; i < 4; i++ {
		last = start.Add(time.Duration(i*10) * time.Second)
		w.observe(last)
	}
	assert.Equal(t, []float64{10, 10, 10}, w.intervals.Values())
	assert.Equal(t, 12500*time.Millisecond, w.threshold())

	assert.False(t, w.expired(last.Add(12*time.Second)), "12s of silence is within 12.5s")
	assert.True(t, w.expired(last.Add(13*time.Second)), "13s of silence exceeds 12.5s")
}

func TestWatchdog_WindowCapacity(t *testing.T) {
	start := time.Unix(0, 0)
	w := newWatchdog(DefaultConfig(), start)

	for i := 0; i <= 25; i++ {
		w.observe(start.Add(time.Duration(i) * time.Second))
	}
	assert.Equal(t, 10, w.intervals.Len())
}

func TestWatchdog_Silence(t *testing.T) {
	start := time.Unix(0, 0)
	w := newWatchdog(DefaultConfig(), start)
	w.observe(start.Add(5 * time.Second))

	assert.Equal(t, 3*time.Second, w.silence(start.Add(8*time.Second)))
}
