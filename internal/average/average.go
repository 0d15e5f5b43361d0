package average

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// Errors
var (
	ErrEmptyWindow = errors.New("average of empty window")
	ErrOutOfRange  = errors.New("index out of range")
)

// RunningAverage keeps the most recent samples up to a fixed limit.
// Adding beyond the limit evicts the oldest sample.
//
// A RunningAverage is not safe for concurrent use.
type RunningAverage struct {
	values []float64
	limit  int
}

// New creates a RunningAverage holding at most limit samples.
func New(limit int) *RunningAverage {
	if limit < 1 {
		limit = 1
	}
	return &RunningAverage{
		values: make([]float64, 0, limit),
		limit:  limit,
	}
}

// Add appends a sample, evicting the oldest one when over capacity.
func (a *RunningAverage) Add(value float64) {
	if len(a.values) == a.limit {
		copy(a.values, a.values[1:])
		a.values = a.values[:len(a.values)-1]
	}
	a.values = append(a.values, value)
}

// Average returns the arithmetic mean of the current samples.
func (a *RunningAverage) Average() (float64, error) {
	if len(a.values) == 0 {
		return 0, ErrEmptyWindow
	}

	var sum float64
	for _, v := range a.values {
		sum += v
	}
	return sum / float64(len(a.values)), nil
}

// Len returns the current number of samples.
func (a *RunningAverage) Len() int {
	return len(a.values)
}

// Cap returns the window limit.
func (a *RunningAverage) Cap() int {
	return a.limit
}

// At returns the i-th sample in insertion order (0 = oldest retained).
func (a *RunningAverage) At(i int) (float64, error) {
	if i < 0 || i >= len(a.values) {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, i, len(a.values))
	}
	return a.values[i], nil
}

// Values returns a copy of the current samples, oldest first.
func (a *RunningAverage) Values() []float64 {
	return slices.Clone(a.values)
}

// All iterates over a snapshot of the samples taken when All is called.
// The sequence can be ranged over more than once.
func (a *RunningAverage) All() iter.Seq2[int, float64] {
	snapshot := a.Values()
	return func(yield func(int, float64) bool) {
		for i, v := range snapshot {
			if !yield(i, v) {
				return
			}
		}
	}
}
