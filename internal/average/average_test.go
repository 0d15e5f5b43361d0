package average

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningAverage_Iterates(t *testing.T) {
	avg := New(5)
	for i := 0; i < 5; i++ {
		avg.Add(float64(i))
	}

	count := 0
	for i, v := range avg.All() {
		assert.Equal(t, float64(i), v)
		count++
	}
	assert.Equal(t, 5, count)
}

func TestRunningAverage_IterationIsSnapshot(t *testing.T) {
	avg := New(3)
	avg.Add(1)
	avg.Add(2)

	seq := avg.All()
	avg.Add(3)
	avg.Add(4)

	var got []float64
	for _, v := range seq {
		got = append(got, v)
	}
	assert.Equal(t, []float64{1, 2}, got)

	// Ranging again yields the same snapshot.
	got = got[:0]
	for _, v := range seq {
		got = append(got, v)
	}
	assert.Equal(t, []float64{1, 2}, got)
}

func TestRunningAverage_MaintainsLimit(t *testing.T) {
	avg := New(2)
	assert.Equal(t, 0, avg.Len())

	avg.Add(1)
	assert.Equal(t, 1, avg.Len())
	avg.Add(1)
	assert.Equal(t, 2, avg.Len())
	avg.Add(1)
	assert.Equal(t, 2, avg.Len())
	assert.Equal(t, 2, avg.Cap())
}

func TestRunningAverage_EvictsOldest(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		in    []float64
		want  []float64
	}{
		{"under limit", 3, []float64{1, 2}, []float64{1, 2}},
		{"at limit", 3, []float64{1, 2, 3}, []float64{1, 2, 3}},
		{"one over", 2, []float64{1, 2, 3}, []float64{2, 3}},
		{"many over", 3, []float64{1, 2, 3, 4, 5, 6, 7}, []float64{5, 6, 7}},
		{"limit one", 1, []float64{9, 8}, []float64{8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg := New(tt.limit)
			for _, v := range tt.in {
				avg.Add(v)
			}
			assert.Equal(t, tt.want, avg.Values())
			for i, want := range tt.want {
				got, err := avg.At(i)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestRunningAverage_Average(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
	}{
		{"fewer than limit", []float64{2, 8}},
		{"same as limit", []float64{3, 4, 8}},
		{"more than limit", []float64{10, 3, 4, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg := New(3)
			for _, v := range tt.in {
				avg.Add(v)
			}
			got, err := avg.Average()
			require.NoError(t, err)
			assert.Equal(t, 5.0, got)
		})
	}
}

func TestRunningAverage_EmptyWindow(t *testing.T) {
	avg := New(3)

	_, err := avg.Average()
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestRunningAverage_OutOfRange(t *testing.T) {
	avg := New(2)
	avg.Add(1)

	_, err := avg.At(1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = avg.At(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNew_ClampsLimit(t *testing.T) {
	avg := New(0)
	avg.Add(1)
	avg.Add(2)

	assert.Equal(t, 1, avg.Cap())
	assert.Equal(t, []float64{2}, avg.Values())
}
