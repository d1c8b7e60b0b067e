package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	assert.Equal(t, []float64{}, Diff(nil))
	assert.Equal(t, []float64{}, Diff([]float64{5}))
	assert.Equal(t, []float64{20, -30, 20, 20}, Diff([]float64{100, 120, 90, 110, 130}))
}

func TestMeanAndStdDev(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(StdDev([]float64{1})))

	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	// Sample standard deviation of 1..4 is sqrt(5/3)
	assert.InDelta(t, math.Sqrt(5.0/3.0), StdDev([]float64{1, 2, 3, 4}), 1e-12)
}

func TestCalculateDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		levels []float64
		max    float64
		trough int
		peak   int
	}{
		{
			name:   "peak then trough then recovery",
			levels: []float64{100, 120, 90, 110, 130},
			max:    30,
			trough: 2,
			peak:   1,
		},
		{
			name:   "monotonic increase has no drawdown",
			levels: []float64{1, 2, 3},
			max:    0,
			trough: 0,
			peak:   0,
		},
		{
			name:   "repeated peak uses the most recent one",
			levels: []float64{50, 80, 60, 80, 40},
			max:    40,
			trough: 4,
			peak:   3,
		},
		{
			name:   "negative levels",
			levels: []float64{-10, -5, -25},
			max:    20,
			trough: 2,
			peak:   1,
		},
		{
			name:   "first of equal drawdowns wins",
			levels: []float64{10, 0, 10, 0},
			max:    10,
			trough: 1,
			peak:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CalculateDrawdown(tt.levels)
			require.NotNil(t, m)
			assert.Equal(t, tt.max, m.MaxDrawdown)
			assert.Equal(t, tt.trough, m.TroughIndex)
			assert.Equal(t, tt.peak, m.PeakIndex)
		})
	}

	assert.Nil(t, CalculateDrawdown(nil))
}

func TestCalculateSharpeFromLevels(t *testing.T) {
	levels := []float64{100, 120, 90, 110, 130}
	changes := []float64{20, -30, 20, 20}
	expected := Mean(changes) / StdDev(changes) * math.Sqrt(252)

	assert.InDelta(t, expected, CalculateSharpeFromLevels(levels, TradingDaysPerYear), 1e-12)
}

func TestCalculateSharpeFromLevels_Degenerate(t *testing.T) {
	// Constant increments: zero variance, positive mean
	assert.True(t, math.IsInf(CalculateSharpeFromLevels([]float64{1, 2, 3, 4}, 252), 1))

	// Flat series: 0/0
	assert.True(t, math.IsNaN(CalculateSharpeFromLevels([]float64{5, 5, 5}, 252)))

	// Too short to have a standard deviation
	assert.True(t, math.IsNaN(CalculateSharpeFromLevels([]float64{5, 6}, 252)))
}
