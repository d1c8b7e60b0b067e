// Package formulas holds the numerical kernels behind portfolio statistics.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualises daily statistics.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values.
// Returns NaN for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample (n-1) standard deviation.
// Returns NaN when fewer than two values are given.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return stat.StdDev(data, nil)
}

// Diff returns the first differences of a level series:
// out[i] = levels[i+1] - levels[i]
func Diff(levels []float64) []float64 {
	if len(levels) < 2 {
		return []float64{}
	}

	out := make([]float64, len(levels)-1)
	for i := 1; i < len(levels); i++ {
		out[i-1] = levels[i] - levels[i-1]
	}
	return out
}
