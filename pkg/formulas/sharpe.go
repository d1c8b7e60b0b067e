package formulas

import "math"

// CalculateSharpeFromLevels calculates an annualised Sharpe ratio from a level
// series such as daily cumulative PnL.
//
//	Sharpe = mean(diff(levels)) / std(diff(levels)) × sqrt(periodsPerYear)
//
// No risk-free rate is subtracted. A flat series has zero variance and yields
// a non-finite ratio (±Inf or NaN); callers receive it as is.
func CalculateSharpeFromLevels(levels []float64, periodsPerYear int) float64 {
	changes := Diff(levels)
	return Mean(changes) / StdDev(changes) * math.Sqrt(float64(periodsPerYear))
}
