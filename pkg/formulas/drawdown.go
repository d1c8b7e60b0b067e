package formulas

// DrawdownMetrics describes the largest peak-to-trough decline of a level series.
type DrawdownMetrics struct {
	MaxDrawdown float64 // Absolute decline, always >= 0
	TroughIndex int     // Index where the maximum drawdown is reached
	PeakIndex   int     // Index of the peak preceding the trough
}

// CalculateDrawdown computes the absolute maximum drawdown of a level series
// (e.g. cumulative PnL).
//
// Drawdown[i] = max(levels[0..i]) - levels[i]
//
// The trough is the first index where the largest drawdown occurs. The peak is
// the most recent index at or before the trough whose level equals the running
// maximum at the trough. Returns nil for an empty series.
func CalculateDrawdown(levels []float64) *DrawdownMetrics {
	if len(levels) == 0 {
		return nil
	}

	running := make([]float64, len(levels))
	maxDrawdown := 0.0
	trough := 0

	for i, v := range levels {
		running[i] = v
		if i > 0 && running[i-1] > v {
			running[i] = running[i-1]
		}

		if dd := running[i] - v; dd > maxDrawdown {
			maxDrawdown = dd
			trough = i
		}
	}

	peak := trough
	for i := trough; i >= 0; i-- {
		if levels[i] == running[trough] {
			peak = i
			break
		}
	}

	return &DrawdownMetrics{
		MaxDrawdown: maxDrawdown,
		TroughIndex: trough,
		PeakIndex:   peak,
	}
}
