// Package stats computes portfolio performance statistics from PnL series.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/pnl"
	"github.com/aristath/portfolio-analytics/pkg/formulas"
)

// PortfolioStats summarises a daily PnL curve.
type PortfolioStats struct {
	MaxDrawdown       float64   `json:"max_drawdown" msgpack:"max_drawdown"`
	MaxDrawdownDate   time.Time `json:"max_drawdown_date" msgpack:"max_drawdown_date"`
	DrawdownStartDate time.Time `json:"drawdown_start_date" msgpack:"drawdown_start_date"`
	// SharpeRatio is non-finite when daily PnL changes have zero variance.
	SharpeRatio float64 `json:"sharpe_ratio" msgpack:"sharpe_ratio"`
	PeriodPnL   float64 `json:"period_pnl" msgpack:"period_pnl"`
}

// TickerPnL is the most recent PnL of one ticker.
type TickerPnL struct {
	Ticker string  `json:"ticker" msgpack:"ticker"`
	PnL    float64 `json:"pnl" msgpack:"pnl"`
}

// Compute derives drawdown, Sharpe ratio and period PnL from a daily series.
func Compute(daily []pnl.DailyPoint) (*PortfolioStats, error) {
	if len(daily) == 0 {
		return nil, &domain.EmptyFilterError{}
	}

	levels := make([]float64, len(daily))
	for i, d := range daily {
		levels[i] = d.PnL
	}

	dd := formulas.CalculateDrawdown(levels)
	if dd == nil {
		return nil, fmt.Errorf("%w: drawdown undefined", domain.ErrCalculation)
	}

	return &PortfolioStats{
		MaxDrawdown:       dd.MaxDrawdown,
		MaxDrawdownDate:   daily[dd.TroughIndex].Date,
		DrawdownStartDate: daily[dd.PeakIndex].Date,
		SharpeRatio:       formulas.CalculateSharpeFromLevels(levels, formulas.TradingDaysPerYear),
		PeriodPnL:         levels[len(levels)-1] - levels[0],
	}, nil
}

// LastByTicker returns each ticker's most recent PnL, sorted by ticker.
func LastByTicker(s *pnl.Series) []TickerPnL {
	last := make(map[string]float64)
	for _, p := range s.Points {
		last[p.Ticker] = p.PnL
	}

	out := make([]TickerPnL, 0, len(last))
	for ticker, v := range last {
		out = append(out, TickerPnL{Ticker: ticker, PnL: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// WinnersAndLosers returns the topN tickers with the largest and the smallest
// most recent PnL. Equal values keep alphabetical order.
func WinnersAndLosers(s *pnl.Series, topN int) (winners, losers []TickerPnL) {
	if topN <= 0 {
		return nil, nil
	}

	last := LastByTicker(s)
	n := topN
	if n > len(last) {
		n = len(last)
	}

	winners = append([]TickerPnL(nil), last...)
	sort.SliceStable(winners, func(i, j int) bool { return winners[i].PnL > winners[j].PnL })

	losers = append([]TickerPnL(nil), last...)
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].PnL < losers[j].PnL })

	return winners[:n], losers[:n]
}
