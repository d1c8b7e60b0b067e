package analytics

import (
	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/pnl"
	"github.com/aristath/portfolio-analytics/internal/modules/stats"
)

// DefaultTopN is the number of winners and losers reported when unset.
const DefaultTopN = 5

// KeyStrategy selects how reconciled datasets are keyed in the cache.
type KeyStrategy string

const (
	// KeySignature keys on file size/mtime and the market store signature.
	KeySignature KeyStrategy = "signature"
	// KeyContent keys on the full content of positions, prices and FX rates.
	KeyContent KeyStrategy = "content"
)

// Request describes one analysis run.
type Request struct {
	Portfolio string
	Filter    pnl.Filter
	Currency  domain.Currency
	TopN      int
}

// Report is everything the presentation layer needs for one portfolio.
type Report struct {
	Portfolio string                `json:"portfolio"`
	Currency  domain.Currency       `json:"currency"`
	Range     domain.DateRange      `json:"range"`
	Expanded  *pnl.Series           `json:"expanded"`
	Daily     []pnl.DailyPoint      `json:"daily"`
	Stats     *stats.PortfolioStats `json:"stats"`
	Winners   []stats.TickerPnL     `json:"winners"`
	Losers    []stats.TickerPnL     `json:"losers"`
}
