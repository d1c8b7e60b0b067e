package reconciliation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/currency"
	"github.com/aristath/portfolio-analytics/internal/modules/marketdata"
	"github.com/aristath/portfolio-analytics/internal/modules/positions"
)

// Reconcile aligns positions with prices and FX rates.
//
// Prices are laid on the grid of position dates × price tickers and forward
// filled per ticker; observations on dates outside the grid are not used.
// Trades are per-ticker position differences. Rows whose price is still
// unknown after the fill are dropped, but their quantities still anchor the
// next trade. The first row kept for each ticker has a zero trade.
// The inputs are not modified.
func Reconcile(table *positions.Table, prices []marketdata.Price, fx []marketdata.FXRate) (*Dataset, error) {
	dates := table.Dates()
	dateIdx := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		dateIdx[d] = i
	}

	grid := priceGrid(dates, dateIdx, prices)
	fxCols := fxColumns(dates, dateIdx, fx)
	conv := currency.NewConverter(dates, fxCols)

	// Trades are diffs along each ticker's own history.
	prevQty := make(map[string]float64)
	emitted := make(map[string]bool)
	rows := make([]Row, 0, len(table.Records))
	for _, rec := range table.Records {
		trade := 0.0
		if prev, ok := prevQty[rec.Ticker]; ok {
			trade = rec.Quantity - prev
		}
		prevQty[rec.Ticker] = rec.Quantity

		series, ok := grid[rec.Ticker]
		if !ok {
			continue
		}
		i := dateIdx[rec.Date]
		quote := series[i]
		if !quote.valid {
			continue
		}

		if !emitted[rec.Ticker] {
			emitted[rec.Ticker] = true
			trade = 0
		}

		rate, err := conv.ToUSD(i, quote.currency)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", rec.Ticker, domain.FormatDate(rec.Date), err)
		}

		midUSD := quote.mid * rate
		rows = append(rows, Row{
			Date:           rec.Date,
			Ticker:         rec.Ticker,
			Position:       rec.Quantity,
			Trade:          trade,
			Mid:            quote.mid,
			Currency:       quote.currency,
			FXRate:         rate,
			MidUSD:         midUSD,
			PortfolioValue: rec.Quantity * midUSD,
			CashFlow:       cashFlow(trade, midUSD),
		})
	}

	return &Dataset{Rows: rows, Dates: dates, FX: fxCols}, nil
}

// cashFlow is the signed cash movement of a trade. A zero-valued trade yields
// exactly 0 rather than -0.
func cashFlow(trade, midUSD float64) float64 {
	p := trade * midUSD
	if p == 0 {
		return 0
	}
	return -p
}

type quote struct {
	mid      float64
	currency domain.Currency
	valid    bool
}

// priceGrid returns, per ticker, the forward-filled quote on each position date.
func priceGrid(dates []time.Time, dateIdx map[time.Time]int, prices []marketdata.Price) map[string][]quote {
	grid := make(map[string][]quote)
	for _, p := range prices {
		i, ok := dateIdx[p.Date]
		if !ok {
			continue
		}
		series, ok := grid[p.Ticker]
		if !ok {
			series = make([]quote, len(dates))
			grid[p.Ticker] = series
		}
		series[i] = quote{mid: p.Mid, currency: p.Currency, valid: p.Currency != ""}
	}

	for _, series := range grid {
		for i := 1; i < len(series); i++ {
			if !series[i].valid {
				series[i] = series[i-1]
			}
		}
	}
	return grid
}

// fxColumns pivots FX rates into one forward-filled column per conversion
// pair, sorted by pair.
func fxColumns(dates []time.Time, dateIdx map[time.Time]int, fx []marketdata.FXRate) []currency.Column {
	pairs := domain.ConversionPairs()
	sort.Strings(pairs)

	cols := make([]currency.Column, len(pairs))
	byPair := make(map[string][]float64, len(pairs))
	for j, pair := range pairs {
		rates := make([]float64, len(dates))
		for i := range rates {
			rates[i] = math.NaN()
		}
		cols[j] = currency.Column{Pair: pair, Rates: rates}
		byPair[pair] = rates
	}

	for _, r := range fx {
		rates, ok := byPair[r.Ticker]
		if !ok {
			continue
		}
		if i, ok := dateIdx[r.Date]; ok {
			rates[i] = r.Mid
		}
	}

	for _, col := range cols {
		for i := 1; i < len(col.Rates); i++ {
			if math.IsNaN(col.Rates[i]) {
				col.Rates[i] = col.Rates[i-1]
			}
		}
	}
	return cols
}
