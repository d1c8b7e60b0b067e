// Package pnl derives per-ticker and daily PnL series from a reconciled dataset.
//
// PnL is measured from the start of the selected window: the first row of
// each ticker inside the window counts as an opening purchase at that row's
// value, so every ticker starts at zero PnL. Later rows add their cash flows
// to a running total and PnL = PortfolioValue + cumulative cash flow.
package pnl

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/reconciliation"
	"github.com/vmihailenco/msgpack/v5"
)

// Filter restricts a PnL computation. Zero dates and an empty ticker list
// mean "no restriction".
type Filter struct {
	Start   time.Time `json:"start,omitempty" msgpack:"start"`
	End     time.Time `json:"end,omitempty" msgpack:"end"`
	Tickers []string  `json:"tickers,omitempty" msgpack:"tickers"`
}

// Normalized returns a copy with tickers trimmed, de-duplicated and sorted,
// so equivalent filters compare (and hash) equal.
func (f Filter) Normalized() Filter {
	seen := make(map[string]struct{}, len(f.Tickers))
	var tickers []string
	for _, t := range f.Tickers {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return Filter{Start: f.Start, End: f.End, Tickers: tickers}
}

// Point is the PnL of one ticker on one date, in the series currency.
type Point struct {
	Date               time.Time `json:"date" msgpack:"date"`
	Ticker             string    `json:"ticker" msgpack:"ticker"`
	PortfolioValue     float64   `json:"portfolio_value" msgpack:"portfolio_value"`
	CashFlow           float64   `json:"cash_flow" msgpack:"cash_flow"`
	CumulativeCashFlow float64   `json:"cumulative_cash_flow" msgpack:"cumulative_cash_flow"`
	PnL                float64   `json:"pnl" msgpack:"pnl"`
}

// Series is the expanded PnL table sorted by (date, ticker).
type Series struct {
	Currency domain.Currency `json:"currency" msgpack:"currency"`
	Points   []Point         `json:"points" msgpack:"points"`
}

// DecodeMsgpack restores point dates as UTC midnights.
func (s *Series) DecodeMsgpack(dec *msgpack.Decoder) error {
	type plain Series
	if err := dec.Decode((*plain)(s)); err != nil {
		return err
	}
	for i := range s.Points {
		s.Points[i].Date = domain.UTCDate(s.Points[i].Date)
	}
	return nil
}

// DailyPoint is the portfolio PnL summed across tickers on one date.
type DailyPoint struct {
	Date time.Time `json:"date" msgpack:"date"`
	PnL  float64   `json:"pnl" msgpack:"pnl"`
}

// Calculate computes the expanded PnL series of ds in the target currency.
func Calculate(ds *reconciliation.Dataset, f Filter, target domain.Currency) (*Series, error) {
	f = f.Normalized()
	if err := validateRange(ds, f); err != nil {
		return nil, err
	}
	if !target.Supported() {
		return nil, &domain.UnsupportedCurrencyError{Currency: string(target)}
	}

	var wanted map[string]struct{}
	if len(f.Tickers) > 0 {
		wanted = make(map[string]struct{}, len(f.Tickers))
		for _, t := range f.Tickers {
			wanted[t] = struct{}{}
		}
	}

	conv := ds.Converter()
	cumulative := make(map[string]float64)
	var points []Point

	for _, row := range ds.Rows {
		if !f.Start.IsZero() && row.Date.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && row.Date.After(f.End) {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[row.Ticker]; !ok {
				continue
			}
		}

		rate := 1.0
		if target != domain.PivotCurrency {
			i, ok := ds.DateIndex(row.Date)
			if !ok {
				return nil, fmt.Errorf("%w: row date %s missing from dataset calendar", domain.ErrCalculation, domain.FormatDate(row.Date))
			}
			var err error
			if rate, err = conv.FromUSD(i, target); err != nil {
				return nil, err
			}
		}

		value := row.PortfolioValue * rate
		flow := row.CashFlow * rate
		cum, seen := cumulative[row.Ticker]
		if !seen {
			flow = openingFlow(value)
		}
		cum += flow
		cumulative[row.Ticker] = cum

		points = append(points, Point{
			Date:               row.Date,
			Ticker:             row.Ticker,
			PortfolioValue:     value,
			CashFlow:           flow,
			CumulativeCashFlow: cum,
			PnL:                value + cum,
		})
	}

	if len(points) == 0 {
		return nil, &domain.EmptyFilterError{Tickers: f.Tickers}
	}

	return &Series{Currency: target, Points: points}, nil
}

// openingFlow treats the holding at the window start as bought at its value.
func openingFlow(value float64) float64 {
	if value == 0 {
		return 0
	}
	return -value
}

func validateRange(ds *reconciliation.Dataset, f Filter) error {
	if !f.Start.IsZero() && !f.End.IsZero() && f.Start.After(f.End) {
		return &domain.InvalidRangeError{Start: f.Start, End: f.End, Reversed: true}
	}

	span := ds.Range()
	outside := func(d time.Time) bool {
		return !d.IsZero() && (span.IsZero() || !span.Contains(d))
	}
	if outside(f.Start) || outside(f.End) {
		return &domain.InvalidRangeError{Start: f.Start, End: f.End, Available: span}
	}
	return nil
}

// Daily sums the series across tickers per date. Points are visited in
// (date, ticker) order so the summation order is fixed.
func Daily(s *Series) []DailyPoint {
	var daily []DailyPoint
	for _, p := range s.Points {
		if n := len(daily); n > 0 && daily[n-1].Date.Equal(p.Date) {
			daily[n-1].PnL += p.PnL
			continue
		}
		daily = append(daily, DailyPoint{Date: p.Date, PnL: p.PnL})
	}
	return daily
}

// Tickers returns the distinct tickers of the series in alphabetical order.
func (s *Series) Tickers() []string {
	seen := make(map[string]struct{})
	var tickers []string
	for _, p := range s.Points {
		if _, ok := seen[p.Ticker]; !ok {
			seen[p.Ticker] = struct{}{}
			tickers = append(tickers, p.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}

// Range returns the first and last date of the series.
func (s *Series) Range() domain.DateRange {
	if len(s.Points) == 0 {
		return domain.DateRange{}
	}
	return domain.DateRange{Start: s.Points[0].Date, End: s.Points[len(s.Points)-1].Date}
}
