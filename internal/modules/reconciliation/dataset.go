// Package reconciliation joins position snapshots against price and FX
// history and produces the unified per-(date, ticker) dataset PnL is
// computed from.
package reconciliation

import (
	"sort"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/currency"
	"github.com/vmihailenco/msgpack/v5"
)

// Row is one reconciled (date, ticker) observation. Monetary values are in USD.
type Row struct {
	Date           time.Time       `json:"date" msgpack:"date"`
	Ticker         string          `json:"ticker" msgpack:"ticker"`
	Position       float64         `json:"position" msgpack:"position"`
	Trade          float64         `json:"trade" msgpack:"trade"`
	Mid            float64         `json:"mid" msgpack:"mid"`
	Currency       domain.Currency `json:"currency" msgpack:"currency"`
	FXRate         float64         `json:"fx_rate" msgpack:"fx_rate"`
	MidUSD         float64         `json:"mid_usd" msgpack:"mid_usd"`
	PortfolioValue float64         `json:"portfolio_value" msgpack:"portfolio_value"`
	CashFlow       float64         `json:"cash_flow" msgpack:"cash_flow"`
}

// Dataset is the reconciled output. Rows are sorted by (date, ticker).
// FX holds every conversion pair, sorted by pair name and forward-filled over
// Dates.
type Dataset struct {
	Rows  []Row             `json:"rows" msgpack:"rows"`
	Dates []time.Time       `json:"dates" msgpack:"dates"`
	FX    []currency.Column `json:"-" msgpack:"fx"`
}

// DecodeMsgpack restores dates as UTC midnights; msgpack decodes times into
// the local zone.
func (d *Dataset) DecodeMsgpack(dec *msgpack.Decoder) error {
	type plain Dataset
	if err := dec.Decode((*plain)(d)); err != nil {
		return err
	}
	for i := range d.Dates {
		d.Dates[i] = domain.UTCDate(d.Dates[i])
	}
	for i := range d.Rows {
		d.Rows[i].Date = domain.UTCDate(d.Rows[i].Date)
	}
	return nil
}

// FXRates returns the rate column of pair, or nil when the pair is absent.
func (d *Dataset) FXRates(pair string) []float64 {
	i := sort.Search(len(d.FX), func(i int) bool { return d.FX[i].Pair >= pair })
	if i < len(d.FX) && d.FX[i].Pair == pair {
		return d.FX[i].Rates
	}
	return nil
}

// Converter returns a currency converter over the dataset's FX columns.
func (d *Dataset) Converter() *currency.Converter {
	return currency.NewConverter(d.Dates, d.FX)
}

// Range returns the first and last date with at least one row.
func (d *Dataset) Range() domain.DateRange {
	if len(d.Rows) == 0 {
		return domain.DateRange{}
	}
	return domain.DateRange{Start: d.Rows[0].Date, End: d.Rows[len(d.Rows)-1].Date}
}

// Tickers returns the distinct tickers in alphabetical order.
func (d *Dataset) Tickers() []string {
	seen := make(map[string]struct{})
	var tickers []string
	for _, r := range d.Rows {
		if _, ok := seen[r.Ticker]; !ok {
			seen[r.Ticker] = struct{}{}
			tickers = append(tickers, r.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}

// DateIndex returns the position of date in Dates.
func (d *Dataset) DateIndex(date time.Time) (int, bool) {
	i := sort.Search(len(d.Dates), func(i int) bool { return !d.Dates[i].Before(date) })
	if i < len(d.Dates) && d.Dates[i].Equal(date) {
		return i, true
	}
	return 0, false
}
