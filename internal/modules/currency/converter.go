// Package currency converts reconciled USD values into display currencies
// using the dataset's date-aligned FX columns.
package currency

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
)

// Column is the forward-filled rate history of one conversion pair, aligned
// with a date axis. NaN marks a day before the pair's first observation.
type Column struct {
	Pair  string    `json:"pair" msgpack:"pair"`
	Rates []float64 `json:"rates" msgpack:"rates"`
}

// Converter moves values between supported currencies through USD.
type Converter struct {
	dates []time.Time
	fx    map[string][]float64
}

// NewConverter creates a converter over forward-filled FX columns aligned with dates.
func NewConverter(dates []time.Time, columns []Column) *Converter {
	fx := make(map[string][]float64, len(columns))
	for _, col := range columns {
		fx[col.Pair] = col.Rates
	}
	return &Converter{dates: dates, fx: fx}
}

// ToUSD returns the multiplier converting c into USD on the i-th date.
func (c *Converter) ToUSD(i int, from domain.Currency) (float64, error) {
	pair, err := from.ToUSDPair()
	if err != nil {
		return 0, err
	}
	return c.rate(pair, i)
}

// FromUSD returns the multiplier converting USD into c on the i-th date.
func (c *Converter) FromUSD(i int, to domain.Currency) (float64, error) {
	pair, err := to.FromUSDPair()
	if err != nil {
		return 0, err
	}
	return c.rate(pair, i)
}

// Convert converts value from one currency to another using the rates in
// effect on date (the latest known date not after it).
func (c *Converter) Convert(date time.Time, from domain.Currency, value float64, to domain.Currency) (float64, error) {
	if !from.Supported() {
		return 0, &domain.UnsupportedCurrencyError{Currency: string(from)}
	}
	if !to.Supported() {
		return 0, &domain.UnsupportedCurrencyError{Currency: string(to)}
	}
	if from == to {
		return value, nil
	}

	i, err := c.index(date)
	if err != nil {
		return 0, err
	}
	in, err := c.ToUSD(i, from)
	if err != nil {
		return 0, err
	}
	out, err := c.FromUSD(i, to)
	if err != nil {
		return 0, err
	}
	return value * in * out, nil
}

// rate looks up a pair on the i-th date; an empty pair is the USD identity.
func (c *Converter) rate(pair string, i int) (float64, error) {
	if pair == "" {
		return 1.0, nil
	}
	col := c.fx[pair]
	if i < 0 || i >= len(c.dates) || i >= len(col) || math.IsNaN(col[i]) {
		return 0, c.coverageError(pair, i)
	}
	return col[i], nil
}

func (c *Converter) index(date time.Time) (int, error) {
	i := sort.Search(len(c.dates), func(i int) bool { return c.dates[i].After(date) }) - 1
	if i < 0 {
		return 0, &domain.CoverageError{
			Requested: domain.DateRange{Start: date, End: date},
			Windows:   []domain.CoverageWindow{{Source: "FX data", Available: c.span()}},
		}
	}
	return i, nil
}

func (c *Converter) coverageError(pair string, i int) error {
	requested := domain.DateRange{}
	if i >= 0 && i < len(c.dates) {
		requested = domain.DateRange{Start: c.dates[i], End: c.dates[i]}
	}

	available := domain.DateRange{}
	col := c.fx[pair]
	for j := 0; j < len(col) && j < len(c.dates); j++ {
		if !math.IsNaN(col[j]) {
			available = domain.DateRange{Start: c.dates[j], End: c.dates[len(c.dates)-1]}
			break
		}
	}

	return &domain.CoverageError{
		Requested: requested,
		Windows:   []domain.CoverageWindow{{Source: pair + " FX data", Available: available}},
	}
}

func (c *Converter) span() domain.DateRange {
	if len(c.dates) == 0 {
		return domain.DateRange{}
	}
	return domain.DateRange{Start: c.dates[0], End: c.dates[len(c.dates)-1]}
}
