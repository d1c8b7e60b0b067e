// Package marketdata stores and serves the price and FX time series the
// reconciliation engine joins against positions.
package marketdata

import (
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
)

// Table names in the market database
const (
	TablePrices = "prices"
	TableFX     = "fx_rates"
)

// Price is one (date, ticker) observation from the price store.
type Price struct {
	Date      time.Time       `json:"date" msgpack:"date"`
	Ticker    string          `json:"ticker" msgpack:"ticker"`
	Mid       float64         `json:"mid" msgpack:"mid"`
	Currency  domain.Currency `json:"currency" msgpack:"currency"`
	CreatedAt time.Time       `json:"created_at" msgpack:"-"`
}

// FXRate is one (date, pair) observation, e.g. ("2024-01-02", "EURUSD=X").
type FXRate struct {
	Date      time.Time `json:"date" msgpack:"date"`
	Ticker    string    `json:"ticker" msgpack:"ticker"`
	Mid       float64   `json:"mid" msgpack:"mid"`
	CreatedAt time.Time `json:"created_at" msgpack:"-"`
}
