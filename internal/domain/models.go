// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// PivotCurrency is the currency all reconciled values are expressed in before
// any display conversion.
const PivotCurrency = CurrencyUSD

// fxRoute holds the FX series names needed to move a currency through USD.
// USD has no route: its multiplier is always 1.0.
type fxRoute struct {
	toUSD   string
	fromUSD string
}

// currencyRoutes is the closed set of supported currencies.
// Supporting a new currency means adding one entry here.
var currencyRoutes = map[Currency]fxRoute{
	CurrencyUSD: {},
	CurrencyEUR: {toUSD: "EURUSD=X", fromUSD: "USDEUR=X"},
	CurrencyGBP: {toUSD: "GBPUSD=X", fromUSD: "USDGBP=X"},
}

// SupportedCurrencies returns the supported currencies in a stable order.
func SupportedCurrencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP}
}

// ParseCurrency validates a currency code against the supported set.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.Supported() {
		return "", &UnsupportedCurrencyError{Currency: code}
	}
	return c, nil
}

// Supported reports whether the currency is part of the closed set.
func (c Currency) Supported() bool {
	_, ok := currencyRoutes[c]
	return ok
}

// ToUSDPair returns the FX series converting c into USD.
// It returns an empty name for USD.
func (c Currency) ToUSDPair() (string, error) {
	route, ok := currencyRoutes[c]
	if !ok {
		return "", &UnsupportedCurrencyError{Currency: string(c)}
	}
	return route.toUSD, nil
}

// FromUSDPair returns the FX series converting USD into c.
// It returns an empty name for USD.
func (c Currency) FromUSDPair() (string, error) {
	route, ok := currencyRoutes[c]
	if !ok {
		return "", &UnsupportedCurrencyError{Currency: string(c)}
	}
	return route.fromUSD, nil
}

// ConversionPairs lists every FX series the supported currencies may need,
// sorted for deterministic iteration.
func ConversionPairs() []string {
	var pairs []string
	for _, c := range SupportedCurrencies() {
		route := currencyRoutes[c]
		if route.toUSD != "" {
			pairs = append(pairs, route.toUSD)
		}
		if route.fromUSD != "" {
			pairs = append(pairs, route.fromUSD)
		}
	}
	return pairs
}

// DateLayout is the on-disk and wire format of calendar dates.
const DateLayout = "2006-01-02"

// NormalizeDate strips the time of day and location, keeping the calendar date.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UTCDate returns the UTC calendar date of the instant t. Decoded dates that
// came back in another zone recover their original UTC midnight.
func UTCDate(t time.Time) time.Time {
	return NormalizeDate(t.UTC())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD. Dates are UTC midnights, so the
// value is rendered in UTC whatever location it was decoded with.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DateRange is an inclusive calendar range.
type DateRange struct {
	Start time.Time `json:"start" msgpack:"start"`
	End   time.Time `json:"end" msgpack:"end"`
}

// IsZero reports whether the range was never set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether day lies inside the range.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// Covers reports whether other lies fully inside the range.
func (r DateRange) Covers(other DateRange) bool {
	return !r.IsZero() && r.Contains(other.Start) && r.Contains(other.End)
}

func (r DateRange) String() string {
	if r.IsZero() {
		return "[none]"
	}
	return fmt.Sprintf("[%s - %s]", FormatDate(r.Start), FormatDate(r.End))
}
