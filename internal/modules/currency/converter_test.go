package currency

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestConverter() *Converter {
	nan := math.NaN()
	return NewConverter(
		[]time.Time{day("2024-01-01"), day("2024-01-02"), day("2024-01-04")},
		[]Column{
			{Pair: "EURUSD=X", Rates: []float64{1.1, 1.2, 1.2}},
			{Pair: "GBPUSD=X", Rates: []float64{nan, 1.25, 1.3}},
			{Pair: "USDEUR=X", Rates: []float64{0.9, 0.8, 0.8}},
			{Pair: "USDGBP=X", Rates: []float64{nan, 0.8, 0.75}},
		},
	)
}

func TestToUSDAndFromUSD(t *testing.T) {
	c := newTestConverter()

	rate, err := c.ToUSD(0, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	rate, err = c.ToUSD(0, domain.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, 1.1, rate)

	rate, err = c.FromUSD(2, domain.CurrencyGBP)
	require.NoError(t, err)
	assert.Equal(t, 0.75, rate)
}

func TestConvert(t *testing.T) {
	c := newTestConverter()

	tests := []struct {
		name     string
		date     string
		from     domain.Currency
		to       domain.Currency
		value    float64
		expected float64
	}{
		{"same currency", "2024-01-01", domain.CurrencyGBP, domain.CurrencyGBP, 10, 10},
		{"eur to usd", "2024-01-01", domain.CurrencyEUR, domain.CurrencyUSD, 100, 110},
		{"usd to gbp", "2024-01-02", domain.CurrencyUSD, domain.CurrencyGBP, 100, 80},
		{"eur to gbp via usd", "2024-01-04", domain.CurrencyEUR, domain.CurrencyGBP, 100, 90},
		{"gap uses previous date", "2024-01-03", domain.CurrencyEUR, domain.CurrencyUSD, 100, 120},
		{"after last date", "2024-02-01", domain.CurrencyUSD, domain.CurrencyEUR, 100, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(day(tt.date), tt.from, tt.value, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestConvertErrors(t *testing.T) {
	c := newTestConverter()

	_, err := c.Convert(day("2024-01-01"), "CHF", 1, domain.CurrencyUSD)
	var unsupported *domain.UnsupportedCurrencyError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "CHF", unsupported.Currency)

	_, err = c.Convert(day("2024-01-01"), domain.CurrencyUSD, 1, "JPY")
	require.ErrorAs(t, err, &unsupported)

	_, err = c.Convert(day("2023-12-31"), domain.CurrencyUSD, 1, domain.CurrencyEUR)
	var coverage *domain.CoverageError
	require.ErrorAs(t, err, &coverage)

	_, err = c.Convert(day("2024-01-01"), domain.CurrencyUSD, 1, domain.CurrencyGBP)
	require.ErrorAs(t, err, &coverage)
	assert.Equal(t, "USDGBP=X FX data", coverage.Windows[0].Source)
	assert.Equal(t, day("2024-01-02"), coverage.Windows[0].Available.Start)
	assert.ErrorIs(t, err, domain.ErrDataValidation)
}

func TestMissingPairColumn(t *testing.T) {
	c := NewConverter([]time.Time{day("2024-01-01")}, nil)

	_, err := c.FromUSD(0, domain.CurrencyEUR)
	var coverage *domain.CoverageError
	require.ErrorAs(t, err, &coverage)
	assert.True(t, coverage.Windows[0].Available.IsZero())
}
