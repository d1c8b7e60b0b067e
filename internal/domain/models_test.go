package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	in := time.Date(2024, 3, 15, 23, 30, 0, 0, loc)

	got := NormalizeDate(in)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("29/02/2024")
	assert.ErrorContains(t, err, `invalid date "29/02/2024"`)

	// A UTC midnight decoded into a western location keeps its calendar day
	west := d.In(time.FixedZone("UTC-5", -5*60*60))
	assert.Equal(t, "2024-02-29", FormatDate(west))
}

func TestDateRange(t *testing.T) {
	r := DateRange{Start: day("2024-01-01"), End: day("2024-01-31")}

	assert.False(t, r.IsZero())
	assert.True(t, DateRange{}.IsZero())

	assert.True(t, r.Contains(day("2024-01-01")))
	assert.True(t, r.Contains(day("2024-01-31")))
	assert.False(t, r.Contains(day("2024-02-01")))

	assert.Equal(t, "[2024-01-01 - 2024-01-31]", r.String())
	assert.Equal(t, "[none]", DateRange{}.String())
}

func TestSupportedCurrencies(t *testing.T) {
	assert.Equal(t, []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP}, SupportedCurrencies())
	for _, c := range SupportedCurrencies() {
		assert.True(t, c.Supported())
	}
	assert.False(t, Currency("JPY").Supported())
	assert.Equal(t, CurrencyUSD, PivotCurrency)
}

func TestUTCDate(t *testing.T) {
	midnight := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	eastern := midnight.In(time.FixedZone("EST", -5*3600))
	assert.Equal(t, 31, eastern.Day())

	assert.Equal(t, midnight, UTCDate(eastern))
	assert.Equal(t, time.Time{}, UTCDate(time.Time{}))
}
