package reconciliation

import (
	"testing"
	"time"

	"github.com/aristath/portfolio-analytics/internal/cache"
	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/marketdata"
	"github.com/aristath/portfolio-analytics/internal/modules/positions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func sampleDataset(t *testing.T) *Dataset {
	var records []positions.Record
	records = append(records, holdings("AAPL", threeDays, []float64{0, 100, 100})...)
	records = append(records, holdings("SAP.DE", threeDays, []float64{10, 10, 20})...)

	prices := usdPrices("AAPL", threeDays, []float64{150, 151, 152})
	for i, d := range threeDays {
		prices = append(prices, marketdata.Price{Date: day(d), Ticker: "SAP.DE", Mid: 100 + float64(i), Currency: domain.CurrencyEUR})
	}
	var fx []marketdata.FXRate
	for _, pair := range domain.ConversionPairs() {
		fx = append(fx, marketdata.FXRate{Date: day(threeDays[0]), Ticker: pair, Mid: 1.1})
	}

	ds, err := Reconcile(positions.NewTable(records), prices, fx)
	require.NoError(t, err)
	return ds
}

func TestDatasetEncodingIsStable(t *testing.T) {
	first, err := msgpack.Marshal(sampleDataset(t))
	require.NoError(t, err)
	firstKey, err := cache.ContentKey("pnl", sampleDataset(t), "EUR")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		ds := sampleDataset(t)
		b, err := msgpack.Marshal(ds)
		require.NoError(t, err)
		require.Equal(t, first, b, "encoding %d", i)

		key, err := cache.ContentKey("pnl", ds, "EUR")
		require.NoError(t, err)
		require.Equal(t, firstKey, key, "key %d", i)
	}
}

func TestDatasetFXColumnsSorted(t *testing.T) {
	ds := sampleDataset(t)
	pairs := make([]string, len(ds.FX))
	for i, col := range ds.FX {
		pairs[i] = col.Pair
	}
	assert.Equal(t, []string{"EURUSD=X", "GBPUSD=X", "USDEUR=X", "USDGBP=X"}, pairs)
	assert.Equal(t, []float64{1.1, 1.1, 1.1}, ds.FXRates("GBPUSD=X"))
	assert.Nil(t, ds.FXRates("USDJPY=X"))
}

func TestDatasetDecodeKeepsUTCDates(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("EST", -5*3600)
	t.Cleanup(func() { time.Local = local })

	ds := sampleDataset(t)
	b, err := msgpack.Marshal(ds)
	require.NoError(t, err)

	var got Dataset
	require.NoError(t, msgpack.Unmarshal(b, &got))
	assert.Equal(t, ds.Dates, got.Dates)
	assert.Equal(t, ds.Rows, got.Rows)
	assert.Equal(t, ds.Range(), got.Range())
	assert.Equal(t, "2024-01-01", domain.FormatDate(got.Rows[0].Date))
	assert.Equal(t, time.UTC, got.Dates[0].Location())
}
