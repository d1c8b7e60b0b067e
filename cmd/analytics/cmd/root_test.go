package cmd

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	dir := t.TempDir()
	t.Setenv("ANALYTICS_DATA_DIR", dir)
	t.Setenv("CACHE_BACKEND", "fs")

	write := func(name, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("prices.csv", "Date,Ticker,Mid,Currency\n"+
		"2024-01-01,AAPL,100,USD\n2024-01-02,AAPL,110,USD\n2024-01-03,AAPL,90,USD\n"+
		"2024-01-01,MSFT,50,USD\n2024-01-02,MSFT,55,USD\n2024-01-03,MSFT,60,USD\n")
	write("fx.csv", "Date,Ticker,Mid\n"+
		"2024-01-01,EURUSD=X,1.1\n2024-01-01,USDEUR=X,0.9\n"+
		"2024-01-03,EURUSD=X,1.1\n2024-01-03,USDEUR=X,0.9\n")
	write("portfolios/mixed.csv", "Date,AAPL,MSFT\n2024-01-01,10,10\n2024-01-02,10,10\n2024-01-03,10,10\n")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImportAndRun(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "import-prices", filepath.Join(dir, "prices.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 6 prices")

	out, err = execute(t, "import-fx", filepath.Join(dir, "fx.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 4 fx rates")

	out, err = execute(t, "run", "mixed")
	require.NoError(t, err)
	// AAPL 1000 → 900, MSFT 500 → 600
	assert.Contains(t, out, "Period: [2024-01-01 - 2024-01-03] (USD)")
	assert.Contains(t, out, "$0.00")
	assert.Contains(t, out, "Top winners")
	assert.Contains(t, out, "MSFT")
	assert.Contains(t, out, "$100.00")
	assert.Contains(t, out, "-$100.00")

	out, err = execute(t, "run", filepath.Join(dir, "portfolios", "mixed.csv"), "--tickers", "MSFT", "--top", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "AAPL")

	// one dataset shared by both runs plus two pnl series
	out, err = execute(t, "clear-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 3 cached artifacts")
}

func TestRunErrors(t *testing.T) {
	dir := setupEnv(t)
	_, err := execute(t, "import-prices", filepath.Join(dir, "prices.csv"))
	require.NoError(t, err)
	_, err = execute(t, "import-fx", filepath.Join(dir, "fx.csv"))
	require.NoError(t, err)

	_, err = execute(t, "run", "missing")
	assert.ErrorContains(t, err, "portfolio not found")

	_, err = execute(t, "run", "mixed", "--currency", "JPY")
	assert.ErrorContains(t, err, "unsupported currency")

	_, err = execute(t, "run", "mixed", "--start", "2024-02-01")
	assert.ErrorContains(t, err, "outside portfolio range")

	_, err = execute(t, "run", "mixed", "--top", "0")
	assert.ErrorContains(t, err, "--top must be positive")

	_, err = execute(t, "run")
	assert.Error(t, err)
}

func TestImportMissingFile(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "import-prices", "/does/not/exist.csv")
	assert.Error(t, err)
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "1.50", formatRatio(1.5))
	assert.Equal(t, "n/a", formatRatio(math.NaN()))
	assert.Equal(t, "+inf", formatRatio(math.Inf(1)))
	assert.Equal(t, "-inf", formatRatio(math.Inf(-1)))
}
