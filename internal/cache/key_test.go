package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,AAPL\n2024-01-02,1\n"), 0644))

	store := SignerFunc(func(context.Context) (string, error) { return "prices:1:1:1", nil })

	k1, err := SignatureKey(ctx, FileSource(path), store)
	require.NoError(t, err)
	assert.True(t, k1.Valid())

	k2, err := SignatureKey(ctx, FileSource(path), store)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	// Order of sources matters
	k3, err := SignatureKey(ctx, store, FileSource(path))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	// A size change invalidates the key
	require.NoError(t, os.WriteFile(path, []byte("Date,AAPL\n2024-01-02,10\n"), 0644))
	k4, err := SignatureKey(ctx, FileSource(path), store)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)
}

func TestFileSourceSameSizeAndMtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.csv")
	require.NoError(t, os.WriteFile(path, []byte("aaaa"), 0644))
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	before, err := FileSource(path).Signature(context.Background())
	require.NoError(t, err)

	// Same size and mtime is indistinguishable from no change
	require.NoError(t, os.WriteFile(path, []byte("bbbb"), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	after, err := FileSource(path).Signature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSignatureKeyErrors(t *testing.T) {
	_, err := SignatureKey(context.Background(), FileSource(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = SignatureKey(context.Background(), SignerFunc(func(context.Context) (string, error) { return "", boom }))
	assert.ErrorIs(t, err, boom)
}

type keyRow struct {
	Ticker string  `msgpack:"ticker"`
	Value  float64 `msgpack:"value"`
}

func TestContentKey(t *testing.T) {
	rows := []keyRow{{"AAPL", 1}, {"MSFT", 2}}

	k1, err := ContentKey(rows, "EUR")
	require.NoError(t, err)
	assert.True(t, k1.Valid())

	k2, err := ContentKey([]keyRow{{"AAPL", 1}, {"MSFT", 2}}, "EUR")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := ContentKey(rows, "USD")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	k4, err := ContentKey([]keyRow{{"AAPL", 1}, {"MSFT", 2.0000001}}, "EUR")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)
}

func TestContentKeySortsStringMaps(t *testing.T) {
	a := map[string]string{}
	b := map[string]string{}
	for _, k := range []string{"EURUSD=X", "USDEUR=X", "GBPUSD=X", "USDGBP=X"} {
		a[k] = "1"
	}
	for _, k := range []string{"USDGBP=X", "GBPUSD=X", "USDEUR=X", "EURUSD=X"} {
		b[k] = "1"
	}

	for i := 0; i < 10; i++ {
		ka, err := ContentKey(a)
		require.NoError(t, err)
		kb, err := ContentKey(b)
		require.NoError(t, err)
		assert.Equal(t, ka, kb)
	}
}

func TestKeyValid(t *testing.T) {
	assert.False(t, Key("").Valid())
	assert.False(t, Key("../../etc/passwd").Valid())
	assert.False(t, Key("zz"+string(make([]byte, 62))).Valid())
}
