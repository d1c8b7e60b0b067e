package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
)

// ReadPricesCSV parses a long-form price file with the columns
// Date, Ticker, Mid and Currency (header names are case-insensitive,
// extra columns are ignored).
func ReadPricesCSV(r io.Reader) ([]Price, error) {
	var prices []Price
	err := readLongCSV(r, []string{"date", "ticker", "mid", "currency"}, func(rec record) error {
		if rec.get("currency") == "" {
			return fmt.Errorf("%s on %s: empty currency", rec.ticker, domain.FormatDate(rec.date))
		}
		prices = append(prices, Price{
			Date:     rec.date,
			Ticker:   rec.ticker,
			Mid:      rec.mid,
			Currency: domain.Currency(strings.ToUpper(rec.get("currency"))),
		})
		return nil
	})
	return prices, err
}

// ReadFXCSV parses a long-form FX file with the columns Date, Ticker and Mid.
func ReadFXCSV(r io.Reader) ([]FXRate, error) {
	var rates []FXRate
	err := readLongCSV(r, []string{"date", "ticker", "mid"}, func(rec record) error {
		rates = append(rates, FXRate{
			Date:   rec.date,
			Ticker: rec.ticker,
			Mid:    rec.mid,
		})
		return nil
	})
	return rates, err
}

type record struct {
	date   time.Time
	ticker string
	mid    float64
	fields []string
	index  map[string]int
}

func (r record) get(column string) string {
	return strings.TrimSpace(r.fields[r.index[column]])
}

func readLongCSV(r io.Reader, required []string, emit func(record) error) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty market data file")
		}
		return fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("missing required column %q", col)
		}
	}

	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		rec := record{fields: fields, index: index}

		if rec.date, err = domain.ParseDate(rec.get("date")); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if rec.ticker = rec.get("ticker"); rec.ticker == "" {
			return fmt.Errorf("line %d: empty ticker", line)
		}
		if rec.mid, err = strconv.ParseFloat(rec.get("mid"), 64); err != nil {
			return fmt.Errorf("line %d: invalid mid %q: %w", line, rec.get("mid"), err)
		}

		if err := emit(rec); err != nil {
			return err
		}
	}
}
