// Package positions reads wide holdings tables (one row per date, one column
// per ticker) and exposes them in long (date, ticker) form.
package positions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
)

// DateColumn is the mandatory column holding the snapshot date.
const DateColumn = "Date"

// Record is the quantity of one ticker held on one date.
type Record struct {
	Date     time.Time `json:"date" msgpack:"date"`
	Ticker   string    `json:"ticker" msgpack:"ticker"`
	Quantity float64   `json:"quantity" msgpack:"quantity"`
}

// Table is a long-form positions table sorted by (date, ticker).
type Table struct {
	Records []Record `json:"records" msgpack:"records"`
}

// NewTable builds a table from unsorted records. The input slice is not modified.
func NewTable(records []Record) *Table {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})
	return &Table{Records: sorted}
}

// Dates returns the distinct snapshot dates in ascending order.
func (t *Table) Dates() []time.Time {
	var dates []time.Time
	for _, r := range t.Records {
		if n := len(dates); n == 0 || !dates[n-1].Equal(r.Date) {
			dates = append(dates, r.Date)
		}
	}
	return dates
}

// Tickers returns the distinct tickers in alphabetical order.
func (t *Table) Tickers() []string {
	seen := make(map[string]struct{})
	var tickers []string
	for _, r := range t.Records {
		if _, ok := seen[r.Ticker]; !ok {
			seen[r.Ticker] = struct{}{}
			tickers = append(tickers, r.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}

// Range returns the first and last snapshot date.
func (t *Table) Range() domain.DateRange {
	if len(t.Records) == 0 {
		return domain.DateRange{}
	}
	return domain.DateRange{
		Start: t.Records[0].Date,
		End:   t.Records[len(t.Records)-1].Date,
	}
}

// LoadFile reads a holdings file, dispatching on its extension.
func LoadFile(path string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open positions file: %w", err)
		}
		defer f.Close()

		table, err := ReadCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// ReadCSV parses a wide holdings CSV. Empty cells mean the ticker is not
// tracked on that date and produce no record.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty positions file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	dateIdx := -1
	tickers := make([]string, len(header))
	seen := make(map[string]bool)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if strings.EqualFold(name, DateColumn) {
			dateIdx = i
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("column %d has no ticker name", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate ticker column %q", name)
		}
		seen[name] = true
		tickers[i] = name
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("missing %q column", DateColumn)
	}

	var records []Record
	dates := make(map[time.Time]int)
	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := domain.ParseDate(fields[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if prev, ok := dates[date]; ok {
			return nil, fmt.Errorf("line %d: date %s already listed on line %d", line, domain.FormatDate(date), prev)
		}
		dates[date] = line

		for i, cell := range fields {
			if i == dateIdx {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			qty, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: non-numeric position %q for %s", line, cell, tickers[i])
			}
			records = append(records, Record{Date: date, Ticker: tickers[i], Quantity: qty})
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("positions file has no holdings")
	}

	return NewTable(records), nil
}
