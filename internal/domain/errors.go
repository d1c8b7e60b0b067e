package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCalculation is matched by every error the analytics core returns for bad
// or insufficient input.
var ErrCalculation = errors.New("metrics calculation error")

// ErrDataValidation is matched by errors about market data not supporting
// the requested portfolio.
var ErrDataValidation = errors.New("data validation error")

// CoverageWindow is the data actually available from one source.
type CoverageWindow struct {
	Source    string
	Available DateRange
}

// CoverageError reports a requested range not covered by price or FX history.
type CoverageError struct {
	Requested DateRange
	Windows   []CoverageWindow
}

func (e *CoverageError) Error() string {
	parts := make([]string, 0, len(e.Windows))
	for _, w := range e.Windows {
		parts = append(parts, fmt.Sprintf("%s coverage: %s", w.Source, w.Available))
	}
	return fmt.Sprintf("portfolio date range %s not fully covered by market data: %s",
		e.Requested, strings.Join(parts, ", "))
}

func (e *CoverageError) Is(target error) bool {
	return target == ErrCalculation || target == ErrDataValidation
}

// MissingTickersError reports held tickers without any price history.
type MissingTickersError struct {
	Missing []string
	// Suggestions maps a missing ticker to its closest known ticker.
	Suggestions map[string]string
}

func (e *MissingTickersError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "the following tickers are missing from price data: %s", strings.Join(e.Missing, ", "))
	var hints []string
	for _, t := range e.Missing {
		if s, ok := e.Suggestions[t]; ok {
			hints = append(hints, fmt.Sprintf("%s → %s", t, s))
		}
	}
	if len(hints) > 0 {
		fmt.Fprintf(&b, ". Did you mean? %s", strings.Join(hints, ", "))
	}
	return b.String()
}

func (e *MissingTickersError) Is(target error) bool {
	return target == ErrCalculation || target == ErrDataValidation
}

// InvalidRangeError reports a reversed range or a bound outside the dataset.
type InvalidRangeError struct {
	Start     time.Time
	End       time.Time
	Available DateRange
	Reversed  bool
}

func (e *InvalidRangeError) Error() string {
	if e.Reversed {
		return fmt.Sprintf("start date %s is after end date %s", FormatDate(e.Start), FormatDate(e.End))
	}
	return fmt.Sprintf("date range %s outside portfolio range %s",
		DateRange{Start: e.Start, End: e.End}, e.Available)
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrCalculation
}

// EmptyFilterError reports a filter that matched nothing.
type EmptyFilterError struct {
	Tickers []string
}

func (e *EmptyFilterError) Error() string {
	if len(e.Tickers) == 0 {
		return "no data in the selected range"
	}
	return fmt.Sprintf("no data found for provided tickers: %s", strings.Join(e.Tickers, ", "))
}

func (e *EmptyFilterError) Is(target error) bool {
	return target == ErrCalculation
}

// UnsupportedCurrencyError reports a currency outside the supported set.
type UnsupportedCurrencyError struct {
	Currency string
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("unsupported currency: %q", e.Currency)
}

func (e *UnsupportedCurrencyError) Is(target error) bool {
	return target == ErrCalculation
}
