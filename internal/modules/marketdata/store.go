package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/portfolio-analytics/internal/database"
	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/utils"
	"github.com/rs/zerolog"
)

// Store provides access to the append-only price and FX tables.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewStore creates a new market data store
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "market_store").Logger(),
		now: time.Now,
	}
}

// AppendPrices writes prices in one transaction. A duplicated (date, ticker)
// key keeps the last written row, both within the batch and across batches.
func (s *Store) AppendPrices(ctx context.Context, prices []Price) (int, error) {
	done := utils.MeasureDBQuery("append_prices", s.log)
	createdAt := s.now().UnixNano()

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT OR REPLACE INTO prices (date, ticker, mid, currency, created_at) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare price insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			if p.Ticker == "" || p.Currency == "" {
				return fmt.Errorf("price on %s: ticker and currency are required", domain.FormatDate(p.Date))
			}
			ts := createdAt
			if !p.CreatedAt.IsZero() {
				ts = p.CreatedAt.UnixNano()
			}
			if _, err := stmt.ExecContext(ctx, domain.FormatDate(p.Date), p.Ticker, p.Mid, string(p.Currency), ts); err != nil {
				return fmt.Errorf("failed to insert price %s on %s: %w", p.Ticker, domain.FormatDate(p.Date), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	done(int64(len(prices)))
	return len(prices), nil
}

// AppendFX writes FX rates with the same keep-last semantics as AppendPrices.
func (s *Store) AppendFX(ctx context.Context, rates []FXRate) (int, error) {
	done := utils.MeasureDBQuery("append_fx", s.log)
	createdAt := s.now().UnixNano()

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT OR REPLACE INTO fx_rates (date, ticker, mid, created_at) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare fx insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rates {
			if r.Ticker == "" {
				return fmt.Errorf("fx rate on %s: ticker is required", domain.FormatDate(r.Date))
			}
			ts := createdAt
			if !r.CreatedAt.IsZero() {
				ts = r.CreatedAt.UnixNano()
			}
			if _, err := stmt.ExecContext(ctx, domain.FormatDate(r.Date), r.Ticker, r.Mid, ts); err != nil {
				return fmt.Errorf("failed to insert fx rate %s on %s: %w", r.Ticker, domain.FormatDate(r.Date), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	done(int64(len(rates)))
	return len(rates), nil
}

// LoadPrices returns prices inside the range, optionally restricted to tickers,
// ordered by (date, ticker).
func (s *Store) LoadPrices(ctx context.Context, r domain.DateRange, tickers []string) ([]Price, error) {
	done := utils.MeasureDBQuery("load_prices", s.log)

	query, args := rangeQuery(
		"SELECT date, ticker, mid, currency, created_at FROM prices", r, tickers)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []Price
	for rows.Next() {
		var (
			p         Price
			date      string
			currency  string
			createdAt int64
		)
		if err := rows.Scan(&date, &p.Ticker, &p.Mid, &currency, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		if p.Date, err = domain.ParseDate(date); err != nil {
			return nil, err
		}
		p.Currency = domain.Currency(currency)
		p.CreatedAt = time.Unix(0, createdAt).UTC()
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	done(int64(len(prices)))
	return prices, nil
}

// LoadFX returns FX rates inside the range, optionally restricted to pairs,
// ordered by (date, ticker).
func (s *Store) LoadFX(ctx context.Context, r domain.DateRange, pairs []string) ([]FXRate, error) {
	done := utils.MeasureDBQuery("load_fx", s.log)

	query, args := rangeQuery("SELECT date, ticker, mid, created_at FROM fx_rates", r, pairs)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fx rates: %w", err)
	}
	defer rows.Close()

	var rates []FXRate
	for rows.Next() {
		var (
			fx        FXRate
			date      string
			createdAt int64
		)
		if err := rows.Scan(&date, &fx.Ticker, &fx.Mid, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan fx rate: %w", err)
		}
		if fx.Date, err = domain.ParseDate(date); err != nil {
			return nil, err
		}
		fx.CreatedAt = time.Unix(0, createdAt).UTC()
		rates = append(rates, fx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fx rates: %w", err)
	}

	done(int64(len(rates)))
	return rates, nil
}

// PriceCoverage returns the first and last date present in the price table.
// An empty table yields a zero range.
func (s *Store) PriceCoverage(ctx context.Context) (domain.DateRange, error) {
	return s.coverage(ctx, TablePrices)
}

// FXCoverage returns the first and last date present in the FX table.
func (s *Store) FXCoverage(ctx context.Context) (domain.DateRange, error) {
	return s.coverage(ctx, TableFX)
}

func (s *Store) coverage(ctx context.Context, table string) (domain.DateRange, error) {
	var minDate, maxDate sql.NullString
	query := fmt.Sprintf("SELECT MIN(date), MAX(date) FROM %s", table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&minDate, &maxDate); err != nil {
		return domain.DateRange{}, fmt.Errorf("failed to get coverage of %s: %w", table, err)
	}
	if !minDate.Valid || !maxDate.Valid {
		return domain.DateRange{}, nil
	}

	start, err := domain.ParseDate(minDate.String)
	if err != nil {
		return domain.DateRange{}, err
	}
	end, err := domain.ParseDate(maxDate.String)
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{Start: start, End: end}, nil
}

// Tickers returns the distinct price tickers observed inside the range.
func (s *Store) Tickers(ctx context.Context, r domain.DateRange) ([]string, error) {
	query, args := rangeQuery("SELECT DISTINCT ticker FROM prices", r, nil)
	query = strings.Replace(query, "ORDER BY date, ticker", "ORDER BY ticker", 1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// Signature fingerprints the current content of both tables cheaply. Any
// append changes the max rowid, so the signature changes with every write.
func (s *Store) Signature(ctx context.Context) (string, error) {
	parts := make([]string, 0, 2)
	for _, table := range []string{TablePrices, TableFX} {
		var count, maxRow, maxCreated sql.NullInt64
		query := fmt.Sprintf("SELECT COUNT(*), MAX(rowid), MAX(created_at) FROM %s", table)
		if err := s.db.QueryRowContext(ctx, query).Scan(&count, &maxRow, &maxCreated); err != nil {
			return "", fmt.Errorf("failed to sign %s: %w", table, err)
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d:%d", table, count.Int64, maxRow.Int64, maxCreated.Int64))
	}
	return strings.Join(parts, "|"), nil
}

// rangeQuery appends the date range and an optional ticker IN-list to a SELECT.
func rangeQuery(base string, r domain.DateRange, tickers []string) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)

	if !r.Start.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, domain.FormatDate(r.Start))
	}
	if !r.End.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, domain.FormatDate(r.End))
	}
	if len(tickers) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tickers)), ",")
		clauses = append(clauses, "ticker IN ("+placeholders+")")
		for _, t := range tickers {
			args = append(args, t)
		}
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	return query + " ORDER BY date, ticker", args
}
