// Package analytics runs the reconciliation, PnL and statistics pipeline for
// portfolio files, caching the intermediate artifacts.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aristath/portfolio-analytics/internal/cache"
	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/pnl"
	"github.com/aristath/portfolio-analytics/internal/modules/positions"
	"github.com/aristath/portfolio-analytics/internal/modules/reconciliation"
	"github.com/aristath/portfolio-analytics/internal/modules/stats"
	"github.com/aristath/portfolio-analytics/internal/utils"
	"github.com/rs/zerolog"
)

// ErrPortfolioNotFound is returned for an unknown portfolio name.
var ErrPortfolioNotFound = errors.New("portfolio not found")

// consistencyTolerance is the relative gap allowed between the sum of
// per-ticker PnL and the period PnL before a warning is logged.
const consistencyTolerance = 0.01

// Service runs the analytics pipeline.
type Service struct {
	loader       *reconciliation.Loader
	market       cache.Signer
	cache        *cache.Service
	portfolioDir string
	strategy     KeyStrategy
	log          zerolog.Logger
}

// NewService creates a new analytics service. market signs the price and FX
// store for the signature key strategy.
func NewService(
	loader *reconciliation.Loader,
	market cache.Signer,
	cacheService *cache.Service,
	portfolioDir string,
	strategy KeyStrategy,
	log zerolog.Logger,
) *Service {
	if strategy == "" {
		strategy = KeySignature
	}
	return &Service{
		loader:       loader,
		market:       market,
		cache:        cacheService,
		portfolioDir: portfolioDir,
		strategy:     strategy,
		log:          log.With().Str("service", "analytics").Logger(),
	}
}

// Portfolios lists the portfolio names (file names without extension) in the
// portfolio directory.
func (s *Service) Portfolios() ([]string, error) {
	entries, err := os.ReadDir(s.portfolioDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names, nil
}

// PortfolioPath resolves a portfolio name to its file.
func (s *Service) PortfolioPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrPortfolioNotFound, name)
	}

	path := filepath.Join(s.portfolioDir, name+".csv")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrPortfolioNotFound, name)
		}
		return "", fmt.Errorf("failed to stat portfolio %q: %w", name, err)
	}
	return path, nil
}

// Prepare returns the reconciled dataset of a portfolio file, from cache when possible.
func (s *Service) Prepare(ctx context.Context, path string) (*reconciliation.Dataset, error) {
	defer utils.OperationTimer("prepare_dataset", s.log)()

	if s.strategy == KeyContent {
		return s.prepareByContent(ctx, path)
	}

	key, err := cache.SignatureKey(ctx, cache.FileSource(path), s.market)
	if err != nil {
		return nil, fmt.Errorf("failed to derive dataset key: %w", err)
	}

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*reconciliation.Dataset, error) {
		table, err := positions.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return s.loader.Build(ctx, table)
	})
}

func (s *Service) prepareByContent(ctx context.Context, path string) (*reconciliation.Dataset, error) {
	table, err := positions.LoadFile(path)
	if err != nil {
		return nil, err
	}
	in, err := s.loader.Load(ctx, table)
	if err != nil {
		return nil, err
	}

	key, err := cache.ContentKey("dataset", in.Positions.Records, in.Prices, in.FX)
	if err != nil {
		return nil, fmt.Errorf("failed to derive dataset key: %w", err)
	}

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*reconciliation.Dataset, error) {
		return reconciliation.Reconcile(in.Positions, in.Prices, in.FX)
	})
}

// PnL returns the expanded PnL series of a dataset, from cache when possible.
func (s *Service) PnL(ctx context.Context, ds *reconciliation.Dataset, filter pnl.Filter, target domain.Currency) (*pnl.Series, error) {
	filter = filter.Normalized()

	key, err := cache.ContentKey("pnl", ds, filter, target)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pnl key: %w", err)
	}

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*pnl.Series, error) {
		return pnl.Calculate(ds, filter, target)
	})
}

// Analyze runs the full pipeline for one portfolio.
func (s *Service) Analyze(ctx context.Context, req Request) (*Report, error) {
	if req.Currency == "" {
		req.Currency = domain.PivotCurrency
	}
	if req.TopN <= 0 {
		req.TopN = DefaultTopN
	}

	ds, err := s.Prepare(ctx, req.Portfolio)
	if err != nil {
		return nil, err
	}

	series, err := s.PnL(ctx, ds, req.Filter, req.Currency)
	if err != nil {
		return nil, err
	}

	daily := pnl.Daily(series)
	portfolioStats, err := stats.Compute(daily)
	if err != nil {
		return nil, err
	}
	winners, losers := stats.WinnersAndLosers(series, req.TopN)

	s.checkConsistency(series, portfolioStats)

	s.log.Info().
		Str("portfolio", filepath.Base(req.Portfolio)).
		Str("currency", string(req.Currency)).
		Str("range", series.Range().String()).
		Float64("period_pnl", portfolioStats.PeriodPnL).
		Float64("max_drawdown", portfolioStats.MaxDrawdown).
		Msg("Analysis complete")

	return &Report{
		Portfolio: req.Portfolio,
		Currency:  req.Currency,
		Range:     series.Range(),
		Expanded:  series,
		Daily:     daily,
		Stats:     portfolioStats,
		Winners:   winners,
		Losers:    losers,
	}, nil
}

// checkConsistency warns when the per-ticker PnL does not add up to the
// period PnL. Tickers that stop being tracked before the last date make the
// two legitimately differ.
func (s *Service) checkConsistency(series *pnl.Series, st *stats.PortfolioStats) bool {
	var sum float64
	for _, t := range stats.LastByTicker(series) {
		sum += t.PnL
	}

	if math.Abs(sum-st.PeriodPnL) <= 1e-8+consistencyTolerance*math.Abs(st.PeriodPnL) {
		return true
	}

	s.log.Warn().
		Float64("ticker_pnl_sum", sum).
		Float64("period_pnl", st.PeriodPnL).
		Msg("PnL per ticker differs from period PnL by more than 1%")
	return false
}
