package reconciliation

import (
	"context"
	"fmt"
	"sort"

	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/marketdata"
	"github.com/aristath/portfolio-analytics/internal/modules/positions"
	"github.com/aristath/portfolio-analytics/internal/utils"
	"github.com/rs/zerolog"
)

// suggestionCutoff is the minimum similarity for a "did you mean" hint.
const suggestionCutoff = 0.6

// MarketData is the read side of the market data store.
type MarketData interface {
	PriceCoverage(ctx context.Context) (domain.DateRange, error)
	FXCoverage(ctx context.Context) (domain.DateRange, error)
	Tickers(ctx context.Context, r domain.DateRange) ([]string, error)
	LoadPrices(ctx context.Context, r domain.DateRange, tickers []string) ([]marketdata.Price, error)
	LoadFX(ctx context.Context, r domain.DateRange, pairs []string) ([]marketdata.FXRate, error)
}

// Inputs are the validated tables a reconciliation runs on.
type Inputs struct {
	Positions *positions.Table
	Prices    []marketdata.Price
	FX        []marketdata.FXRate
}

// Loader validates a positions table against the market data store and loads
// the matching price and FX slices.
type Loader struct {
	market MarketData
	log    zerolog.Logger
}

// NewLoader creates a new loader
func NewLoader(market MarketData, log zerolog.Logger) *Loader {
	return &Loader{
		market: market,
		log:    log.With().Str("component", "reconciliation_loader").Logger(),
	}
}

// Load checks coverage and ticker availability, then loads prices for the
// portfolio's tickers and FX rates over the portfolio's date span.
func (l *Loader) Load(ctx context.Context, table *positions.Table) (*Inputs, error) {
	span := table.Range()
	if span.IsZero() {
		return nil, fmt.Errorf("%w: positions table is empty", domain.ErrCalculation)
	}

	if err := l.checkCoverage(ctx, span); err != nil {
		return nil, err
	}

	tickers := table.Tickers()
	available, err := l.market.Tickers(ctx, span)
	if err != nil {
		return nil, fmt.Errorf("failed to list available tickers: %w", err)
	}
	if err := checkTickers(tickers, available); err != nil {
		return nil, err
	}

	prices, err := l.market.LoadPrices(ctx, span, tickers)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	fx, err := l.market.LoadFX(ctx, span, domain.ConversionPairs())
	if err != nil {
		return nil, fmt.Errorf("failed to load fx rates: %w", err)
	}

	l.log.Debug().
		Str("range", span.String()).
		Int("tickers", len(tickers)).
		Int("prices", len(prices)).
		Int("fx_rates", len(fx)).
		Msg("Loaded market data")

	return &Inputs{Positions: table, Prices: prices, FX: fx}, nil
}

func (l *Loader) checkCoverage(ctx context.Context, span domain.DateRange) error {
	priceCov, err := l.market.PriceCoverage(ctx)
	if err != nil {
		return fmt.Errorf("failed to get price coverage: %w", err)
	}
	fxCov, err := l.market.FXCoverage(ctx)
	if err != nil {
		return fmt.Errorf("failed to get fx coverage: %w", err)
	}

	var windows []domain.CoverageWindow
	if !priceCov.Covers(span) {
		windows = append(windows, domain.CoverageWindow{Source: "Price data", Available: priceCov})
	}
	if !fxCov.Covers(span) {
		windows = append(windows, domain.CoverageWindow{Source: "FX data", Available: fxCov})
	}
	if len(windows) > 0 {
		return &domain.CoverageError{Requested: span, Windows: windows}
	}
	return nil
}

// checkTickers fails when a held ticker has no price history, suggesting the
// closest known ticker for each.
func checkTickers(held, available []string) error {
	known := make(map[string]struct{}, len(available))
	for _, t := range available {
		known[t] = struct{}{}
	}

	var missing []string
	suggestions := make(map[string]string)
	for _, t := range held {
		if _, ok := known[t]; ok {
			continue
		}
		missing = append(missing, t)
		if match, ok := utils.ClosestMatch(t, available, suggestionCutoff); ok {
			suggestions[t] = match
		}
	}
	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	return &domain.MissingTickersError{Missing: missing, Suggestions: suggestions}
}
