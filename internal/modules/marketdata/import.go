package marketdata

import (
	"context"
	"fmt"
	"io"
)

// ImportPricesCSV parses a long-form price file and appends it to the store.
func (s *Store) ImportPricesCSV(ctx context.Context, r io.Reader) (int, error) {
	prices, err := ReadPricesCSV(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse prices: %w", err)
	}
	n, err := s.AppendPrices(ctx, prices)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("rows", n).Msg("Imported prices")
	return n, nil
}

// ImportFXCSV parses a long-form FX file and appends it to the store.
func (s *Store) ImportFXCSV(ctx context.Context, r io.Reader) (int, error) {
	rates, err := ReadFXCSV(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse fx rates: %w", err)
	}
	n, err := s.AppendFX(ctx, rates)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("rows", n).Msg("Imported fx rates")
	return n, nil
}
