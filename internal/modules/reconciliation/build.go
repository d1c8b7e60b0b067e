package reconciliation

import (
	"context"

	"github.com/aristath/portfolio-analytics/internal/modules/positions"
	"github.com/aristath/portfolio-analytics/internal/utils"
)

// Build loads market data for the table and reconciles it.
func (l *Loader) Build(ctx context.Context, table *positions.Table) (*Dataset, error) {
	defer utils.OperationTimer("reconcile", l.log)()

	in, err := l.Load(ctx, table)
	if err != nil {
		return nil, err
	}

	ds, err := Reconcile(in.Positions, in.Prices, in.FX)
	if err != nil {
		return nil, err
	}

	l.log.Info().
		Int("rows", len(ds.Rows)).
		Int("dates", len(ds.Dates)).
		Int("dropped", len(table.Records)-len(ds.Rows)).
		Msg("Reconciled positions with market data")
	return ds, nil
}
