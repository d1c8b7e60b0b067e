package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportPricesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-prices FILE",
		Short: "Load a price CSV into the market data store",
		Long: `Load a price CSV (Date,Ticker,Mid,Currency) into the market data store.
Rows for an existing (Date, Ticker) replace the stored price.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := a.container.MarketStore.ImportPricesCSV(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d prices from %s\n", n, args[0])
			return nil
		},
	}
}

func newImportFXCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-fx FILE",
		Short: "Load an FX CSV into the market data store",
		Long: `Load an FX CSV (Date,Ticker,Mid) into the market data store.
Ticker is the FX series name, e.g. EURUSD=X.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := a.container.MarketStore.ImportFXCSV(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d fx rates from %s\n", n, args[0])
			return nil
		},
	}
}
