// Package cmd implements the analytics CLI commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/portfolio-analytics/internal/config"
	"github.com/aristath/portfolio-analytics/internal/di"
	"github.com/aristath/portfolio-analytics/pkg/logger"
)

// app holds what the subcommands share for one invocation.
type app struct {
	envFile string
	verbose bool

	cfg       *config.Config
	log       zerolog.Logger
	container *di.Container
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "analytics",
		Short: "Portfolio PnL analytics",
		Long: `Portfolio PnL analytics

Reconciles daily position files against stored prices and FX rates and
reports PnL, drawdown, Sharpe ratio and the best and worst tickers.

Commands:
    run            analyze a portfolio
    import-prices  load a price CSV into the market data store
    import-fx      load an FX CSV into the market data store
    clear-cache    remove every cached artifact
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context(), cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "config", "", "env file to load (default is .env)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newImportPricesCmd(a))
	root.AddCommand(newImportFXCmd(a))
	root.AddCommand(newClearCacheCmd(a))

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) init(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.log = logger.New(logger.Config{
		Level:  level,
		Pretty: true,
		File:   cfg.LogFile,
		Output: cmd.ErrOrStderr(),
	})

	container, err := di.Wire(ctx, cfg, a.log)
	if err != nil {
		return err
	}
	a.container = container
	return nil
}

func (a *app) close() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	return err
}
