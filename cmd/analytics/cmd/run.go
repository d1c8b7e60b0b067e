package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/analytics"
	"github.com/aristath/portfolio-analytics/internal/modules/stats"
	"github.com/aristath/portfolio-analytics/internal/utils"
)

type runOptions struct {
	start    string
	end      string
	tickers  string
	currency string
	top      int
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run PORTFOLIO",
		Short: "Analyze a portfolio",
		Long: `Analyze a portfolio and print its statistics and winners/losers.

PORTFOLIO is either a CSV file path or the name of a file in the portfolio
directory.

Examples:
  analytics run growth
  analytics run ./positions.csv --currency EUR --tickers AAPL,MSFT
  analytics run growth --start 2024-01-01 --end 2024-03-31 --top 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "last date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.tickers, "tickers", "", "comma-separated tickers to include")
	cmd.Flags().StringVar(&opts.currency, "currency", string(domain.PivotCurrency), "reporting currency (USD, EUR, GBP)")
	cmd.Flags().IntVar(&opts.top, "top", analytics.DefaultTopN, "number of winners and losers")

	return cmd
}

func (a *app) run(cmd *cobra.Command, portfolio string, opts *runOptions) error {
	req, err := opts.request()
	if err != nil {
		return err
	}

	req.Portfolio, err = a.resolvePortfolio(portfolio)
	if err != nil {
		return err
	}

	report, err := a.container.AnalyticsService.Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), report)
	return nil
}

func (o *runOptions) request() (analytics.Request, error) {
	req := analytics.Request{TopN: o.top}

	if o.top <= 0 {
		return req, fmt.Errorf("--top must be positive")
	}
	if o.start != "" {
		start, err := domain.ParseDate(o.start)
		if err != nil {
			return req, err
		}
		req.Filter.Start = start
	}
	if o.end != "" {
		end, err := domain.ParseDate(o.end)
		if err != nil {
			return req, err
		}
		req.Filter.End = end
	}
	req.Filter.Tickers = utils.ParseCSV(o.tickers)

	c, err := domain.ParseCurrency(o.currency)
	if err != nil {
		return req, err
	}
	req.Currency = c
	return req, nil
}

// resolvePortfolio accepts an existing file path or a portfolio name.
func (a *app) resolvePortfolio(arg string) (string, error) {
	if strings.ContainsAny(arg, `/\`) || strings.HasSuffix(strings.ToLower(arg), ".csv") {
		if _, err := os.Stat(arg); err != nil {
			return "", fmt.Errorf("portfolio file: %w", err)
		}
		return arg, nil
	}
	return a.container.AnalyticsService.PortfolioPath(arg)
}

func printReport(w io.Writer, r *analytics.Report) {
	cur := string(r.Currency)

	fmt.Fprintf(w, "Period: %s (%s)\n\n", r.Range, cur)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Period PnL:\t%s\n", utils.FormatMoney(r.Stats.PeriodPnL, cur))
	fmt.Fprintf(tw, "Max drawdown:\t%s\t(%s → %s)\n",
		utils.FormatMoney(r.Stats.MaxDrawdown, cur),
		domain.FormatDate(r.Stats.DrawdownStartDate),
		domain.FormatDate(r.Stats.MaxDrawdownDate))
	fmt.Fprintf(tw, "Sharpe ratio:\t%s\n", formatRatio(r.Stats.SharpeRatio))
	_ = tw.Flush()

	printTickers(w, "Top winners", r.Winners, cur)
	printTickers(w, "Top losers", r.Losers, cur)
}

func printTickers(w io.Writer, title string, items []stats.TickerPnL, currency string) {
	fmt.Fprintf(w, "\n%s\n", title)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, it := range items {
		fmt.Fprintf(tw, "  %s\t%s\t\n", it.Ticker, utils.FormatMoney(it.PnL, currency))
	}
	_ = tw.Flush()
}

func formatRatio(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
