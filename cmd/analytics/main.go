// Package main is the portfolio analytics command line tool.
//
// Usage:
//
//	analytics run growth --currency EUR --start 2024-01-01
//	analytics import-prices prices.csv
//	analytics import-fx fx.csv
//	analytics clear-cache
package main

import (
	"os"

	"github.com/aristath/portfolio-analytics/cmd/analytics/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
