package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyDir string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "sift - NSE screener aggregation and recommendation engine",
	Long: `sift Unified CLI

Config-driven stock screening pipeline: resolves a weighted query
combination per strategy, fans the queries out against the external
screener, merges and re-ranks candidates, and serves the results over
a REST API. Includes an A/B testing framework for comparing scoring
recipes.

Usage:
  go run ./cmd/sift [command]

Examples:
  go run ./cmd/sift api
  go run ./cmd/sift scan swing --min-score 60
  go run ./cmd/sift validate swing '{"fundamental":"v1","momentum":"v2"}'
  go run ./cmd/sift scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyDir, "strategy-dir", "", "strategy catalog directory (default from env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
