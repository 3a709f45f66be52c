package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/internal/recommend"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [strategy]",
	Short: "Run the scoring pipeline once and print the results",
	Long: `Runs the full pipeline for one strategy: resolve the combination,
fetch every category from the screener, aggregate, re-rank.

Example:
  go run ./cmd/sift scan swing
  go run ./cmd/sift scan intraday_buy --min-score 60 --limit 10
  go run ./cmd/sift scan swing --combination '{"fundamental":"v1","momentum":"v2"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var (
	scanVersion     string
	scanLimit       int
	scanMinScore    float64
	scanCombination string
	scanJSON        bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanVersion, "version", "", "catalog version (default: strategy default)")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 20, "maximum results")
	scanCmd.Flags().Float64Var(&scanMinScore, "min-score", -1, "score threshold (default from catalog)")
	scanCmd.Flags().StringVar(&scanCombination, "combination", "", "variant combination as JSON")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print raw JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	strategy, err := contracts.ParseStrategy(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	req := recommend.Request{
		Strategy: strategy,
		Version:  scanVersion,
		Limit:    scanLimit,
	}
	if scanMinScore >= 0 {
		req.MinScore = &scanMinScore
	}
	if scanCombination != "" {
		if err := json.Unmarshal([]byte(scanCombination), &req.Combination); err != nil {
			return fmt.Errorf("parse combination: %w", err)
		}
	}

	set, err := a.service.GetRecommendations(cmd.Context(), req)
	if err != nil {
		return err
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	}

	if set.Error != "" {
		fmt.Printf("No results: %s\n", set.Error)
		return nil
	}

	fmt.Printf("=== %s scan: %d recommendations (threshold %.1f, %d dropped) ===\n",
		strategy, len(set.Recommendations), set.FilteringSummary.MinScore, set.FilteringSummary.Dropped)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSCORE\tBASE\tLABEL\tRISK\tCLOSE\tSECTOR")
	for _, rec := range set.Recommendations {
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%s\t%s\t%.2f\t%s\n",
			rec.Symbol, rec.FinalScore, rec.BaseScore, rec.Recommendation,
			rec.RiskLevel, rec.Close, rec.Sector)
	}
	w.Flush()

	fmt.Printf("\nunique=%d multi=%d diversity=%.1f coverage=%.1f performance=%.1f\n",
		set.Metrics.UniqueStocks, set.Metrics.MultiCategoryStocks,
		set.Metrics.DiversityScore, set.Metrics.CoverageScore, set.Metrics.PerformanceScore)
	return nil
}
