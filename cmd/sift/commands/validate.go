package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidkm/sift/internal/contracts"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [strategy] [combination-json]",
	Short: "Validate a variant combination without fetching anything",
	Long: `Checks a combination against the loaded catalog and reports every
problem at once. No screener queries are executed.

Example:
  go run ./cmd/sift validate swing '{"fundamental":"v1","momentum":"v2"}'
  go run ./cmd/sift validate intraday_buy '{"momentum":"v1"}' --version v1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runValidate,
}

var validateVersion string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateVersion, "version", "", "catalog version (default: strategy default)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	strategy, err := contracts.ParseStrategy(args[0])
	if err != nil {
		return err
	}

	var comb contracts.Combination
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &comb); err != nil {
			return fmt.Errorf("parse combination: %w", err)
		}
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	preview, err := a.service.ValidateCombination(strategy, validateVersion, comb)
	if err != nil {
		return err
	}

	if !preview.Valid {
		fmt.Println("INVALID")
		for _, msg := range preview.Errors {
			fmt.Printf("  - %s\n", msg)
		}
		return fmt.Errorf("combination has %d problem(s)", len(preview.Errors))
	}

	fmt.Println("VALID")
	fmt.Printf("  categories:       %v\n", preview.Categories)
	fmt.Printf("  weight sum:       %.2f\n", preview.WeightSum)
	fmt.Printf("  expected results: %d\n", preview.ExpectedResults)
	return nil
}
