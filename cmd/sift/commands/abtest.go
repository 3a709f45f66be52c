package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkm/sift/internal/abtest"
)

// abtestCmd represents the abtest command group
var abtestCmd = &cobra.Command{
	Use:   "abtest",
	Short: "Manage A/B tests",
	Long: `Create, inspect, and conclude A/B tests from the command line.

Example:
  go run ./cmd/sift abtest create ranker-test --spec test.json
  go run ./cmd/sift abtest list
  go run ./cmd/sift abtest status ranker-test
  go run ./cmd/sift abtest conclude ranker-test`,
}

var abtestSpecFile string

func init() {
	rootCmd.AddCommand(abtestCmd)

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a test from a JSON spec file",
		Args:  cobra.ExactArgs(1),
		RunE:  runABTestCreate,
	}
	createCmd.Flags().StringVar(&abtestSpecFile, "spec", "", "JSON file with variants, traffic_split, duration_days")
	createCmd.MarkFlagRequired("spec")

	abtestCmd.AddCommand(createCmd)
	abtestCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active and completed tests",
		RunE:  runABTestList,
	})
	abtestCmd.AddCommand(&cobra.Command{
		Use:   "status [name]",
		Short: "Show one test's metrics and analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  runABTestStatus,
	})
	abtestCmd.AddCommand(&cobra.Command{
		Use:   "conclude [name]",
		Short: "Manually conclude a test",
		Args:  cobra.ExactArgs(1),
		RunE:  runABTestConclude,
	})
}

func runABTestCreate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(abtestSpecFile)
	if err != nil {
		return fmt.Errorf("read spec file: %w", err)
	}

	var params abtest.CreateParams
	if err := json.Unmarshal(data, &params); err != nil {
		return fmt.Errorf("parse spec file: %w", err)
	}
	params.Name = args[0]

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	manager, err := a.abtestManager(cmd.Context())
	if err != nil {
		return err
	}

	test, err := manager.CreateTest(cmd.Context(), params)
	if err != nil {
		return err
	}

	fmt.Printf("Created test %s (%d variants, ends %s)\n",
		test.TestName, len(test.Variants), test.EndDate.Format("2006-01-02"))
	return nil
}

func runABTestList(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	manager, err := a.abtestManager(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println("Active:")
	for _, t := range manager.ActiveTests() {
		fmt.Printf("  %s (%d variants, ends %s)\n",
			t.TestName, len(t.Variants), t.EndDate.Format("2006-01-02"))
	}
	fmt.Println("Completed:")
	for _, t := range manager.CompletedTests() {
		winner := "-"
		if t.Summary != nil {
			winner = t.Summary.Winner
		}
		fmt.Printf("  %s (winner: %s)\n", t.TestName, winner)
	}
	return nil
}

func runABTestStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	manager, err := a.abtestManager(cmd.Context())
	if err != nil {
		return err
	}

	test, err := manager.TestStatus(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(test)
}

func runABTestConclude(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	manager, err := a.abtestManager(cmd.Context())
	if err != nil {
		return err
	}

	summary, err := manager.ConcludeTest(cmd.Context(), args[0], abtest.ReasonManual)
	if err != nil {
		return err
	}

	fmt.Printf("Concluded %s: winner=%s improvement=%.1f%%\n",
		args[0], summary.Winner, summary.ImprovementPct)
	return nil
}
