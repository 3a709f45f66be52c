package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/internal/scheduler"
	"github.com/sidkm/sift/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scheduled scan and maintenance jobs",
	Long: `Starts the background scheduler:

  scan_swing      - weekday swing scan after market open
  scan_long_term  - daily long-term scan after close
  abtest_sweep    - hourly conclusion of expired A/B tests

Example:
  go run ./cmd/sift scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	manager, err := a.abtestManager(cmd.Context())
	if err != nil {
		return fmt.Errorf("initialize A/B test manager: %w", err)
	}

	sched := scheduler.New(a.log)

	// IST market hours: scan swing shortly after open, long-term after close
	scanJobs := []*jobs.ScanJob{
		jobs.NewScanJob(a.service, nil, contracts.StrategySwing, "0 30 9 * * MON-FRI", a.log),
		jobs.NewScanJob(a.service, nil, contracts.StrategyLongTerm, "0 0 16 * * MON-FRI", a.log),
	}
	for _, job := range scanJobs {
		if err := sched.AddJob(job); err != nil {
			return err
		}
	}
	if err := sched.AddJob(jobs.NewABSweepJob(manager, a.log)); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.log.Infof("Received signal %s, stopping scheduler", sig)
	return nil
}
