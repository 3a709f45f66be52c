package jobs

import (
	"context"

	"github.com/sidkm/sift/internal/abtest"
	"github.com/sidkm/sift/pkg/logger"
)

// ABSweepJob concludes A/B tests whose configured duration has passed
type ABSweepJob struct {
	manager *abtest.Manager
	logger  *logger.Logger
}

// NewABSweepJob creates a new sweep job
func NewABSweepJob(manager *abtest.Manager, log *logger.Logger) *ABSweepJob {
	return &ABSweepJob{manager: manager, logger: log}
}

// Name returns the job name
func (j *ABSweepJob) Name() string {
	return "abtest_sweep"
}

// Schedule returns the cron schedule (hourly)
func (j *ABSweepJob) Schedule() string {
	return "0 0 * * * *"
}

// Run concludes every expired test
func (j *ABSweepJob) Run(ctx context.Context) error {
	concluded := j.manager.SweepExpired(ctx)
	if concluded > 0 {
		j.logger.WithField("concluded", concluded).Info("Expired A/B tests concluded")
	}
	return nil
}
