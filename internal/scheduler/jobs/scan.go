package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/internal/recommend"
	"github.com/sidkm/sift/pkg/logger"
)

// Broadcaster pushes a finished scan to live subscribers
type Broadcaster interface {
	Broadcast(strategy contracts.StrategyType, set *contracts.RecommendationSet)
}

// ScanJob runs the scoring pipeline for one strategy on a schedule.
// NSE trades 09:15-15:30 IST, so the defaults keep scans inside
// market hours.
type ScanJob struct {
	service   *recommend.Service
	broadcast Broadcaster
	strategy  contracts.StrategyType
	schedule  string
	logger    *logger.Logger
}

// NewScanJob creates a scan job for one strategy. broadcast may be nil.
func NewScanJob(service *recommend.Service, broadcast Broadcaster, strategy contracts.StrategyType, schedule string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		service:   service,
		broadcast: broadcast,
		strategy:  strategy,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "scan_" + string(j.strategy)
}

// Schedule returns the cron schedule expression
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scheduled scan with the catalog defaults
func (j *ScanJob) Run(ctx context.Context) error {
	set, err := j.service.GetRecommendations(ctx, recommend.Request{Strategy: j.strategy})
	if err != nil {
		return fmt.Errorf("scheduled scan for %s: %w", j.strategy, err)
	}

	if set.Error != "" {
		// Every category came back empty; worth a retry
		return fmt.Errorf("scheduled scan for %s: %s", j.strategy, set.Error)
	}

	top := make([]string, 0, 3)
	for i, rec := range set.Recommendations {
		if i == 3 {
			break
		}
		top = append(top, rec.Symbol)
	}
	j.logger.WithFields(map[string]interface{}{
		"strategy": j.strategy,
		"count":    len(set.Recommendations),
		"top":      strings.Join(top, ","),
	}).Info("Scheduled scan completed")

	if j.broadcast != nil {
		j.broadcast.Broadcast(j.strategy, set)
	}
	return nil
}
