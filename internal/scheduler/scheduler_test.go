package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkm/sift/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	err      error
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := New(logger.Nop())

	job := &fakeJob{name: "scan", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(&fakeJob{name: "scan", schedule: "@hourly"}))
	assert.Equal(t, []string{"scan"}, s.JobNames())
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not-a-schedule"}))
}

func TestRunJobImmediate(t *testing.T) {
	s := New(logger.Nop())
	s.retryDelay = time.Millisecond

	job := &fakeJob{name: "sweep", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("sweep"))

	require.Eventually(t, func() bool {
		return job.runs.Load() == 1
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		h, _ := s.History("sweep")
		return len(h.Results) == 1
	}, time.Second, 10*time.Millisecond)
	history, err := s.History("sweep")
	require.NoError(t, err)
	assert.True(t, history.Results[0].Success)

	assert.Error(t, s.RunJob("missing"))
}

func TestRunJobRetries(t *testing.T) {
	s := New(logger.Nop())
	s.retryDelay = time.Millisecond

	job := &fakeJob{name: "flaky", schedule: "@hourly", err: errors.New("boom")}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("flaky"))

	// 1 initial attempt + 2 retries
	require.Eventually(t, func() bool {
		h, _ := s.History("flaky")
		return len(h.Results) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), job.runs.Load())

	history, _ := s.History("flaky")
	assert.False(t, history.Results[0].Success)
	assert.Equal(t, "boom", history.Results[0].Error)
	assert.Zero(t, history.SuccessRate())
}
