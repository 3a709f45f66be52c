package abtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkm/sift/pkg/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), NewMemoryStore(), logger.Nop())
	require.NoError(t, err)
	return m
}

func defaultParams(name string) CreateParams {
	return CreateParams{
		Name: name,
		Variants: map[string]map[string]interface{}{
			"A": {"algorithm": "v1"},
			"B": {"algorithm": "v2"},
		},
		TrafficSplit:   map[string]float64{"A": 50, "B": 50},
		DurationDays:   14,
		SuccessMetrics: []string{"score", "return"},
	}
}

func TestCreateTestValidatesTrafficSplit(t *testing.T) {
	m := newTestManager(t)

	params := defaultParams("bad-split")
	params.TrafficSplit = map[string]float64{"A": 60, "B": 50}
	_, err := m.CreateTest(context.Background(), params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "traffic split sums to 110.00")

	// Within the 0.1 tolerance
	params = defaultParams("ok-split")
	params.TrafficSplit = map[string]float64{"A": 50.05, "B": 50}
	_, err = m.CreateTest(context.Background(), params)
	assert.NoError(t, err)
}

func TestCreateTestCollectsAllProblems(t *testing.T) {
	m := newTestManager(t)

	params := defaultParams("broken")
	params.TrafficSplit = map[string]float64{"A": 60, "C": 60}
	_, err := m.CreateTest(context.Background(), params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "traffic split sums to 120.00")
	assert.Contains(t, err.Error(), "variant B missing from traffic split")
	assert.Contains(t, err.Error(), "unknown variant C")
}

func TestCreateTestRejectsDuplicates(t *testing.T) {
	m := newTestManager(t)

	_, err := m.CreateTest(context.Background(), defaultParams("dup"))
	require.NoError(t, err)
	_, err = m.CreateTest(context.Background(), defaultParams("dup"))
	assert.Error(t, err)
}

func TestAssignVariantDeterministic(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("det"))
	require.NoError(t, err)

	first, err := m.AssignVariant("det", "user42")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		got, err := m.AssignVariant("det", "user42")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestAssignVariantDistribution(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("dist"))
	require.NoError(t, err)

	counts := map[string]int{}
	total := 10000
	for i := 0; i < total; i++ {
		v, err := m.AssignVariant("dist", fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		counts[v]++
	}

	// 50/50 split within +/- 3 points
	for _, id := range []string{"A", "B"} {
		share := float64(counts[id]) / float64(total) * 100
		assert.InDelta(t, 50.0, share, 3.0, "variant %s got %.1f%%", id, share)
	}
}

func TestRecordResultUnknownVariant(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("rr"))
	require.NoError(t, err)

	err = m.RecordResult(context.Background(), "rr", "Z", ResultMetrics{}, true)
	assert.Error(t, err)
	err = m.RecordResult(context.Background(), "missing", "A", ResultMetrics{}, true)
	assert.Error(t, err)
}

func TestStatisticalAnalysisScenario(t *testing.T) {
	m := newTestManager(t)
	params := defaultParams("analysis")
	params.TrafficSplit = map[string]float64{"A": 60, "B": 40}
	_, err := m.CreateTest(context.Background(), params)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 150; i++ {
		score := 70.0
		require.NoError(t, m.RecordResult(ctx, "analysis", "A", ResultMetrics{Score: &score}, i < 100))
	}
	for i := 0; i < 150; i++ {
		require.NoError(t, m.RecordResult(ctx, "analysis", "B", ResultMetrics{}, i < 90))
	}

	test, err := m.TestStatus("analysis")
	require.NoError(t, err)

	// A's 0.667 beats B's 0.60, but that gap over 150 samples each is
	// not significant at 0.05
	assert.Equal(t, "A", test.Analysis.CurrentWinner)
	assert.Equal(t, 1, test.Analysis.Comparisons)
	assert.Zero(t, test.Analysis.ConfidenceLevel)
	assert.Equal(t, StatusActive, test.Status)
}

func TestAnalysisSkipsSmallSamples(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("small"))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, m.RecordResult(ctx, "small", "A", ResultMetrics{}, true))
	}

	test, err := m.TestStatus("small")
	require.NoError(t, err)
	assert.Empty(t, test.Analysis.CurrentWinner)
	assert.Zero(t, test.Analysis.Comparisons)
}

func TestConcludedTestIsImmutable(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("frozen"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, m.RecordResult(ctx, "frozen", "A", ResultMetrics{}, true))

	summary, err := m.ConcludeTest(ctx, "frozen", ReasonManual)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, ReasonManual, summary.Reason)

	err = m.RecordResult(ctx, "frozen", "A", ResultMetrics{}, true)
	assert.Error(t, err)

	test, err := m.TestStatus("frozen")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, test.Status)
	assert.Equal(t, 1, test.VariantMetrics["A"].Requests)

	_, err = m.ConcludeTest(ctx, "frozen", ReasonManual)
	assert.Error(t, err)
}

func TestDurationConclusion(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("expiry"))
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().AddDate(0, 0, 15) }

	require.NoError(t, m.RecordResult(context.Background(), "expiry", "A", ResultMetrics{}, true))

	test, err := m.TestStatus("expiry")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, test.Status)
	assert.Equal(t, ReasonDurationComplete, test.Summary.Reason)
}

func TestSweepExpired(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("sweep-1"))
	require.NoError(t, err)
	_, err = m.CreateTest(context.Background(), defaultParams("sweep-2"))
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().AddDate(0, 0, 15) }

	assert.Equal(t, 2, m.SweepExpired(context.Background()))
	assert.Empty(t, m.ActiveTests())
	assert.Len(t, m.CompletedTests(), 2)

	history, err := m.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestFinalSummaryWinner(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("winner"))
	require.NoError(t, err)

	ctx := context.Background()
	scoreA, scoreB := 80.0, 60.0
	for i := 0; i < 20; i++ {
		require.NoError(t, m.RecordResult(ctx, "winner", "A", ResultMetrics{Score: &scoreA}, i < 16))
		require.NoError(t, m.RecordResult(ctx, "winner", "B", ResultMetrics{Score: &scoreB}, i < 10))
	}

	summary, err := m.ConcludeTest(ctx, "winner", ReasonManual)
	require.NoError(t, err)

	assert.Equal(t, "A", summary.Winner)
	assert.InDelta(t, 0.8, summary.Variants["A"].SuccessRate, 0.001)
	assert.InDelta(t, 80.0, summary.Variants["A"].AvgScore, 0.001)
	// (0.8 - 0.5) / 0.5 * 100
	assert.InDelta(t, 60.0, summary.ImprovementPct, 0.001)
}

func TestConcurrentRecordResult(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("race"))
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	workers, perWorker := 8, 25
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_ = m.RecordResult(ctx, "race", "A", ResultMetrics{}, true)
			}
		}()
	}
	wg.Wait()

	test, err := m.TestStatus("race")
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, test.VariantMetrics["A"].Requests)
	assert.Equal(t, workers*perWorker, test.VariantMetrics["A"].Successes)
}

func TestStatusReadsSafeDuringRecording(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTest(context.Background(), defaultParams("readers"))
	require.NoError(t, err)

	// One writer appending results, one reader marshaling status the
	// way the HTTP handler does. Run under -race this fails if the
	// status path hands out the live document.
	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		score := 70.0
		for i := 0; i < 200; i++ {
			_ = m.RecordResult(ctx, "readers", "A", ResultMetrics{Score: &score}, true)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			test, err := m.TestStatus("readers")
			if err != nil {
				t.Errorf("status read failed: %v", err)
				return
			}
			if _, err := json.Marshal(test); err != nil {
				t.Errorf("marshal failed: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	// The returned document is a copy: mutating it must not leak back
	before, err := m.TestStatus("readers")
	require.NoError(t, err)
	requests := before.VariantMetrics["A"].Requests
	before.VariantMetrics["A"].Requests = -1
	before.TrafficSplit["A"] = 0

	after, err := m.TestStatus("readers")
	require.NoError(t, err)
	assert.Equal(t, requests, after.VariantMetrics["A"].Requests)
	assert.InDelta(t, 50.0, after.TrafficSplit["A"], 0.001)
}

func TestChiSquareDegenerate(t *testing.T) {
	// A zero marginal must report "not significant", not NaN
	assert.Equal(t, 1.0, chiSquareP(0, 0, 10, 5))
	assert.Equal(t, 1.0, chiSquareP(0, 10, 0, 10))

	// A lopsided table is clearly significant
	assert.Less(t, chiSquareP(95, 5, 50, 50), 0.001)
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)

	mean, std = meanStd([]float64{4})
	assert.Equal(t, 4.0, mean)
	assert.Zero(t, std)

	mean, std = meanStd([]float64{2, 4, 6})
	assert.InDelta(t, 4.0, mean, 0.001)
	assert.InDelta(t, 2.0, std, 0.001)
}
