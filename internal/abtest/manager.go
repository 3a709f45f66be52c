package abtest

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sidkm/sift/pkg/logger"
)

// trafficBuckets is the assignment space: a hash maps into
// [0, trafficBuckets) and percentages own contiguous ranges of it
const trafficBuckets = 10000

// Manager owns the active and completed test sets. All reads go
// through the in-memory maps; every mutation is written back to the
// store before returning. record/conclude calls against the same test
// are serialized by a per-test lock so concurrent results cannot lose
// counter updates.
type Manager struct {
	mu        sync.RWMutex
	locks     map[string]*sync.Mutex
	active    map[string]*Test
	completed map[string]*Test

	store  Store
	logger *logger.Logger
	now    func() time.Time
}

// NewManager creates a Manager and loads persisted tests from store
func NewManager(ctx context.Context, store Store, log *logger.Logger) (*Manager, error) {
	m := &Manager{
		locks:     make(map[string]*sync.Mutex),
		active:    make(map[string]*Test),
		completed: make(map[string]*Test),
		store:     store,
		logger:    log,
		now:       time.Now,
	}

	activeTests, err := store.LoadActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active tests: %w", err)
	}
	for _, t := range activeTests {
		m.active[t.TestName] = t
	}

	completedTests, err := store.LoadCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("load completed tests: %w", err)
	}
	for _, t := range completedTests {
		m.completed[t.TestName] = t
	}

	log.Infof("Loaded %d active and %d completed A/B tests", len(m.active), len(m.completed))
	return m, nil
}

// CreateTest validates and persists a new test. Every validation
// problem is reported at once.
func (m *Manager) CreateTest(ctx context.Context, params CreateParams) (*Test, error) {
	var problems []string

	if params.Name == "" {
		problems = append(problems, "test name is required")
	}
	if len(params.Variants) == 0 {
		problems = append(problems, "at least one variant is required")
	}
	if params.DurationDays <= 0 {
		problems = append(problems, "duration_days must be positive")
	}

	sum := 0.0
	for _, pct := range params.TrafficSplit {
		sum += pct
	}
	if math.Abs(sum-100) > 0.1 {
		problems = append(problems, fmt.Sprintf("traffic split sums to %.2f, expected 100", sum))
	}
	for id := range params.Variants {
		if _, ok := params.TrafficSplit[id]; !ok {
			problems = append(problems, fmt.Sprintf("variant %s missing from traffic split", id))
		}
	}
	for id := range params.TrafficSplit {
		if _, ok := params.Variants[id]; !ok {
			problems = append(problems, fmt.Sprintf("traffic split references unknown variant %s", id))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[params.Name]; exists {
		problems = append(problems, fmt.Sprintf("test %s already exists", params.Name))
	} else if _, exists := m.completed[params.Name]; exists {
		problems = append(problems, fmt.Sprintf("test %s was already concluded", params.Name))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid test: %s", strings.Join(problems, "; "))
	}

	significance := params.SignificanceLevel
	if significance == 0 {
		significance = DefaultSignificanceLevel
	}
	minSample := params.MinimumSampleSize
	if minSample == 0 {
		minSample = DefaultMinimumSampleSize
	}

	start := m.now()
	test := &Test{
		TestName:          params.Name,
		Variants:          params.Variants,
		TrafficSplit:      params.TrafficSplit,
		SuccessMetrics:    params.SuccessMetrics,
		Status:            StatusActive,
		StartDate:         start,
		EndDate:           start.AddDate(0, 0, params.DurationDays),
		SignificanceLevel: significance,
		MinimumSampleSize: minSample,
		VariantMetrics:    make(map[string]*VariantMetrics, len(params.Variants)),
		Analysis: StatisticalAnalysis{
			SignificanceLevel: significance,
			MinimumSampleSize: minSample,
		},
	}
	for id := range params.Variants {
		test.VariantMetrics[id] = &VariantMetrics{}
	}

	if err := m.store.SaveActive(ctx, test); err != nil {
		return nil, fmt.Errorf("persist test %s: %w", params.Name, err)
	}

	m.active[params.Name] = test
	m.logger.Infof("Created A/B test %s with %d variants, ends %s",
		params.Name, len(params.Variants), test.EndDate.Format("2006-01-02"))
	return test.clone(), nil
}

// AssignVariant deterministically maps (userID, testName) to a
// variant. The same pair always gets the same variant for the life of
// the test.
func (m *Manager) AssignVariant(testName, userID string) (string, error) {
	m.mu.RLock()
	test, ok := m.active[testName]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no active test named %s", testName)
	}

	h := fnv.New32a()
	h.Write([]byte(userID + testName))
	bucket := float64(h.Sum32() % trafficBuckets)

	// Cumulative ranges in sorted variant order, so the mapping is
	// stable across processes
	ids := make([]string, 0, len(test.TrafficSplit))
	for id := range test.TrafficSplit {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cumulative := 0.0
	for _, id := range ids {
		cumulative += test.TrafficSplit[id] / 100 * trafficBuckets
		if bucket < cumulative {
			return id, nil
		}
	}
	// Rounding slack at the top of the range
	return ids[len(ids)-1], nil
}

// RecordResult registers one outcome for a variant, refreshes the
// statistical analysis, and checks whether the test can conclude.
// Fails for unknown tests or variants and for concluded tests.
func (m *Manager) RecordResult(ctx context.Context, testName, variantID string, metrics ResultMetrics, success bool) error {
	lock := m.testLock(testName)
	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	test, ok := m.active[testName]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no active test named %s", testName)
	}

	vm, ok := test.VariantMetrics[variantID]
	if !ok {
		return fmt.Errorf("test %s has no variant %s", testName, variantID)
	}

	vm.Requests++
	if success {
		vm.Successes++
	}
	if metrics.Score != nil {
		vm.Scores = append(vm.Scores, *metrics.Score)
	}
	if metrics.Return != nil {
		vm.Returns = append(vm.Returns, *metrics.Return)
	}
	if metrics.Accuracy != nil {
		vm.Accuracy = append(vm.Accuracy, *metrics.Accuracy)
	}

	m.analyze(test)

	if reason, done := m.conclusionDue(test); done {
		return m.concludeLocked(ctx, test, reason)
	}

	if err := m.store.SaveActive(ctx, test); err != nil {
		return fmt.Errorf("persist test %s: %w", testName, err)
	}
	return nil
}

// analyze refreshes current_winner and confidence_level from pairwise
// chi-square comparisons between variants with sufficient sample
func (m *Manager) analyze(test *Test) {
	type arm struct {
		id string
		vm *VariantMetrics
	}

	var sufficient []arm
	for id, vm := range test.VariantMetrics {
		if vm.Requests >= test.MinimumSampleSize {
			sufficient = append(sufficient, arm{id, vm})
		}
	}
	sort.Slice(sufficient, func(i, j int) bool { return sufficient[i].id < sufficient[j].id })

	analysis := StatisticalAnalysis{
		SignificanceLevel: test.SignificanceLevel,
		MinimumSampleSize: test.MinimumSampleSize,
	}

	if len(sufficient) > 0 {
		winner := sufficient[0]
		for _, a := range sufficient[1:] {
			if a.vm.SuccessRate() > winner.vm.SuccessRate() {
				winner = a
			}
		}
		analysis.CurrentWinner = winner.id
	}

	significant := 0
	for i := 0; i < len(sufficient); i++ {
		for j := i + 1; j < len(sufficient); j++ {
			a, b := sufficient[i].vm, sufficient[j].vm
			p := chiSquareP(a.Successes, a.Requests-a.Successes, b.Successes, b.Requests-b.Successes)
			analysis.Comparisons++
			if p < test.SignificanceLevel {
				significant++
			}
		}
	}
	if analysis.Comparisons > 0 {
		analysis.ConfidenceLevel = float64(significant) / float64(analysis.Comparisons)
	}

	test.Analysis = analysis
}

// conclusionDue reports whether the test should auto-conclude
func (m *Manager) conclusionDue(test *Test) (string, bool) {
	if m.now().After(test.EndDate) {
		return ReasonDurationComplete, true
	}
	if test.Analysis.ConfidenceLevel > 0.95 && test.Analysis.CurrentWinner != "" {
		winner := test.VariantMetrics[test.Analysis.CurrentWinner]
		if winner != nil && winner.Requests >= 2*test.MinimumSampleSize {
			return ReasonStatisticalSignificance, true
		}
	}
	return "", false
}

// ConcludeTest freezes an active test with the given reason
func (m *Manager) ConcludeTest(ctx context.Context, testName, reason string) (*FinalSummary, error) {
	if reason == "" {
		reason = ReasonManual
	}

	lock := m.testLock(testName)
	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	test, ok := m.active[testName]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no active test named %s", testName)
	}

	if err := m.concludeLocked(ctx, test, reason); err != nil {
		return nil, err
	}
	return test.Summary, nil
}

// concludeLocked finalizes the test. Caller holds the per-test lock.
func (m *Manager) concludeLocked(ctx context.Context, test *Test, reason string) error {
	test.Status = StatusCompleted
	test.Summary = m.finalSummary(test, reason)

	if err := m.store.SaveCompleted(ctx, test); err != nil {
		return fmt.Errorf("persist concluded test %s: %w", test.TestName, err)
	}
	if err := m.store.DeleteActive(ctx, test.TestName); err != nil {
		return fmt.Errorf("remove active test %s: %w", test.TestName, err)
	}
	entry := HistoryEntry{
		TestName:    test.TestName,
		Winner:      test.Summary.Winner,
		Reason:      reason,
		ConcludedAt: test.Summary.ConcludedAt,
	}
	if err := m.store.AppendHistory(ctx, entry); err != nil {
		m.logger.WithError(err).Warnf("Failed to append history for %s", test.TestName)
	}

	m.mu.Lock()
	delete(m.active, test.TestName)
	m.completed[test.TestName] = test
	m.mu.Unlock()

	m.logger.Infof("Concluded A/B test %s: winner=%s reason=%s",
		test.TestName, test.Summary.Winner, reason)
	return nil
}

// finalSummary computes the frozen per-variant statistics and picks
// the overall winner by 0.7*success_rate + 0.3*normalized avg score
func (m *Manager) finalSummary(test *Test, reason string) *FinalSummary {
	summary := &FinalSummary{
		Reason:      reason,
		ConcludedAt: m.now(),
		Variants:    make(map[string]VariantSummary, len(test.VariantMetrics)),
	}

	type scored struct {
		id        string
		composite float64
		rate      float64
	}
	var ranking []scored

	for id, vm := range test.VariantMetrics {
		avgScore, stdScore := meanStd(vm.Scores)
		avgReturn, stdReturn := meanStd(vm.Returns)
		summary.Variants[id] = VariantSummary{
			Requests:    vm.Requests,
			SuccessRate: vm.SuccessRate(),
			AvgScore:    avgScore,
			StdScore:    stdScore,
			AvgReturn:   avgReturn,
			StdReturn:   stdReturn,
		}
		ranking = append(ranking, scored{
			id:        id,
			composite: 0.7*vm.SuccessRate() + 0.3*avgScore/100,
			rate:      vm.SuccessRate(),
		})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].composite != ranking[j].composite {
			return ranking[i].composite > ranking[j].composite
		}
		return ranking[i].id < ranking[j].id
	})

	if len(ranking) > 0 {
		summary.Winner = ranking[0].id
	}
	if len(ranking) > 1 && ranking[1].rate > 0 {
		summary.ImprovementPct = (ranking[0].rate - ranking[1].rate) / ranking[1].rate * 100
	}

	return summary
}

// TestStatus returns a copy of a test by name, searching active then
// completed. Copies keep callers (JSON encoding included) safe from
// concurrent result recording.
func (m *Manager) TestStatus(testName string) (*Test, error) {
	m.mu.RLock()
	t, ok := m.active[testName]
	if !ok {
		t, ok = m.completed[testName]
	}
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no test named %s", testName)
	}
	return m.snapshot(t), nil
}

// ActiveTests returns copies of the active tests sorted by name
func (m *Manager) ActiveTests() []*Test {
	m.mu.RLock()
	live := make([]*Test, 0, len(m.active))
	for _, t := range m.active {
		live = append(live, t)
	}
	m.mu.RUnlock()

	out := make([]*Test, 0, len(live))
	for _, t := range live {
		out = append(out, m.snapshot(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestName < out[j].TestName })
	return out
}

// CompletedTests returns copies of the concluded tests sorted by name
func (m *Manager) CompletedTests() []*Test {
	m.mu.RLock()
	live := make([]*Test, 0, len(m.completed))
	for _, t := range m.completed {
		live = append(live, t)
	}
	m.mu.RUnlock()

	out := make([]*Test, 0, len(live))
	for _, t := range live {
		out = append(out, m.snapshot(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestName < out[j].TestName })
	return out
}

// snapshot deep-copies a test under its per-test lock so the copy is
// consistent with any in-flight RecordResult
func (m *Manager) snapshot(t *Test) *Test {
	lock := m.testLock(t.TestName)
	lock.Lock()
	defer lock.Unlock()
	return t.clone()
}

// History returns the most recent conclusion records
func (m *Manager) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	return m.store.History(ctx, limit)
}

// SweepExpired concludes every active test whose end date has passed.
// Run periodically by the scheduler.
func (m *Manager) SweepExpired(ctx context.Context) int {
	concluded := 0
	for _, t := range m.ActiveTests() {
		if m.now().After(t.EndDate) {
			if _, err := m.ConcludeTest(ctx, t.TestName, ReasonDurationComplete); err != nil {
				m.logger.WithError(err).Warnf("Failed to conclude expired test %s", t.TestName)
				continue
			}
			concluded++
		}
	}
	return concluded
}

func (m *Manager) testLock(testName string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[testName]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[testName] = lock
	}
	return lock
}
