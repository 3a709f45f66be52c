package abtest

import (
	"time"
)

// Test lifecycle states. Completed is terminal.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Conclusion reasons
const (
	ReasonDurationComplete        = "duration_complete"
	ReasonStatisticalSignificance = "statistical_significance"
	ReasonManual                  = "manual"
)

// Defaults applied at creation when the caller leaves them zero
const (
	DefaultSignificanceLevel = 0.05
	DefaultMinimumSampleSize = 100
)

// VariantMetrics accumulates one variant's recorded outcomes
type VariantMetrics struct {
	Requests  int       `json:"requests"`
	Successes int       `json:"successes"`
	Scores    []float64 `json:"scores"`
	Returns   []float64 `json:"returns"`
	Accuracy  []float64 `json:"accuracy"`
}

// SuccessRate is successes over requests, 0 when nothing recorded
func (m *VariantMetrics) SuccessRate() float64 {
	if m.Requests == 0 {
		return 0
	}
	return float64(m.Successes) / float64(m.Requests)
}

// StatisticalAnalysis is the rolling pairwise comparison state,
// refreshed after every recorded result
type StatisticalAnalysis struct {
	CurrentWinner     string  `json:"current_winner"`
	ConfidenceLevel   float64 `json:"confidence_level"` // fraction of significant pairwise comparisons
	SignificanceLevel float64 `json:"significance_level"`
	MinimumSampleSize int     `json:"minimum_sample_size"`
	Comparisons       int     `json:"comparisons"`
}

// VariantSummary is one variant's frozen statistics at conclusion
type VariantSummary struct {
	Requests    int     `json:"requests"`
	SuccessRate float64 `json:"success_rate"`
	AvgScore    float64 `json:"avg_score"`
	StdScore    float64 `json:"std_score"`
	AvgReturn   float64 `json:"avg_return"`
	StdReturn   float64 `json:"std_return"`
}

// FinalSummary is computed once, when the test concludes
type FinalSummary struct {
	Winner         string                    `json:"winner"`
	ImprovementPct float64                   `json:"improvement_pct"`
	Reason         string                    `json:"reason"`
	ConcludedAt    time.Time                 `json:"concluded_at"`
	Variants       map[string]VariantSummary `json:"variants"`
}

// Test is one A/B test document. Persisted as a whole after every
// mutating call; immutable once Status is completed.
type Test struct {
	TestName          string                            `json:"test_name"`
	Variants          map[string]map[string]interface{} `json:"variants"`
	TrafficSplit      map[string]float64                `json:"traffic_split"` // percentages, sum 100 +/- 0.1
	SuccessMetrics    []string                          `json:"success_metrics"`
	Status            string                            `json:"status"`
	StartDate         time.Time                         `json:"start_date"`
	EndDate           time.Time                         `json:"end_date"`
	SignificanceLevel float64                           `json:"significance_level"`
	MinimumSampleSize int                               `json:"minimum_sample_size"`
	VariantMetrics    map[string]*VariantMetrics        `json:"variant_metrics"`
	Analysis          StatisticalAnalysis               `json:"statistical_analysis"`
	Summary           *FinalSummary                     `json:"final_summary,omitempty"`
}

// clone returns a deep copy safe to hand to callers while results
// keep being recorded against the original
func (t *Test) clone() *Test {
	out := *t

	out.Variants = make(map[string]map[string]interface{}, len(t.Variants))
	for id, spec := range t.Variants {
		inner := make(map[string]interface{}, len(spec))
		for k, v := range spec {
			inner[k] = v
		}
		out.Variants[id] = inner
	}

	out.TrafficSplit = make(map[string]float64, len(t.TrafficSplit))
	for id, pct := range t.TrafficSplit {
		out.TrafficSplit[id] = pct
	}

	out.SuccessMetrics = append([]string(nil), t.SuccessMetrics...)

	out.VariantMetrics = make(map[string]*VariantMetrics, len(t.VariantMetrics))
	for id, vm := range t.VariantMetrics {
		out.VariantMetrics[id] = &VariantMetrics{
			Requests:  vm.Requests,
			Successes: vm.Successes,
			Scores:    append([]float64(nil), vm.Scores...),
			Returns:   append([]float64(nil), vm.Returns...),
			Accuracy:  append([]float64(nil), vm.Accuracy...),
		}
	}

	if t.Summary != nil {
		summary := *t.Summary
		summary.Variants = make(map[string]VariantSummary, len(t.Summary.Variants))
		for id, vs := range t.Summary.Variants {
			summary.Variants[id] = vs
		}
		out.Summary = &summary
	}

	return &out
}

// CreateParams describes a new test
type CreateParams struct {
	Name              string                            `json:"name"`
	Variants          map[string]map[string]interface{} `json:"variants"`
	TrafficSplit      map[string]float64                `json:"traffic_split"`
	DurationDays      int                               `json:"duration_days"`
	SuccessMetrics    []string                          `json:"success_metrics"`
	SignificanceLevel float64                           `json:"significance_level,omitempty"`
	MinimumSampleSize int                               `json:"minimum_sample_size,omitempty"`
}

// ResultMetrics carries the optional per-result observations
type ResultMetrics struct {
	Score    *float64 `json:"score,omitempty"`
	Return   *float64 `json:"return,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// HistoryEntry records one concluded test
type HistoryEntry struct {
	TestName    string    `json:"test_name"`
	Winner      string    `json:"winner"`
	Reason      string    `json:"reason"`
	ConcludedAt time.Time `json:"concluded_at"`
}
