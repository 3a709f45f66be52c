package contracts

import "time"

// AggregatedStock accumulates one symbol's contributions across categories
type AggregatedStock struct {
	Symbol      string          `json:"symbol"`
	TotalScore  float64         `json:"total_score"` // sum of weight*100 per contributing category
	Appearances int             `json:"appearances"`
	Categories  map[string]bool `json:"categories"` // set of category names
	Display     Candidate       `json:"display"`    // first-seen row for display fields

	// FirstCategory is the category whose fetch surfaced the symbol
	// first; its weight drives re-ranking.
	FirstCategory string `json:"first_category"`
}

// InCategory reports whether the symbol appeared in the named category
func (a *AggregatedStock) InCategory(category string) bool {
	return a.Categories[category]
}

// AggregationResult is the output of merging all categories of one combination
type AggregationResult struct {
	Stocks  []AggregatedStock  `json:"stocks"` // sorted by total_score desc, symbol asc
	Metrics AggregationMetrics `json:"metrics"`

	// TotalCandidates counts every row seen across categories, duplicates
	// included. Feeds the coverage score.
	TotalCandidates int `json:"total_candidates"`
}

// Empty reports whether no category produced any candidate
func (r *AggregationResult) Empty() bool {
	return len(r.Stocks) == 0
}

// AggregationMetrics summarizes the quality of one aggregation pass
type AggregationMetrics struct {
	UniqueStocks        int     `json:"unique_stocks"`
	MultiCategoryStocks int     `json:"multi_category_stocks"`
	DiversityScore      float64 `json:"diversity_score"`
	CoverageScore       float64 `json:"coverage_score"`
	WeightEfficiency    float64 `json:"weight_efficiency"`
	PerformanceScore    float64 `json:"performance_score"`
}

// ScanSnapshot records one completed scoring run for later inspection
type ScanSnapshot struct {
	ID              int64                  `json:"id"`
	Strategy        StrategyType           `json:"strategy"`
	Version         string                 `json:"version"`
	Combination     Combination            `json:"combination"`
	Metrics         AggregationMetrics     `json:"metrics"`
	Recommendations []RankedRecommendation `json:"recommendations"`
	CreatedAt       time.Time              `json:"created_at"`
}
