package contracts

// Recommendation labels, threshold-driven
const (
	LabelStrongBuy   = "Strong Buy"
	LabelBuy         = "Buy"
	LabelModerateBuy = "Moderate Buy"
	LabelHold        = "Hold"
	LabelAvoid       = "Avoid"
)

// RankedRecommendation is the final scored output for one symbol
type RankedRecommendation struct {
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	FinalScore     float64  `json:"final_score"` // clamped to [0, 100]
	BaseScore      float64  `json:"base_score"`
	RerankingScore float64  `json:"reranking_score"`
	Recommendation string   `json:"recommendation"`
	TargetPrice    float64  `json:"target_price"`
	RiskLevel      string   `json:"risk_level"`
	Sector         string   `json:"sector"`
	Close          float64  `json:"close"`
	Volume         int64    `json:"volume"`
	PerChg         float64  `json:"per_chg"`
	Categories     []string `json:"categories"`
}

// RecommendationLabel maps a final score to its label. The Moderate Buy
// breakpoint is the caller's threshold itself, so anything that survived
// filtering gets at least Moderate Buy unless the threshold sits below 50.
func RecommendationLabel(finalScore, minScoreThreshold float64) string {
	switch {
	case finalScore >= 85:
		return LabelStrongBuy
	case finalScore >= 75:
		return LabelBuy
	case finalScore >= minScoreThreshold:
		return LabelModerateBuy
	case finalScore >= 50:
		return LabelHold
	default:
		return LabelAvoid
	}
}

// FilteringSummary reports what the threshold filter removed
type FilteringSummary struct {
	CandidatesIn  int     `json:"candidates_in"`
	CandidatesOut int     `json:"candidates_out"`
	MinScore      float64 `json:"min_score"`
	Dropped       int     `json:"dropped"`
}

// RecommendationSet is the caller-facing scoring response
type RecommendationSet struct {
	Strategy         StrategyType           `json:"strategy"`
	Recommendations  []RankedRecommendation `json:"recommendations"`
	FilteringSummary FilteringSummary       `json:"filtering_summary"`
	Metrics          AggregationMetrics     `json:"metrics"`
	Error            string                 `json:"error,omitempty"`
}
