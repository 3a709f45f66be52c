package aggregation

import (
	"sort"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/pkg/logger"
)

// CategoryResult pairs one resolved query with the candidates its
// fetch produced. Order of the slice is the resolution order.
type CategoryResult struct {
	Query      contracts.ResolvedQuery
	Candidates []contracts.Candidate
}

// Aggregator merges per-category candidate lists into per-symbol
// weighted aggregates
type Aggregator struct {
	logger *logger.Logger
}

// New creates a new Aggregator
func New(log *logger.Logger) *Aggregator {
	return &Aggregator{logger: log}
}

// Aggregate combines every category's candidates into per-symbol
// totals, computes run metrics, and returns the top N symbols sorted
// by total score. Accumulation is single-threaded per call.
func (a *Aggregator) Aggregate(results []CategoryResult, topN int) contracts.AggregationResult {
	stocks := make(map[string]*contracts.AggregatedStock)
	totalCandidates := 0
	coveredWeight := 0.0

	for _, cr := range results {
		if len(cr.Candidates) > 0 {
			coveredWeight += cr.Query.Weight
		}
		for _, cand := range cr.Candidates {
			totalCandidates++

			agg, ok := stocks[cand.Symbol]
			if !ok {
				// Display fields come from the first category that
				// surfaced this symbol
				agg = &contracts.AggregatedStock{
					Symbol:        cand.Symbol,
					Categories:    make(map[string]bool),
					Display:       cand,
					FirstCategory: cr.Query.Category,
				}
				stocks[cand.Symbol] = agg
			} else if agg.Categories[cr.Query.Category] {
				// The source can repeat a symbol within one response;
				// a category contributes its weight at most once.
				continue
			}
			agg.TotalScore += cr.Query.Weight * 100
			agg.Appearances++
			agg.Categories[cr.Query.Category] = true
		}
	}

	if len(stocks) == 0 {
		a.logger.Warn("Aggregation produced no candidates")
		return contracts.AggregationResult{
			Stocks:  []contracts.AggregatedStock{},
			Metrics: contracts.AggregationMetrics{},
		}
	}

	metrics := computeMetrics(stocks, results, totalCandidates, coveredWeight)

	ranked := make([]contracts.AggregatedStock, 0, len(stocks))
	for _, agg := range stocks {
		ranked = append(ranked, *agg)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	a.logger.Infof("Aggregated %d candidates into %d symbols (%d multi-category)",
		totalCandidates, metrics.UniqueStocks, metrics.MultiCategoryStocks)

	return contracts.AggregationResult{
		Stocks:          ranked,
		Metrics:         metrics,
		TotalCandidates: totalCandidates,
	}
}

func computeMetrics(stocks map[string]*contracts.AggregatedStock, results []CategoryResult, totalCandidates int, coveredWeight float64) contracts.AggregationMetrics {
	unique := len(stocks)
	multi := 0
	for _, agg := range stocks {
		if len(agg.Categories) > 1 {
			multi++
		}
	}

	diversity := float64(multi) / float64(maxInt(unique, 1)) * 100
	coverage := float64(unique) / float64(maxInt(totalCandidates, 1)) * 100
	weightEff := coveredWeight / float64(maxInt(len(results), 1))
	performance := diversity*0.4 + coverage*0.3 + weightEff*100*0.3

	return contracts.AggregationMetrics{
		UniqueStocks:        unique,
		MultiCategoryStocks: multi,
		DiversityScore:      diversity,
		CoverageScore:       coverage,
		WeightEfficiency:    weightEff,
		PerformanceScore:    performance,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
