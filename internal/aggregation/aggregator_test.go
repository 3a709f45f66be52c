package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/pkg/logger"
)

func cand(symbol string, close float64) contracts.Candidate {
	return contracts.Candidate{Symbol: symbol, Name: symbol + " Ltd", Close: close, Source: "chartink"}
}

func query(category string, weight float64) contracts.ResolvedQuery {
	return contracts.ResolvedQuery{Category: category, Query: "q-" + category, Weight: weight, ExpectedResults: 30}
}

func TestAggregateWeightedScores(t *testing.T) {
	agg := New(logger.Nop())

	results := []CategoryResult{
		{Query: query("fundamental", 0.4), Candidates: []contracts.Candidate{cand("AAA", 100), cand("BBB", 200)}},
		{Query: query("momentum", 0.3), Candidates: []contracts.Candidate{cand("BBB", 201), cand("CCC", 300)}},
		{Query: query("value", 0.2), Candidates: nil},
		{Query: query("quality", 0.1), Candidates: nil},
	}

	out := agg.Aggregate(results, 10)

	require.Len(t, out.Stocks, 3)
	byScore := map[string]float64{}
	for _, s := range out.Stocks {
		byScore[s.Symbol] = s.TotalScore
	}
	assert.InDelta(t, 40.0, byScore["AAA"], 0.001)
	assert.InDelta(t, 70.0, byScore["BBB"], 0.001)
	assert.InDelta(t, 30.0, byScore["CCC"], 0.001)

	assert.Equal(t, 3, out.Metrics.UniqueStocks)
	assert.Equal(t, 1, out.Metrics.MultiCategoryStocks)
	assert.InDelta(t, 33.33, out.Metrics.DiversityScore, 0.01)

	// BBB is ranked first and keeps the first-seen display row
	assert.Equal(t, "BBB", out.Stocks[0].Symbol)
	assert.InDelta(t, 200.0, out.Stocks[0].Display.Close, 0.001)
	assert.Equal(t, 2, out.Stocks[0].Appearances)
	assert.True(t, out.Stocks[0].Categories["fundamental"])
	assert.True(t, out.Stocks[0].Categories["momentum"])
}

func TestAggregateOrderIndependentTotals(t *testing.T) {
	agg := New(logger.Nop())

	forward := []CategoryResult{
		{Query: query("fundamental", 0.4), Candidates: []contracts.Candidate{cand("AAA", 100), cand("BBB", 200)}},
		{Query: query("momentum", 0.3), Candidates: []contracts.Candidate{cand("BBB", 201), cand("CCC", 300)}},
	}
	reversed := []CategoryResult{forward[1], forward[0]}

	a := agg.Aggregate(forward, 10)
	b := agg.Aggregate(reversed, 10)

	require.Equal(t, len(a.Stocks), len(b.Stocks))
	for i := range a.Stocks {
		assert.Equal(t, a.Stocks[i].Symbol, b.Stocks[i].Symbol)
		assert.InDelta(t, a.Stocks[i].TotalScore, b.Stocks[i].TotalScore, 0.001)
	}
}

func TestAggregateDuplicateRowsCountOnce(t *testing.T) {
	agg := New(logger.Nop())

	// The screener can repeat a symbol within a single response; the
	// category's weight must still contribute only once.
	results := []CategoryResult{
		{Query: query("fundamental", 0.4), Candidates: []contracts.Candidate{cand("AAA", 100), cand("AAA", 100)}},
		{Query: query("momentum", 0.3), Candidates: []contracts.Candidate{cand("AAA", 101)}},
	}

	out := agg.Aggregate(results, 10)

	require.Len(t, out.Stocks, 1)
	aaa := out.Stocks[0]
	assert.InDelta(t, 70.0, aaa.TotalScore, 0.001)
	assert.Equal(t, 2, aaa.Appearances)
	assert.Len(t, aaa.Categories, 2)
}

func TestAggregateTieBreaksBySymbol(t *testing.T) {
	agg := New(logger.Nop())

	results := []CategoryResult{
		{Query: query("momentum", 0.5), Candidates: []contracts.Candidate{cand("ZZZ", 1), cand("AAA", 2), cand("MMM", 3)}},
	}

	out := agg.Aggregate(results, 10)

	require.Len(t, out.Stocks, 3)
	assert.Equal(t, "AAA", out.Stocks[0].Symbol)
	assert.Equal(t, "MMM", out.Stocks[1].Symbol)
	assert.Equal(t, "ZZZ", out.Stocks[2].Symbol)
}

func TestAggregateTopN(t *testing.T) {
	agg := New(logger.Nop())

	results := []CategoryResult{
		{Query: query("fundamental", 0.6), Candidates: []contracts.Candidate{cand("AAA", 1)}},
		{Query: query("momentum", 0.4), Candidates: []contracts.Candidate{cand("AAA", 1), cand("BBB", 2), cand("CCC", 3)}},
	}

	out := agg.Aggregate(results, 2)

	require.Len(t, out.Stocks, 2)
	assert.Equal(t, "AAA", out.Stocks[0].Symbol)
	assert.Equal(t, 4, out.TotalCandidates)
}

func TestAggregateEmpty(t *testing.T) {
	agg := New(logger.Nop())

	out := agg.Aggregate([]CategoryResult{
		{Query: query("fundamental", 0.6)},
		{Query: query("momentum", 0.4)},
	}, 10)

	assert.True(t, out.Empty())
	assert.Equal(t, 0, out.Metrics.UniqueStocks)
	assert.Zero(t, out.Metrics.PerformanceScore)
}

func TestAggregateMetricsFormulas(t *testing.T) {
	agg := New(logger.Nop())

	results := []CategoryResult{
		{Query: query("fundamental", 0.4), Candidates: []contracts.Candidate{cand("AAA", 1), cand("BBB", 2)}},
		{Query: query("momentum", 0.3), Candidates: []contracts.Candidate{cand("BBB", 2), cand("CCC", 3)}},
		{Query: query("value", 0.2), Candidates: nil},
		{Query: query("quality", 0.1), Candidates: nil},
	}

	m := agg.Aggregate(results, 10).Metrics

	// 1 of 3 symbols is multi-category, 3 unique of 4 rows seen,
	// 0.7 of 4 categories' weight produced rows
	assert.InDelta(t, 33.3333, m.DiversityScore, 0.01)
	assert.InDelta(t, 75.0, m.CoverageScore, 0.01)
	assert.InDelta(t, 0.175, m.WeightEfficiency, 0.0001)
	assert.InDelta(t, 33.3333*0.4+75.0*0.3+17.5*0.3, m.PerformanceScore, 0.01)
}
