package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/internal/strategyconfig"
	"github.com/sidkm/sift/pkg/logger"
)

func testRerankConfig() strategyconfig.Rerank {
	return strategyconfig.Rerank{
		FundamentalWeight: 1.0,
		TechnicalWeight:   0.5,
		QualityWeight:     0.3,
		SectorWeight:      1.0,
		SentimentWeight:   1.0,
		LiquidityWeight:   1.0,
		SectorBonus:       5.0,
		SentimentScale:    2.0,
		FavoredSectors:    []string{"Banking", "IT"},
		MinScoreDefault:   45,
	}
}

func aggStock(symbol, sector string, score float64, volume int64, categories ...string) contracts.AggregatedStock {
	cats := make(map[string]bool, len(categories))
	for _, c := range categories {
		cats[c] = true
	}
	first := ""
	if len(categories) > 0 {
		first = categories[0]
	}
	return contracts.AggregatedStock{
		Symbol:        symbol,
		TotalScore:    score,
		Appearances:   len(categories),
		Categories:    cats,
		FirstCategory: first,
		Display: contracts.Candidate{
			Symbol: symbol,
			Name:   symbol + " Ltd",
			Sector: sector,
			Close:  100,
			Volume: volume,
			PerChg: 1.0,
		},
	}
}

func newTestEngine(sentiment SentimentProvider) *Engine {
	return New(sentiment, StaticLiquidity{Volumes: map[string]float64{}}, logger.Nop())
}

func TestRerankScoreClamped(t *testing.T) {
	weights := map[string]float64{"momentum": 1.0}

	cases := []struct {
		name      string
		sentiment float64
		base      float64
	}{
		{"huge positive sentiment", 1e6, 90},
		{"huge negative sentiment", -1e6, 90},
		{"zero base", 0, 0},
		{"oversized base", 0, 1e6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestEngine(StaticSentiment{Return: tc.sentiment, Available: true})
			agg := contracts.AggregationResult{
				Stocks: []contracts.AggregatedStock{aggStock("XXX", "IT", tc.base, 2_000_000, "momentum")},
			}
			recs, _ := engine.Rerank(context.Background(), agg, testRerankConfig(), weights, 0)
			for _, r := range recs {
				assert.GreaterOrEqual(t, r.FinalScore, 0.0)
				assert.LessOrEqual(t, r.FinalScore, 100.0)
			}
		})
	}
}

func TestRerankThresholdFiltering(t *testing.T) {
	engine := newTestEngine(StaticSentiment{Available: false})
	weights := map[string]float64{"fundamental": 0.4}

	agg := contracts.AggregationResult{
		Stocks: []contracts.AggregatedStock{
			aggStock("HIGH", "", 100, 0, "fundamental"),
			aggStock("LOW", "", 10, 0, "fundamental"),
		},
	}

	minScore := 20.0
	recs, summary := engine.Rerank(context.Background(), agg, testRerankConfig(), weights, minScore)

	for _, r := range recs {
		assert.GreaterOrEqual(t, r.FinalScore, minScore)
	}
	assert.Equal(t, 2, summary.CandidatesIn)
	assert.Equal(t, len(recs), summary.CandidatesOut)
	assert.Equal(t, 2-len(recs), summary.Dropped)
	assert.Equal(t, minScore, summary.MinScore)
}

func TestRerankSectorBonus(t *testing.T) {
	engine := newTestEngine(StaticSentiment{Available: false})
	weights := map[string]float64{"momentum": 0.5}

	agg := contracts.AggregationResult{
		Stocks: []contracts.AggregatedStock{
			aggStock("FAV", "Banking", 50, 0, "momentum"),
			aggStock("OTH", "Textiles", 50, 0, "momentum"),
		},
	}

	recs, _ := engine.Rerank(context.Background(), agg, testRerankConfig(), weights, 0)
	require.Len(t, recs, 2)

	byScore := map[string]float64{}
	for _, r := range recs {
		byScore[r.Symbol] = r.FinalScore
	}
	// Favored sector adds sector_bonus * sector_weight * technical_weight
	assert.InDelta(t, 5.0*1.0*0.5, byScore["FAV"]-byScore["OTH"], 0.001)
	assert.Equal(t, "FAV", recs[0].Symbol)
}

func TestRerankSentimentUnavailableIsNeutral(t *testing.T) {
	weights := map[string]float64{"momentum": 0.5}
	agg := contracts.AggregationResult{
		Stocks: []contracts.AggregatedStock{aggStock("AAA", "", 60, 0, "momentum")},
	}

	withNeutral, _ := newTestEngine(StaticSentiment{Available: false}).
		Rerank(context.Background(), agg, testRerankConfig(), weights, 0)
	withZero, _ := newTestEngine(StaticSentiment{Return: 0, Available: true}).
		Rerank(context.Background(), agg, testRerankConfig(), weights, 0)

	require.Len(t, withNeutral, 1)
	require.Len(t, withZero, 1)
	assert.InDelta(t, withZero[0].FinalScore, withNeutral[0].FinalScore, 0.001)
}

func TestRerankLiquidityTiers(t *testing.T) {
	assert.Equal(t, highVolumeBonus, liquidityBonus(5_000_000))
	assert.Equal(t, mediumVolumeBonus, liquidityBonus(500_000))
	assert.Equal(t, lowVolumeBonus, liquidityBonus(50_000))
	assert.Zero(t, liquidityBonus(0))
}

func TestRerankLabels(t *testing.T) {
	engine := newTestEngine(StaticSentiment{Available: false})
	weights := map[string]float64{"momentum": 1.0}

	agg := contracts.AggregationResult{
		Stocks: []contracts.AggregatedStock{aggStock("AAA", "", 90, 0, "momentum")},
	}

	recs, _ := engine.Rerank(context.Background(), agg, testRerankConfig(), weights, 45)
	require.Len(t, recs, 1)

	// base 90, weight 1.0: final = 90*1.0 + 0*0.5 + 9*0.3 = 92.7
	assert.InDelta(t, 92.7, recs[0].FinalScore, 0.001)
	assert.Equal(t, contracts.LabelStrongBuy, recs[0].Recommendation)
	assert.Equal(t, "Low", recs[0].RiskLevel)
	assert.Greater(t, recs[0].TargetPrice, recs[0].Close)
}
