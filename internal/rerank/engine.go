package rerank

import (
	"context"
	"math"
	"sort"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/internal/strategyconfig"
	"github.com/sidkm/sift/pkg/logger"
)

// Liquidity tier bonuses by average daily volume
const (
	highVolumeFloor   = 1_000_000
	mediumVolumeFloor = 100_000

	highVolumeBonus   = 10.0
	mediumVolumeBonus = 6.0
	lowVolumeBonus    = 3.0
)

// Engine adjusts aggregated base scores with secondary signals and
// produces the final ranked list
type Engine struct {
	sentiment SentimentProvider
	liquidity LiquidityProvider
	logger    *logger.Logger
}

// New creates a new re-ranking engine
func New(sentiment SentimentProvider, liquidity LiquidityProvider, log *logger.Logger) *Engine {
	return &Engine{sentiment: sentiment, liquidity: liquidity, logger: log}
}

// Rerank scores every aggregated stock against the catalog's rerank
// weights, drops those below minScore, and returns the survivors
// sorted by final score. minScore is always the caller's value, never
// the config default.
func (e *Engine) Rerank(ctx context.Context, agg contracts.AggregationResult, cfg strategyconfig.Rerank, weights map[string]float64, minScore float64) ([]contracts.RankedRecommendation, contracts.FilteringSummary) {
	indexReturn, sentimentOK := e.sentiment.IndexReturn(ctx)
	if !sentimentOK {
		e.logger.Warn("Market sentiment unavailable, using neutral contribution")
	}

	favored := make(map[string]bool, len(cfg.FavoredSectors))
	for _, s := range cfg.FavoredSectors {
		favored[s] = true
	}

	recs := make([]contracts.RankedRecommendation, 0, len(agg.Stocks))
	dropped := 0

	for _, stock := range agg.Stocks {
		base := stock.TotalScore
		weightedBase := base * sourceWeight(stock, weights)

		rerankScore := e.rerankScore(ctx, stock, cfg, favored, indexReturn, sentimentOK)

		final := weightedBase*cfg.FundamentalWeight +
			rerankScore*cfg.TechnicalWeight +
			base*0.1*cfg.QualityWeight
		final = clamp(final, 0, 100)

		if final < minScore {
			dropped++
			continue
		}

		recs = append(recs, contracts.RankedRecommendation{
			Symbol:         stock.Symbol,
			Name:           stock.Display.Name,
			FinalScore:     final,
			BaseScore:      base,
			RerankingScore: rerankScore,
			Recommendation: contracts.RecommendationLabel(final, minScore),
			TargetPrice:    targetPrice(stock.Display.Close, final),
			RiskLevel:      riskLevel(stock.Display.PerChg),
			Sector:         stock.Display.Sector,
			Close:          stock.Display.Close,
			Volume:         stock.Display.Volume,
			PerChg:         stock.Display.PerChg,
			Categories:     categoryNames(stock),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].FinalScore != recs[j].FinalScore {
			return recs[i].FinalScore > recs[j].FinalScore
		}
		return recs[i].Symbol < recs[j].Symbol
	})

	summary := contracts.FilteringSummary{
		CandidatesIn:  len(agg.Stocks),
		CandidatesOut: len(recs),
		MinScore:      minScore,
		Dropped:       dropped,
	}

	e.logger.Infof("Re-ranked %d stocks, %d passed threshold %.1f",
		len(agg.Stocks), len(recs), minScore)

	return recs, summary
}

// rerankScore combines the sector, sentiment, and liquidity terms.
// Each unavailable signal contributes zero rather than failing the
// candidate.
func (e *Engine) rerankScore(ctx context.Context, stock contracts.AggregatedStock, cfg strategyconfig.Rerank, favored map[string]bool, indexReturn float64, sentimentOK bool) float64 {
	score := 0.0

	if favored[stock.Display.Sector] {
		score += cfg.SectorBonus * cfg.SectorWeight
	}

	if sentimentOK {
		score += indexReturn * cfg.SentimentScale * cfg.SentimentWeight
	}

	if vol, ok := e.liquidity.AvgVolume(ctx, stock.Symbol); ok {
		score += liquidityBonus(vol) * cfg.LiquidityWeight
	} else if stock.Display.Volume > 0 {
		// Fall back to the screener row's own volume
		score += liquidityBonus(float64(stock.Display.Volume)) * cfg.LiquidityWeight
	}

	return score
}

// sourceWeight is the category weight of the query that first
// surfaced this symbol
func sourceWeight(stock contracts.AggregatedStock, weights map[string]float64) float64 {
	if w, ok := weights[stock.FirstCategory]; ok && w > 0 {
		return w
	}
	// Highest weight among its categories when provenance is unclear
	best := 0.0
	for category := range stock.Categories {
		if w := weights[category]; w > best {
			best = w
		}
	}
	if best == 0 {
		return 1.0
	}
	return best
}

func liquidityBonus(avgVolume float64) float64 {
	switch {
	case avgVolume >= highVolumeFloor:
		return highVolumeBonus
	case avgVolume >= mediumVolumeFloor:
		return mediumVolumeBonus
	case avgVolume > 0:
		return lowVolumeBonus
	default:
		return 0
	}
}

func targetPrice(close, finalScore float64) float64 {
	if close <= 0 {
		return 0
	}
	// Upside proportional to conviction, capped at 10%
	return math.Round(close*(1+finalScore/1000)*100) / 100
}

func riskLevel(perChg float64) string {
	switch {
	case math.Abs(perChg) > 5:
		return "High"
	case math.Abs(perChg) > 2:
		return "Medium"
	default:
		return "Low"
	}
}

func categoryNames(stock contracts.AggregatedStock) []string {
	names := make([]string, 0, len(stock.Categories))
	for c := range stock.Categories {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
