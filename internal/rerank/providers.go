package rerank

import (
	"context"

	"github.com/sidkm/sift/internal/external/yahoo"
)

// SentimentProvider supplies the broad-market return used for the
// sentiment term. ok is false when no market data is available, in
// which case the term degrades to neutral.
type SentimentProvider interface {
	IndexReturn(ctx context.Context) (pct float64, ok bool)
}

// LiquidityProvider supplies an average traded volume per symbol.
// ok is false when the symbol's liquidity is unknown.
type LiquidityProvider interface {
	AvgVolume(ctx context.Context, symbol string) (volume float64, ok bool)
}

// YahooSentiment derives market sentiment from the configured index's
// recent return
type YahooSentiment struct {
	Client *yahoo.Client
}

func (y *YahooSentiment) IndexReturn(ctx context.Context) (float64, bool) {
	bars := y.Client.IndexHistory(ctx)
	if len(bars) < 2 || bars[0].Close == 0 {
		return 0, false
	}
	first, last := bars[0].Close, bars[len(bars)-1].Close
	return (last - first) / first * 100, true
}

// YahooLiquidity uses the three-month average volume from the market
// quote
type YahooLiquidity struct {
	Client *yahoo.Client
}

func (y *YahooLiquidity) AvgVolume(ctx context.Context, symbol string) (float64, bool) {
	q := y.Client.Quote(ctx, symbol+".NS")
	if q == nil || q.AvgVolume3M <= 0 {
		return 0, false
	}
	return float64(q.AvgVolume3M), true
}

// StaticSentiment is a fixed-value provider for tests and offline runs
type StaticSentiment struct {
	Return    float64
	Available bool
}

func (s StaticSentiment) IndexReturn(context.Context) (float64, bool) {
	return s.Return, s.Available
}

// StaticLiquidity serves volumes from a fixed map
type StaticLiquidity struct {
	Volumes map[string]float64
}

func (s StaticLiquidity) AvgVolume(_ context.Context, symbol string) (float64, bool) {
	v, ok := s.Volumes[symbol]
	return v, ok
}
