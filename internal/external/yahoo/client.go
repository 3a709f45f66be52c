package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"golang.org/x/time/rate"

	"github.com/sidkm/sift/pkg/config"
	"github.com/sidkm/sift/pkg/logger"
	"github.com/sidkm/sift/pkg/redis"
)

// Bar is one daily candle
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int       `json:"volume"`
}

// Quote is the subset of the market quote the pipeline cares about
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Volume        int     `json:"volume"`
	AvgVolume3M   int     `json:"avg_volume_3m"`
	ChangePercent float64 `json:"change_percent"`
}

// Client fetches market history and quotes from Yahoo Finance.
// Like the screener client it degrades instead of failing: re-ranking
// falls back to neutral inputs when history is unavailable.
type Client struct {
	logger      *logger.Logger
	cache       *redis.Cache
	indexSymbol string
	historyDays int
	limiter     *rate.Limiter
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg *config.Config, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		logger:      log,
		cache:       cache,
		indexSymbol: cfg.Yahoo.IndexSymbol,
		historyDays: cfg.Yahoo.HistoryDays,
		limiter:     rate.NewLimiter(rate.Limit(1), 2),
	}
}

// History returns up to historyDays of daily bars for symbol, oldest
// first. Returns an empty slice with a warning on any failure.
func (c *Client) History(ctx context.Context, symbol string) []Bar {
	cacheKey := redis.HistoryKey(symbol, c.historyDays)
	if c.cache != nil {
		var cached []Bar
		if found, _ := c.cache.Get(ctx, cacheKey, &cached); found {
			return cached
		}
	}

	bars, err := c.history(ctx, symbol)
	if err != nil {
		c.logger.WithError(err).Warnf("History fetch failed for %s, continuing without bars", symbol)
		return nil
	}

	if c.cache != nil && len(bars) > 0 {
		_ = c.cache.Set(ctx, cacheKey, bars, redis.TTLHistory)
	}
	return bars
}

// IndexHistory returns daily bars for the configured market index
func (c *Client) IndexHistory(ctx context.Context) []Bar {
	return c.History(ctx, c.indexSymbol)
}

// IndexChangePercent returns the index move over the history window as
// a percentage, or 0 when no history is available.
func (c *Client) IndexChangePercent(ctx context.Context) float64 {
	bars := c.IndexHistory(ctx)
	if len(bars) < 2 {
		return 0
	}
	first, last := bars[0].Close, bars[len(bars)-1].Close
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// Quote returns the current market quote for symbol, nil on failure
func (c *Client) Quote(ctx context.Context, symbol string) *Quote {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	q, err := quote.Get(symbol)
	if err != nil || q == nil {
		c.logger.WithError(err).Warnf("Quote fetch failed for %s", symbol)
		return nil
	}

	return &Quote{
		Symbol:        q.Symbol,
		Price:         q.RegularMarketPrice,
		Volume:        q.RegularMarketVolume,
		AvgVolume3M:   q.AverageDailyVolume3Month,
		ChangePercent: q.RegularMarketChangePercent,
	}
}

func (c *Client) history(ctx context.Context, symbol string) ([]Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -c.historyDays)

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Interval: datetime.OneDay,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
	})

	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		close, _ := b.AdjClose.Float64()
		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		bars = append(bars, Bar{
			Date:   time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: b.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("chart iterator: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars returned for %s", symbol)
	}

	return bars, nil
}
