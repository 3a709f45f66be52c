package chartink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/pkg/redis"
)

// processResponse is the screener's process endpoint payload
type processResponse struct {
	Data []map[string]interface{} `json:"data"`
}

// Fetch runs a screener query and returns up to limit candidates.
// Failures never propagate to the caller: a source outage for one
// category must not take down the whole scoring run, so errors are
// logged and an empty slice comes back instead.
func (c *Client) Fetch(ctx context.Context, query string, limit int) []contracts.Candidate {
	cacheKey := redis.QueryKey(query, limit)
	if c.cache != nil {
		var cached []contracts.Candidate
		if found, _ := c.cache.Get(ctx, cacheKey, &cached); found {
			c.logger.Debugf("Screener cache hit: %d candidates", len(cached))
			return cached
		}
	}

	candidates, err := c.fetch(ctx, query, limit)
	if err != nil {
		c.logger.WithError(err).Warnf("Screener fetch failed, continuing without results")
		return nil
	}

	if c.cache != nil && len(candidates) > 0 {
		_ = c.cache.Set(ctx, cacheKey, candidates, c.cacheTTL)
	}

	c.logger.Infof("Screener returned %d candidates (first: %s)",
		len(candidates), firstSymbols(candidates, 3))
	return candidates
}

// FetchWaterfall tries queries in order until one yields at least
// minResults candidates, returning the best batch seen so far when
// none does. Used for categories with a relaxed fallback query.
func (c *Client) FetchWaterfall(ctx context.Context, queries []string, limit, minResults int) []contracts.Candidate {
	var best []contracts.Candidate
	for _, q := range queries {
		got := c.Fetch(ctx, q, limit)
		if len(got) >= minResults {
			return got
		}
		if len(got) > len(best) {
			best = got
		}
	}
	return best
}

func (c *Client) fetch(ctx context.Context, query string, limit int) ([]contracts.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.csrf(ctx)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}

	form := url.Values{}
	form.Set("scan_clause", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/screener/process", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Csrf-Token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("process query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == 419 {
		// Stale session, force a re-scrape on the next call
		c.invalidateCSRF()
		return nil, fmt.Errorf("session expired: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload processResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := make([]contracts.Candidate, 0, len(payload.Data))
	for _, row := range payload.Data {
		cand, err := contracts.NewCandidate(row, "chartink")
		if err != nil {
			c.logger.WithError(err).Debug("Skipping malformed screener row")
			continue
		}
		cand.QueryUsed = query
		candidates = append(candidates, cand)
		if limit > 0 && len(candidates) >= limit {
			break
		}
	}

	return candidates, nil
}

func firstSymbols(candidates []contracts.Candidate, n int) string {
	if len(candidates) == 0 {
		return "-"
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	symbols := make([]string, n)
	for i := 0; i < n; i++ {
		symbols[i] = candidates[i].Symbol
	}
	return strings.Join(symbols, ",")
}
