package chartink

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/sidkm/sift/pkg/config"
	"github.com/sidkm/sift/pkg/httputil"
	"github.com/sidkm/sift/pkg/logger"
	"github.com/sidkm/sift/pkg/redis"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client handles communication with the Chartink screener.
// All screener traffic goes through this client: it owns the process-wide
// request pacing, the short-TTL query cache, and the session token, so
// concurrent scoring requests cannot race past the source's throttling.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cache      *redis.Cache
	baseURL    string
	cacheTTL   time.Duration

	// Minimum spacing between screener requests, shared across every
	// fetch in the process.
	limiter *rate.Limiter

	// Session token scraped from the dashboard page
	mu           sync.Mutex
	csrfToken    string
	csrfFetched  time.Time
	csrfLifetime time.Duration
}

// NewClient creates a new Chartink client
func NewClient(cfg *config.Config, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		logger:       log,
		cache:        cache,
		baseURL:      cfg.Chartink.BaseURL,
		cacheTTL:     cfg.Chartink.CacheTTL,
		limiter:      rate.NewLimiter(rate.Every(cfg.Chartink.MinInterval), 1),
		csrfLifetime: 10 * time.Minute,
	}
}

// csrf returns a usable session token, scraping the dashboard page when
// the cached one has aged out. The source rejects process calls without
// the token that matches its session cookie.
func (c *Client) csrf(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.csrfToken != "" && time.Since(c.csrfFetched) < c.csrfLifetime {
		return c.csrfToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/screener", nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch screener page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse screener page: %w", err)
	}

	token, ok := doc.Find(`meta[name="csrf-token"]`).Attr("content")
	if !ok || token == "" {
		return "", fmt.Errorf("csrf token not found in screener page")
	}

	c.csrfToken = token
	c.csrfFetched = time.Now()

	c.logger.Debug("Refreshed screener session token")
	return token, nil
}

// invalidateCSRF drops the cached token after an auth failure
func (c *Client) invalidateCSRF() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}
