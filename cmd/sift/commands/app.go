package commands

import (
	"context"
	"fmt"

	"github.com/sidkm/sift/internal/abtest"
	"github.com/sidkm/sift/internal/aggregation"
	"github.com/sidkm/sift/internal/external/chartink"
	"github.com/sidkm/sift/internal/external/yahoo"
	"github.com/sidkm/sift/internal/recommend"
	"github.com/sidkm/sift/internal/rerank"
	"github.com/sidkm/sift/internal/strategyconfig"
	"github.com/sidkm/sift/pkg/config"
	"github.com/sidkm/sift/pkg/database"
	"github.com/sidkm/sift/pkg/httputil"
	"github.com/sidkm/sift/pkg/logger"
	"github.com/sidkm/sift/pkg/redis"
)

// app wires the pipeline components for the CLI commands. The
// database is optional: commands that can run without persistence
// pass requireDB=false and degrade to in-memory stores.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	store    *strategyconfig.Store
	chartink *chartink.Client
	yahoo    *yahoo.Client
	service  *recommend.Service
}

func newApp(requireDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyDir != "" {
		cfg.StrategyDir = strategyDir
	}

	log := logger.New(cfg)

	store, err := strategyconfig.LoadDir(cfg.StrategyDir)
	if err != nil {
		return nil, fmt.Errorf("load strategy catalogs: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rdb = redis.Disabled()
	}
	cache := redis.NewCache(rdb, "sift")

	var db *database.DB
	if requireDB {
		db, err = database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
	} else {
		if db, err = database.New(cfg); err != nil {
			log.WithError(err).Warn("Database unavailable, continuing without persistence")
			db = nil
		}
	}

	// The in-process limiter inside the screener client enforces the
	// minimum spacing; the Redis window caps the budget across processes.
	httpClient := httputil.NewWithTimeout(log, cfg.Chartink.Timeout).
		WithRateLimiter(redis.NewRateLimiter(rdb, "sift"), redis.ChartinkRateLimit)
	chartinkClient := chartink.NewClient(cfg, httpClient, cache, log)
	yahooClient := yahoo.NewClient(cfg, cache, log)

	engine := rerank.New(
		&rerank.YahooSentiment{Client: yahooClient},
		&rerank.YahooLiquidity{Client: yahooClient},
		log,
	)

	var snapshots recommend.SnapshotStore
	if db != nil {
		snapshots = recommend.NewPostgresSnapshots(db)
	}

	service := recommend.New(store, chartinkClient, aggregation.New(log), engine, snapshots, log)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    rdb,
		store:    store,
		chartink: chartinkClient,
		yahoo:    yahooClient,
		service:  service,
	}, nil
}

// abtestManager builds the A/B test manager on the best available store
func (a *app) abtestManager(ctx context.Context) (*abtest.Manager, error) {
	var store abtest.Store = abtest.NewMemoryStore()
	if a.db != nil {
		store = abtest.NewPostgresStore(a.db)
	}
	return abtest.NewManager(ctx, store, a.log)
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
