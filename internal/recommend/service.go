package recommend

import (
	"context"
	"fmt"
	"sync"

	"github.com/sidkm/sift/internal/aggregation"
	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/internal/rerank"
	"github.com/sidkm/sift/internal/strategyconfig"
	"github.com/sidkm/sift/pkg/logger"
)

// Fetcher executes one resolved query against the external screener
type Fetcher interface {
	Fetch(ctx context.Context, query string, limit int) []contracts.Candidate
}

// SnapshotStore records completed scoring runs for later inspection.
// Optional: a nil store disables persistence.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap contracts.ScanSnapshot) error
	RecentSnapshots(ctx context.Context, strategy contracts.StrategyType, limit int) ([]contracts.ScanSnapshot, error)
}

// Request is one scoring request
type Request struct {
	Strategy    contracts.StrategyType `json:"strategy"`
	Version     string                 `json:"version,omitempty"`
	Combination contracts.Combination  `json:"combination,omitempty"`
	Limit       int                    `json:"limit,omitempty"`

	// MinScore is the filtering threshold. Nil falls back to the
	// catalog's configured default; the re-ranking engine itself never
	// reads the default.
	MinScore *float64 `json:"min_score,omitempty"`
}

// Service orchestrates one scoring request end to end: resolve the
// combination, fan out fetches, aggregate, re-rank.
type Service struct {
	store      *strategyconfig.Store
	fetcher    Fetcher
	aggregator *aggregation.Aggregator
	engine     *rerank.Engine
	snapshots  SnapshotStore
	logger     *logger.Logger
}

// New creates the scoring service. snapshots may be nil.
func New(store *strategyconfig.Store, fetcher Fetcher, agg *aggregation.Aggregator, engine *rerank.Engine, snapshots SnapshotStore, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		fetcher:    fetcher,
		aggregator: agg,
		engine:     engine,
		snapshots:  snapshots,
		logger:     log,
	}
}

const defaultLimit = 20

// GetRecommendations runs the full pipeline for one request.
// Validation problems come back as strategyconfig.ValidationErrors so
// the transport layer can map them to a 400-class response; a run
// where every category failed returns a well-formed set with an
// explicit error field, not an error.
func (s *Service) GetRecommendations(ctx context.Context, req Request) (*contracts.RecommendationSet, error) {
	resolved, err := s.store.Resolve(req.Strategy, req.Version, req.Combination)
	if err != nil {
		return nil, err
	}

	catalog, err := s.store.Catalog(req.Strategy, req.Version)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	minScore := catalog.Rerank.MinScoreDefault
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	results := s.fetchAll(ctx, resolved)

	agg := s.aggregator.Aggregate(results, limit)
	if agg.Empty() {
		s.logger.Warnf("No candidates for %s/%s across %d categories",
			req.Strategy, catalog.Meta.Version, len(resolved))
		return &contracts.RecommendationSet{
			Strategy:        req.Strategy,
			Recommendations: []contracts.RankedRecommendation{},
			Error:           "no candidates available from any category",
		}, nil
	}

	weights := make(map[string]float64, len(resolved))
	for _, q := range resolved {
		weights[q.Category] = q.Weight
	}

	recs, summary := s.engine.Rerank(ctx, agg, catalog.Rerank, weights, minScore)

	set := &contracts.RecommendationSet{
		Strategy:         req.Strategy,
		Recommendations:  recs,
		FilteringSummary: summary,
		Metrics:          agg.Metrics,
	}

	s.saveSnapshot(ctx, req, catalog, set)
	return set, nil
}

// fetchAll fans out one goroutine per resolved query. Results land at
// their resolution-order index, so concurrency never reorders the
// aggregation input; each fetch still serializes on the shared rate
// limiter inside the fetcher.
func (s *Service) fetchAll(ctx context.Context, resolved []contracts.ResolvedQuery) []aggregation.CategoryResult {
	results := make([]aggregation.CategoryResult, len(resolved))

	var wg sync.WaitGroup
	for i, q := range resolved {
		wg.Add(1)
		go func(i int, q contracts.ResolvedQuery) {
			defer wg.Done()
			results[i] = aggregation.CategoryResult{
				Query:      q,
				Candidates: s.fetcher.Fetch(ctx, q.Query, q.ExpectedResults),
			}
		}(i, q)
	}
	wg.Wait()

	return results
}

// ValidateCombination checks a combination without touching the
// external source
func (s *Service) ValidateCombination(strategy contracts.StrategyType, version string, comb contracts.Combination) (*strategyconfig.CombinationPreview, error) {
	return s.store.Preview(strategy, version, comb)
}

// RecentScans returns persisted snapshots for a strategy
func (s *Service) RecentScans(ctx context.Context, strategy contracts.StrategyType, limit int) ([]contracts.ScanSnapshot, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot persistence is not configured")
	}
	return s.snapshots.RecentSnapshots(ctx, strategy, limit)
}

func (s *Service) saveSnapshot(ctx context.Context, req Request, catalog *strategyconfig.Catalog, set *contracts.RecommendationSet) {
	if s.snapshots == nil {
		return
	}

	comb := req.Combination
	if len(comb) == 0 {
		comb = catalog.DefaultCombination
	}

	snap := contracts.ScanSnapshot{
		Strategy:        req.Strategy,
		Version:         catalog.Meta.Version,
		Combination:     comb,
		Metrics:         set.Metrics,
		Recommendations: set.Recommendations,
	}
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		// Persistence is best-effort; the caller already has the result
		s.logger.WithError(err).Warn("Failed to persist scan snapshot")
	}
}
