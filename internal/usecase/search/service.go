package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/toolsage/internal/domain/search/filter"
	"github.com/kailas-cloud/toolsage/internal/domain/search/mode"
	"github.com/kailas-cloud/toolsage/internal/domain/search/request"
	"github.com/kailas-cloud/toolsage/internal/domain/search/result"
	"github.com/kailas-cloud/toolsage/internal/metrics"
)

// Vector query sizing.
const (
	minKNNLimit      = 50
	minNumCandidates = 100
)

// Weights are the per-source merge weights.
type Weights struct {
	Semantic float64
	Keyword  float64
}

// DefaultWeights favors semantic matches.
var DefaultWeights = Weights{Semantic: 0.6, Keyword: 0.4}

// Service handles tool search across semantic, keyword, and hybrid modes.
type Service struct {
	repo    Repository
	embed   Embedder
	weights Weights
	logger  *zap.Logger
}

// New creates a search service.
func New(repo Repository, embed Embedder, w Weights, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, weights: w, logger: logger}
}

// Search executes a tool search. Results are ordered by descending score,
// carry no duplicate ids and have score >= the request threshold.
// Provider and index failures are returned, never turned into an empty list.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	start := time.Now()

	var (
		results []result.Result
		err     error
	)
	switch req.Mode() {
	case mode.Semantic:
		results, err = s.searchSemantic(ctx, req.Query(), req.Filter(), req.Limit())
	case mode.Keyword:
		results, err = s.searchKeyword(ctx, ExtractKeywords(req.Query()), req.Filter(), req.Limit())
		results = normalize(results, result.SourceKeyword)
	case mode.Hybrid:
		results, err = s.searchHybrid(ctx, req)
	default:
		err = fmt.Errorf("unsupported search mode: %s", req.Mode())
	}

	metrics.SearchDuration.WithLabelValues(string(req.Mode())).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "error").Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "success").Inc()

	// Post-filter: threshold
	filtered := results[:0]
	for _, r := range results {
		if r.Score() >= req.Threshold() {
			filtered = append(filtered, r)
		}
	}
	results = filtered

	if len(results) > req.Limit() {
		results = results[:req.Limit()]
	}

	s.logger.Debug("Tool search completed",
		zap.String("mode", string(req.Mode())),
		zap.Int("limit", req.Limit()),
		zap.Float64("threshold", req.Threshold()),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// searchSemantic embeds the cleaned query and runs one over-fetching KNN query.
// The filter is applied after retrieval, then scores are normalized and cut to limit.
func (s *Service) searchSemantic(
	ctx context.Context, query string, f filter.Filter, limit int,
) ([]result.Result, error) {
	emb, err := s.embed.Embed(ctx, cleanQuery(query))
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	k := max(limit*2, minKNNLimit)
	ef := max(limit*4, minNumCandidates)

	hits, err := s.repo.SearchKNN(ctx, unitVector(emb.Embedding), k, ef)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	if !f.IsEmpty() {
		kept := hits[:0]
		for _, h := range hits {
			if f.Matches(h) {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	hits = normalize(hits, result.SourceSemantic)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// searchKeyword runs one fuzzy text query. No keywords means no lexical matches.
func (s *Service) searchKeyword(
	ctx context.Context, keywords []string, f filter.Filter, limit int,
) ([]result.Result, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	hits, err := s.repo.SearchText(ctx, keywords, f, limit)
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}
	return hits, nil
}

// searchHybrid runs both branches concurrently, each fetching 2*limit, and merges them.
func (s *Service) searchHybrid(ctx context.Context, req *request.Request) ([]result.Result, error) {
	fetch := req.Limit() * 2
	var semantic, keyword []result.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semantic, err = s.searchSemantic(gctx, req.Query(), req.Filter(), fetch)
		return err
	})
	g.Go(func() error {
		var err error
		keyword, err = s.searchKeyword(gctx, ExtractKeywords(req.Query()), req.Filter(), fetch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // branches wrap their own errors
	}

	return Merge([]WeightedSet{
		{Source: result.SourceSemantic, Weight: s.weights.Semantic, Results: semantic},
		{Source: result.SourceKeyword, Weight: s.weights.Keyword, Results: keyword},
	}, req.Limit()), nil
}

// unitVector scales v to unit length. A zero vector is returned unchanged.
func unitVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
