package knowledge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
	"github.com/kailas-cloud/toolsage/internal/usecase/rerank"
)

// Stage sizing.
const (
	mainK             = 10
	mainCandidates    = 20
	conceptK          = 5
	conceptCandidates = 10
	maxConcepts       = 5
	contextMessages   = 2
)

// DefaultMinRelevance is the rerank cut-off used when none is configured.
const DefaultMinRelevance = rerank.DefaultMinRelevance

// Service retrieves insights in two stages: the raw query and judge-extracted concepts.
type Service struct {
	repo         Repository
	judge        Judge
	embed        Embedder
	minRelevance float64
	logger       *zap.Logger
}

// New creates a knowledge retriever. minRelevance is the rerank cut-off (exclusive).
func New(repo Repository, judge Judge, embed Embedder, minRelevance float64, logger *zap.Logger) *Service {
	return &Service{repo: repo, judge: judge, embed: embed, minRelevance: minRelevance, logger: logger}
}

// FindRelevantKnowledge returns insights relevant to query in the light of kctx.
// Concept extraction, concept lookups and reranking degrade gracefully; the main
// embedding and lookup do not.
func (s *Service) FindRelevantKnowledge(
	ctx context.Context, query string, kctx domain.KnowledgeContext,
) ([]dominsight.Insight, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("query", "is required")
	}

	mainEmb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	concepts := s.concepts(ctx, query, kctx)
	vectors := s.embedConcepts(ctx, concepts)

	// Index 0 is the main stage, then one slot per concept in concept order.
	sets := make([][]dominsight.Insight, 1+len(concepts))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.repo.Nearest(gctx, mainEmb.Embedding, mainK, mainCandidates)
		if err != nil {
			return fmt.Errorf("main stage search: %w", err)
		}
		sets[0] = hits
		return nil
	})
	for i, c := range concepts {
		if vectors[i] == nil {
			continue
		}
		g.Go(func() error {
			hits, err := s.repo.Nearest(gctx, vectors[i], conceptK, conceptCandidates)
			if err != nil {
				s.logger.Warn("Concept search failed", zap.String("concept", c), zap.Error(err))
				return nil
			}
			tagged := make([]dominsight.Insight, len(hits))
			for j := range hits {
				tagged[j] = hits[j].WithMatchedConcept(c)
			}
			sets[i+1] = tagged
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // main stage wraps its own error
	}

	merged := union(sets)
	if len(merged) == 0 {
		return merged, nil
	}

	ranked, ok, err := rerank.Rerank(ctx, s.judge, query, kctx, merged, s.minRelevance)
	if err != nil {
		s.logger.Warn("Rerank failed, returning unranked union", zap.Error(err))
	}
	if !ok {
		return merged, nil
	}

	s.logger.Debug("Knowledge retrieved",
		zap.Int("concepts", len(concepts)),
		zap.Int("candidates", len(merged)),
		zap.Int("results", len(ranked)),
	)
	return ranked, nil
}

// concepts asks the judge for key concepts. Failures yield none.
func (s *Service) concepts(ctx context.Context, query string, kctx domain.KnowledgeContext) []string {
	raw, err := s.judge.ExtractConcepts(ctx, query, kctx.LastMessages(contextMessages))
	if err != nil {
		s.logger.Warn("Concept extraction failed, using main stage only", zap.Error(err))
		return nil
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, min(len(raw), maxConcepts))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
		if len(out) == maxConcepts {
			break
		}
	}
	return out
}

// embedConcepts vectorizes concepts in parallel. A failed concept gets a nil vector.
func (s *Service) embedConcepts(ctx context.Context, concepts []string) [][]float32 {
	vectors := make([][]float32, len(concepts))
	var g errgroup.Group
	for i, c := range concepts {
		g.Go(func() error {
			emb, err := s.embed.Embed(ctx, c)
			if err != nil {
				s.logger.Warn("Concept embedding failed", zap.String("concept", c), zap.Error(err))
				return nil
			}
			vectors[i] = emb.Embedding
			return nil
		})
	}
	_ = g.Wait()
	return vectors
}

// union merges result sets by id. A later set overwrites an earlier entry for the
// same id; iteration keeps first-insertion order.
func union(sets [][]dominsight.Insight) []dominsight.Insight {
	index := make(map[string]int)
	var out []dominsight.Insight
	for _, set := range sets {
		for _, ins := range set {
			if i, ok := index[ins.ID()]; ok {
				out[i] = ins
				continue
			}
			index[ins.ID()] = len(out)
			out = append(out, ins)
		}
	}
	return out
}
