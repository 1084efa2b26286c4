// Package rerank orders insights by the judge's contextual relevance.
package rerank

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
)

// DefaultMinRelevance is the cut-off for contextual relevance: items must score above it.
const DefaultMinRelevance = 0.6

// Ranker is the part of the judge used for contextual reranking.
type Ranker interface {
	Rank(ctx context.Context, query string, kctx domain.KnowledgeContext, items []domain.RankCandidate) ([]domain.Ranking, error)
}

// Apply attaches judge rankings to items. Indices are 1-based; out-of-range and repeated
// indices are ignored. Relevance is clamped to [0,1] and items at or below minRelevance
// are dropped. The rest are sorted by relevance, highest first, ties in input order.
func Apply(items []dominsight.Insight, rankings []domain.Ranking, minRelevance float64) []dominsight.Insight {
	used := make(map[int]bool, len(rankings))
	out := make([]dominsight.Insight, 0, len(rankings))
	for _, r := range rankings {
		idx := r.Index - 1
		if idx < 0 || idx >= len(items) || used[idx] {
			continue
		}
		used[idx] = true

		rel := domain.Clamp01(r.Relevance)
		if rel <= minRelevance {
			continue
		}
		out = append(out, items[idx].WithRelevance(rel, r.Reason))
	}

	slices.SortStableFunc(out, func(a, b dominsight.Insight) int {
		ra, _ := a.ContextualRelevance()
		rb, _ := b.ContextualRelevance()
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Rerank asks the judge to score items against query and context and applies the result.
// ranked is false when the judge failed; callers fall back to their own ordering.
func Rerank(
	ctx context.Context, judge Ranker, query string, kctx domain.KnowledgeContext,
	items []dominsight.Insight, minRelevance float64,
) ([]dominsight.Insight, bool, error) {
	if len(items) == 0 {
		return items, false, nil
	}

	candidates := make([]domain.RankCandidate, len(items))
	for i := range items {
		candidates[i] = domain.RankCandidate{Type: items[i].Type(), Content: items[i].Content()}
	}

	rankings, err := judge.Rank(ctx, query, kctx, candidates)
	if err != nil {
		return items, false, fmt.Errorf("rank insights: %w", err)
	}
	return Apply(items, rankings, minRelevance), true, nil
}
