package knowledge

import (
	"context"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
)

// Repository is the vector lookup over stored insights.
type Repository interface {
	Nearest(ctx context.Context, vector []float32, k, numCandidates int, types ...string) ([]dominsight.Insight, error)
}

// Judge extracts concepts and ranks candidates against a conversation.
type Judge interface {
	ExtractConcepts(ctx context.Context, query string, recent []domain.Message) ([]string, error)
	Rank(ctx context.Context, query string, kctx domain.KnowledgeContext, items []domain.RankCandidate) ([]domain.Ranking, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
