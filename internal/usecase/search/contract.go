package search

import (
	"context"

	"github.com/kailas-cloud/toolsage/internal/domain"
	"github.com/kailas-cloud/toolsage/internal/domain/search/filter"
	"github.com/kailas-cloud/toolsage/internal/domain/search/result"
)

// Repository defines the storage contract for tool search.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, k, efRuntime int) ([]result.Result, error)
	SearchText(ctx context.Context, terms []string, f filter.Filter, topK int) ([]result.Result, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
