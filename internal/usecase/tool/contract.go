package tool

import (
	"context"

	"github.com/kailas-cloud/toolsage/internal/domain"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
)

// Repository defines the storage contract for tools.
type Repository interface {
	Save(ctx context.Context, t *domtool.Tool) (bool, error)
	Get(ctx context.Context, id string) (domtool.Tool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]domtool.Tool, int, error)
}

// IndexEnsurer creates a search index when it is missing.
type IndexEnsurer interface {
	EnsureIndex(ctx context.Context) error
	IndexName() string
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
