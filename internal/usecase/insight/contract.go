package insight

import (
	"context"
	"time"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
)

// Repository defines the storage contract for insights.
type Repository interface {
	Save(ctx context.Context, ins *dominsight.Insight) error
	Get(ctx context.Context, id string) (dominsight.Insight, error)
	Delete(ctx context.Context, id string) error
	IncrementUse(ctx context.Context, id string, now time.Time) error
	Nearest(ctx context.Context, vector []float32, k, numCandidates int, types ...string) ([]dominsight.Insight, error)
	ListAll(ctx context.Context) ([]dominsight.Insight, error)
}

// LearningStore keeps the derived learning aggregates.
type LearningStore interface {
	RecordInsight(ctx context.Context, ref dominsight.RecentRef) error
	RecordFeedback(ctx context.Context, toolID string, ref dominsight.FeedbackRef) error
	Daily(ctx context.Context, day string) (dominsight.DailyMetrics, error)
	Tool(ctx context.Context, toolID string) (dominsight.ToolMetrics, error)
}

// ToolReader looks up tools for usage statistics.
type ToolReader interface {
	Get(ctx context.Context, id string) (domtool.Tool, error)
}

// Judge is the part of the judgment provider used by the insight store.
type Judge interface {
	CheckQuality(ctx context.Context, content, insightType string) (domain.QualityVerdict, error)
	Rank(ctx context.Context, query string, kctx domain.KnowledgeContext, items []domain.RankCandidate) ([]domain.Ranking, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
