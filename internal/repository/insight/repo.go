package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/db"
	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
)

const listPageSize = 500

// store is the consumer interface for insights (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONNumIncrBy(ctx context.Context, key, path string, val int64) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores insights as JSON documents with a vector index over their embeddings.
type Repo struct {
	store     store
	keyPrefix string
	vectorDim int
	hnsw      HNSWConfig
	logger    *zap.Logger
}

// New creates an insight repository.
func New(s store, keyPrefix string, vectorDim int, logger *zap.Logger) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: keyPrefix + "insight:",
		vectorDim: vectorDim,
		hnsw:      HNSWConfig{M: 16, EFConstruct: 200},
		logger:    logger,
	}
}

// WithHNSW overrides the HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string {
	return strings.TrimSuffix(r.keyPrefix, ":") + "s:idx"
}

// EnsureIndex creates the insight index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	ok, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.IndexName(), err)
	}
	if ok {
		return nil
	}
	def, err := db.NewIndex(r.IndexName()).OnJSON().Prefix(r.keyPrefix).
		Text("$.content").As("content").
		Tag("$.type").As("type").
		Tag("$.metadata.tool_id").As("tool_id").
		Tag("$.metadata.tags[*]").As("tags").
		Numeric("$.metadata.created_at_unix").As("created_at").
		VectorHNSW("$.embedding", r.vectorDim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).As("vector").
		Build()
	if err != nil {
		return fmt.Errorf("build insight index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.IndexName(), err)
	}
	return nil
}

// Save writes the whole insight document (create or replace).
func (r *Repo) Save(ctx context.Context, ins *dominsight.Insight) error {
	key := r.key(ins.ID())
	data, err := json.Marshal(toDoc(ins))
	if err != nil {
		return fmt.Errorf("marshal insight: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns an insight by ID.
func (r *Repo) Get(ctx context.Context, id string) (dominsight.Insight, error) {
	key := r.key(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dominsight.Insight{}, domain.ErrInsightNotFound
		}
		return dominsight.Insight{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	doc, ok, err := decodeJSONGet(raw)
	if err != nil {
		return dominsight.Insight{}, err
	}
	if !ok {
		return dominsight.Insight{}, domain.ErrInsightNotFound
	}
	return doc.toDomain(), nil
}

// Delete removes an insight.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrInsightNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// IncrementUse bumps useCount by one and sets lastUsed, without rewriting the document.
func (r *Repo) IncrementUse(ctx context.Context, id string, now time.Time) error {
	key := r.key(id)
	if err := r.store.JSONNumIncrBy(ctx, key, "$.metadata.use_count", 1); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrInsightNotFound
		}
		return fmt.Errorf("json.numincrby %s: %w", key, err)
	}
	ts, err := json.Marshal(now.UTC())
	if err != nil {
		return fmt.Errorf("marshal last_used: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$.metadata.last_used", ts); err != nil {
		return fmt.Errorf("json.set %s last_used: %w", key, err)
	}
	return nil
}

// Nearest returns up to k insights closest to vector, best first, each annotated with
// its cosine similarity. numCandidates widens the HNSW search. types, when given,
// restricts results to those insight types.
func (r *Repo) Nearest(
	ctx context.Context, vector []float32, k, numCandidates int, types ...string,
) ([]dominsight.Insight, error) {
	var filters []db.TagFilter
	if len(types) > 0 {
		filters = []db.TagFilter{{Field: "type", Values: types}}
	}
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.IndexName(),
		Filters:      filters,
		Vector:       vector,
		K:            k,
		EFRuntime:    numCandidates,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn insights: %w", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	out := make([]dominsight.Insight, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		doc, err := decodeDoc(e.Fields["$"])
		if err != nil {
			r.logger.Warn("Skipping malformed insight hit", zap.String("key", e.Key), zap.Error(err))
			continue
		}
		doc.Embedding = nil
		if doc.ID == "" {
			doc.ID = strings.TrimPrefix(e.Key, r.keyPrefix)
		}
		out = append(out, doc.toDomain().WithScore(e.Score))
	}
	return out, nil
}

// ListAll returns every insight, newest first, without embeddings.
func (r *Repo) ListAll(ctx context.Context) ([]dominsight.Insight, error) {
	var out []dominsight.Insight
	for offset := 0; ; offset += listPageSize {
		sr, err := r.store.SearchList(ctx, r.IndexName(), "*", offset, listPageSize, []string{"$"})
		if err != nil {
			return nil, fmt.Errorf("search list insights: %w", err)
		}
		if sr == nil {
			break
		}
		for _, e := range sr.Entries {
			doc, err := decodeDoc(e.Fields["$"])
			if err != nil {
				r.logger.Warn("Skipping malformed insight document", zap.String("key", e.Key), zap.Error(err))
				continue
			}
			doc.Embedding = nil
			out = append(out, doc.toDomain())
		}
		if len(sr.Entries) < listPageSize || offset+listPageSize >= sr.Total {
			break
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Metadata().CreatedAt.After(out[b].Metadata().CreatedAt)
	})
	return out, nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + id
}
