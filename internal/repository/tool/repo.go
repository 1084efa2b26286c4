package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/db"
	"github.com/kailas-cloud/toolsage/internal/domain"
	"github.com/kailas-cloud/toolsage/internal/domain/search/filter"
	"github.com/kailas-cloud/toolsage/internal/domain/search/mode"
	"github.com/kailas-cloud/toolsage/internal/domain/search/result"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
)

// MaxEdits is the Levenshtein distance allowed per keyword.
const MaxEdits = 2

// store is the consumer interface for tools (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo stores tools as JSON documents and searches them through one FT index.
type Repo struct {
	store     store
	keyPrefix string
	vectorDim int
	hnsw      HNSWConfig
	logger    *zap.Logger
}

// New creates a tool repository. keyPrefix is the global storage prefix (e.g. "toolsage:").
func New(s store, keyPrefix string, vectorDim int, logger *zap.Logger) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: keyPrefix + "tool:",
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

// EnsureIndex creates the tool index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	ok, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.IndexName(), err)
	}
	if ok {
		return nil
	}
	def, err := buildIndex(r.IndexName(), r.keyPrefix, r.vectorDim, r.hnsw)
	if err != nil {
		return fmt.Errorf("build tool index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.IndexName(), err)
	}
	return nil
}

// Save creates or replaces a tool. Returns true if created.
func (r *Repo) Save(ctx context.Context, t *domtool.Tool) (bool, error) {
	key := r.key(t.ID())
	data, err := json.Marshal(toDoc(t))
	if err != nil {
		return false, fmt.Errorf("marshal tool: %w", err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}
	return !exists, nil
}

// Get returns a tool by ID.
func (r *Repo) Get(ctx context.Context, id string) (domtool.Tool, error) {
	key := r.key(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domtool.Tool{}, domain.ErrToolNotFound
		}
		return domtool.Tool{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	doc, ok, err := decodeJSONGet(raw)
	if err != nil {
		return domtool.Tool{}, err
	}
	if !ok {
		return domtool.Tool{}, domain.ErrToolNotFound
	}
	return doc.toDomain(), nil
}

// Delete removes a tool.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrToolNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List returns a page of tools and the total count. Embeddings are dropped.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]domtool.Tool, int, error) {
	sr, err := r.store.SearchList(ctx, r.IndexName(), "*", offset, limit, []string{"$"})
	if err != nil {
		return nil, 0, fmt.Errorf("search list tools: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, 0, nil
	}

	tools := make([]domtool.Tool, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		doc, err := decodeDoc(e.Fields["$"])
		if err != nil {
			r.logger.Warn("Skipping malformed tool document", zap.String("key", e.Key), zap.Error(err))
			continue
		}
		doc.Embedding = nil
		tools = append(tools, doc.toDomain())
	}
	return tools, sr.Total, nil
}

// SearchKNN returns the k nearest tools by cosine similarity in [0,1], best first.
// efRuntime widens the HNSW candidate list (numCandidates).
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k, efRuntime int) ([]result.Result, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.IndexName(),
		Vector:       vector,
		K:            k,
		EFRuntime:    efRuntime,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn tools: %w", err)
	}
	return r.toResults(sr, mode.Semantic, nil), nil
}

// SearchText runs one fuzzy keyword query (edit distance MaxEdits, first character fixed)
// across name, description, tags and use cases. The filter is applied as an index pre-filter.
// Scores are raw BM25 values.
func (r *Repo) SearchText(ctx context.Context, terms []string, f filter.Filter, topK int) ([]result.Result, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    r.IndexName(),
		Terms:        terms,
		Fields:       keywordFields,
		MaxEdits:     MaxEdits,
		Filters:      tagFilters(f),
		TopK:         topK,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("search text tools: %w", err)
	}
	return r.toResults(sr, mode.Keyword, terms), nil
}

// toResults decodes hits. When terms is non-nil, hits failing the prefix check are dropped.
func (r *Repo) toResults(sr *db.SearchResult, m mode.Mode, terms []string) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	out := make([]result.Result, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		doc, err := decodeDoc(e.Fields["$"])
		if err != nil {
			r.logger.Warn("Skipping malformed tool hit", zap.String("key", e.Key), zap.Error(err))
			continue
		}
		if terms != nil && !prefixMatches(doc.searchableText(), terms, MaxEdits) {
			continue
		}
		id := doc.ID
		if id == "" {
			id = strings.TrimPrefix(e.Key, r.keyPrefix)
		}
		out = append(out, result.New(id, e.Score, doc.payload(), m))
	}
	return out
}

func tagFilters(f filter.Filter) []db.TagFilter {
	var out []db.TagFilter
	if f.Type() != "" {
		out = append(out, db.TagFilter{Field: fieldType, Values: []string{f.Type()}})
	}
	if f.Pricing() != "" {
		out = append(out, db.TagFilter{Field: fieldPricing, Values: []string{f.Pricing()}})
	}
	if len(f.Tags()) > 0 {
		out = append(out, db.TagFilter{Field: fieldTags, Values: f.Tags()})
	}
	if len(f.Categories()) > 0 {
		out = append(out, db.TagFilter{Field: fieldCategories, Values: f.Categories()})
	}
	return out
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + id
}
