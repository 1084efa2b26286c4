package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/domain"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
)

// Page size limits for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service handles the tool catalog.
type Service struct {
	repo            Repository
	embed           Embedder
	indexes         []IndexEnsurer
	defaultPageSize int
	maxPageSize     int
	logger          *zap.Logger
	now             func() time.Time
}

// New creates a tool service.
func New(repo Repository, embed Embedder, logger *zap.Logger) *Service {
	return &Service{
		repo:            repo,
		embed:           embed,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
		logger:          logger,
		now:             time.Now,
	}
}

// WithPagination overrides the List page sizes. Non-positive values keep the defaults.
func (s *Service) WithPagination(defaultSize, maxSize int) *Service {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// WithIndexes registers indexes created by EnsureIndexes.
func (s *Service) WithIndexes(idx ...IndexEnsurer) *Service {
	s.indexes = append(s.indexes, idx...)
	return s
}

// EnsureIndexes creates every registered index that does not exist yet.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	for _, idx := range s.indexes {
		if err := idx.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("ensure index %s: %w", idx.IndexName(), err)
		}
		s.logger.Info("Index ready", zap.String("index", idx.IndexName()))
	}
	return nil
}

// Create validates, embeds and stores a tool. An empty id gets a generated one.
// An existing tool with the same id is replaced; created reports which case happened.
func (s *Service) Create(ctx context.Context, id string, f domtool.Fields) (domtool.Tool, bool, error) {
	if id == "" {
		id = uuid.NewString()
	}
	t, err := domtool.New(id, f, s.now())
	if err != nil {
		return domtool.Tool{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	t, err = s.withEmbedding(ctx, t)
	if err != nil {
		return domtool.Tool{}, false, err
	}

	created, err := s.repo.Save(ctx, &t)
	if err != nil {
		return domtool.Tool{}, false, fmt.Errorf("save tool: %w", err)
	}
	return t, created, nil
}

// Update replaces the fields of an existing tool and re-embeds it. createdAt is kept.
func (s *Service) Update(ctx context.Context, id string, f domtool.Fields) (domtool.Tool, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return domtool.Tool{}, fmt.Errorf("get tool: %w", err)
	}

	t, err := domtool.New(id, f, s.now())
	if err != nil {
		return domtool.Tool{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	t = t.WithCreatedAt(existing.CreatedAt())

	t, err = s.withEmbedding(ctx, t)
	if err != nil {
		return domtool.Tool{}, err
	}

	if _, err := s.repo.Save(ctx, &t); err != nil {
		return domtool.Tool{}, fmt.Errorf("save tool: %w", err)
	}
	return t, nil
}

// Get retrieves a tool by id.
func (s *Service) Get(ctx context.Context, id string) (domtool.Tool, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domtool.Tool{}, fmt.Errorf("get tool: %w", err)
	}
	return t, nil
}

// List returns a page of tools and the total count.
func (s *Service) List(ctx context.Context, offset, limit int) ([]domtool.Tool, int, error) {
	if offset < 0 {
		return nil, 0, domain.NewValidationError("offset", "must not be negative")
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	limit = min(limit, s.maxPageSize)

	tools, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list tools: %w", err)
	}
	return tools, total, nil
}

// Delete removes a tool.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	return nil
}

func (s *Service) withEmbedding(ctx context.Context, t domtool.Tool) (domtool.Tool, error) {
	emb, err := s.embed.Embed(ctx, t.EmbeddingText())
	if err != nil {
		return domtool.Tool{}, fmt.Errorf("vectorize tool: %w", err)
	}
	return t.WithEmbedding(emb.Embedding), nil
}
