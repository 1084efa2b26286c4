package insight

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
	"github.com/kailas-cloud/toolsage/internal/metrics"
	"github.com/kailas-cloud/toolsage/internal/usecase/rerank"
)

// Rejection reasons reported to callers.
const (
	ReasonQualityUnavailable = "quality check unavailable"
	ReasonNotQualified       = "insight did not pass the quality check"
)

// Retrieval sizing.
const (
	dedupK             = 1
	dedupCandidates    = 5
	minRelevantFetch   = 10
	DefaultLimit       = 5
	usageStatsK        = 10
	usageStatsCands    = 20
	usageStatsRelated  = 5
	queryPatternsK     = 5
	queryPatternsCands = 10
)

// Config tunes the insight store.
type Config struct {
	DedupThreshold     float64
	RerankMinRelevance float64
	WorkerPoolSize     int
	SideEffectTimeout  time.Duration
}

// DefaultConfig returns the standard insight store settings.
func DefaultConfig() Config {
	return Config{
		DedupThreshold:     0.95,
		RerankMinRelevance: rerank.DefaultMinRelevance,
		WorkerPoolSize:     4,
		SideEffectTimeout:  5 * time.Second,
	}
}

// Service is the insight memory store: gated ingestion, dedup and retrieval.
type Service struct {
	repo     Repository
	learning LearningStore
	tools    ToolReader
	judge    Judge
	embed    Embedder
	cfg      Config
	bg       *background
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// New creates an insight service and starts its side-effect pool. Call Close on shutdown.
func New(
	repo Repository, learning LearningStore, tools ToolReader,
	judge Judge, embed Embedder, cfg Config, logger *zap.Logger,
) (*Service, error) {
	bg, err := newBackground(cfg.WorkerPoolSize, cfg.SideEffectTimeout, logger)
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:     repo,
		learning: learning,
		tools:    tools,
		judge:    judge,
		embed:    embed,
		cfg:      cfg,
		bg:       bg,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Close waits up to wait for running side effects and releases the pool.
func (s *Service) Close(wait time.Duration) error {
	return s.bg.close(wait)
}

// AddInsight validates, quality-gates and deduplicates a candidate before storing it.
// Rejections are reported in the result, not as errors. Embedding and storage failures
// are errors.
func (s *Service) AddInsight(
	ctx context.Context, content, insType string, in dominsight.Input,
) (dominsight.AddResult, error) {
	if err := dominsight.Validate(content, insType); err != nil {
		return s.reject(err.Error()), nil
	}

	verdict, err := s.judge.CheckQuality(ctx, content, insType)
	if err != nil {
		s.logger.Warn("Quality check failed, rejecting insight", zap.String("type", insType), zap.Error(err))
		return s.reject(ReasonQualityUnavailable), nil
	}
	if !verdict.Qualified {
		reason := verdict.Reason
		if reason == "" {
			reason = ReasonNotQualified
		}
		return s.reject(reason), nil
	}

	// Dedup matches on bare content; tags only enter the stored vector.
	contentEmb, err := s.embed.Embed(ctx, content)
	if err != nil {
		return dominsight.AddResult{}, fmt.Errorf("vectorize insight: %w", err)
	}

	// Not transactional: concurrent near-duplicates can both pass this check.
	near, err := s.repo.Nearest(ctx, contentEmb.Embedding, dedupK, dedupCandidates)
	if err != nil {
		return dominsight.AddResult{}, fmt.Errorf("dedup lookup: %w", err)
	}
	now := s.now()
	if len(near) > 0 && near[0].Score() >= s.cfg.DedupThreshold {
		if err := s.repo.IncrementUse(ctx, near[0].ID(), now); err != nil {
			return dominsight.AddResult{}, fmt.Errorf("touch duplicate %s: %w", near[0].ID(), err)
		}
		existing := near[0].Touched(now)
		metrics.InsightOutcomesTotal.WithLabelValues(string(dominsight.OutcomeDuplicate)).Inc()
		s.logger.Debug("Duplicate insight",
			zap.String("id", existing.ID()),
			zap.Float64("similarity", existing.Score()),
		)
		return dominsight.AddResult{Insight: &existing, Outcome: dominsight.OutcomeDuplicate}, nil
	}

	vector := contentEmb.Embedding
	if text := dominsight.EmbeddingText(content, in.Tags); text != content {
		emb, err := s.embed.Embed(ctx, text)
		if err != nil {
			return dominsight.AddResult{}, fmt.Errorf("vectorize insight: %w", err)
		}
		vector = emb.Embedding
	}

	ins, err := dominsight.New(s.newID(), content, insType, in, domain.Clamp01(verdict.Confidence), vector, now)
	if err != nil {
		return s.reject(err.Error()), nil
	}
	if err := s.repo.Save(ctx, &ins); err != nil {
		return dominsight.AddResult{}, fmt.Errorf("save insight: %w", err)
	}

	s.recordMetrics(ctx, ins)

	metrics.InsightOutcomesTotal.WithLabelValues(string(dominsight.OutcomeCreated)).Inc()
	s.logger.Info("Insight created", zap.String("id", ins.ID()), zap.String("type", insType))

	stored := ins.WithoutEmbedding()
	return dominsight.AddResult{Insight: &stored, Outcome: dominsight.OutcomeCreated}, nil
}

// FindRelevant returns up to limit insights closest to query. A non-empty context
// reorders them through the judge; a failed rerank keeps vector order.
// Returned insights have their use counters bumped in the background.
func (s *Service) FindRelevant(
	ctx context.Context, query string, kctx domain.KnowledgeContext, limit int,
) ([]dominsight.Insight, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	fetch := max(2*limit, minRelevantFetch)
	items, err := s.repo.Nearest(ctx, emb.Embedding, fetch, fetch)
	if err != nil {
		return nil, fmt.Errorf("search insights: %w", err)
	}

	if len(items) > 0 && !kctx.IsEmpty() {
		ranked, ok, err := rerank.Rerank(ctx, s.judge, query, kctx, items, s.cfg.RerankMinRelevance)
		if err != nil {
			s.logger.Warn("Rerank failed, keeping vector order", zap.Error(err))
		}
		if ok {
			items = ranked
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}

	s.trackUsage(ctx, items)
	return items, nil
}

// Get returns one insight without its embedding.
func (s *Service) Get(ctx context.Context, id string) (dominsight.Insight, error) {
	ins, err := s.repo.Get(ctx, id)
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("get insight: %w", err)
	}
	return ins.WithoutEmbedding(), nil
}

// ListAll returns every insight, newest first.
func (s *Service) ListAll(ctx context.Context) ([]dominsight.Insight, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return all, nil
}

// Update replaces content and type and recomputes the embedding.
// It bypasses the quality gate and dedup check.
func (s *Service) Update(ctx context.Context, id, content, insType string) (dominsight.Insight, error) {
	if err := dominsight.Validate(content, insType); err != nil {
		return dominsight.Insight{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("get insight: %w", err)
	}

	emb, err := s.embed.Embed(ctx, dominsight.EmbeddingText(content, existing.Metadata().Tags))
	if err != nil {
		return dominsight.Insight{}, fmt.Errorf("vectorize insight: %w", err)
	}

	updated := existing.Edited(content, insType, emb.Embedding, s.now())
	if err := s.repo.Save(ctx, &updated); err != nil {
		return dominsight.Insight{}, fmt.Errorf("save insight: %w", err)
	}
	return updated.WithoutEmbedding(), nil
}

// Delete removes an insight.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete insight: %w", err)
	}
	return nil
}

// AddFeedback stores a tool_feedback insight. An empty comment gets a generated sentence.
func (s *Service) AddFeedback(
	ctx context.Context, toolID string, success bool, comment string,
) (dominsight.AddResult, error) {
	if toolID == "" {
		return dominsight.AddResult{}, domain.NewValidationError("tool_id", "is required")
	}
	polarity, outcome := "negative", "unsuccessful"
	if success {
		polarity, outcome = "positive", "successful"
	}
	text := comment
	if text == "" {
		text = fmt.Sprintf("Tool %s was %s for its intended use.", toolID, outcome)
	}
	return s.AddInsight(ctx, text, dominsight.TypeToolFeedback, dominsight.Input{
		ToolID:  toolID,
		Success: &success,
		Tags:    []string{"feedback", polarity},
	})
}

// RecordToolUsage stores a tool_usage insight. Failures are logged, never returned.
func (s *Service) RecordToolUsage(ctx context.Context, toolID, queryContext string, wasRecommended bool) {
	res, err := s.AddInsight(ctx,
		fmt.Sprintf("Tool %s was used in research: %s", toolID, queryContext),
		dominsight.TypeToolUsage,
		dominsight.Input{ToolID: toolID, QueryContext: queryContext, WasRecommended: wasRecommended},
	)
	if err != nil {
		s.logger.Warn("Failed to record tool usage", zap.String("tool_id", toolID), zap.Error(err))
		return
	}
	if res.Outcome == dominsight.OutcomeRejected {
		s.logger.Debug("Tool usage not recorded", zap.String("tool_id", toolID), zap.String("reason", res.Reason))
	}
}

// ToolUsageStats summarizes usage and feedback insights near a tool's description.
func (s *Service) ToolUsageStats(ctx context.Context, toolID string) (dominsight.UsageStats, error) {
	t, err := s.tools.Get(ctx, toolID)
	if err != nil {
		return dominsight.UsageStats{}, fmt.Errorf("get tool: %w", err)
	}

	emb, err := s.embed.Embed(ctx, t.Name()+" "+t.Description()+" usage patterns research methodology")
	if err != nil {
		return dominsight.UsageStats{}, fmt.Errorf("vectorize tool: %w", err)
	}

	near, err := s.repo.Nearest(ctx, emb.Embedding, usageStatsK, usageStatsCands)
	if err != nil {
		return dominsight.UsageStats{}, fmt.Errorf("search insights: %w", err)
	}

	stats := dominsight.UsageStats{RelatedInsights: []dominsight.Insight{}}
	for _, ins := range near {
		md := ins.Metadata()
		if ins.Type() != dominsight.TypeToolUsage && ins.Type() != dominsight.TypeToolFeedback && md.ToolID != toolID {
			continue
		}
		switch {
		case ins.Type() == dominsight.TypeToolUsage:
			stats.TotalUses++
		case ins.Type() == dominsight.TypeToolFeedback && md.Success != nil && *md.Success:
			stats.SuccessfulUses++
		}
		if len(stats.RelatedInsights) < usageStatsRelated {
			stats.RelatedInsights = append(stats.RelatedInsights, ins)
		}
	}
	rate := float64(stats.SuccessfulUses) / float64(max(stats.TotalUses, 1)) * 100
	stats.SuccessRate = min(rate, 100)
	return stats, nil
}

// SimilarQueryPatterns groups tool_usage insights near query by tool, best average score first.
func (s *Service) SimilarQueryPatterns(ctx context.Context, query string) ([]dominsight.QueryPattern, error) {
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	near, err := s.repo.Nearest(ctx, emb.Embedding, queryPatternsK, queryPatternsCands, dominsight.TypeToolUsage)
	if err != nil {
		return nil, fmt.Errorf("search usage insights: %w", err)
	}

	var order []string
	groups := make(map[string]*dominsight.QueryPattern)
	sums := make(map[string]float64)
	for _, ins := range near {
		md := ins.Metadata()
		g, ok := groups[md.ToolID]
		if !ok {
			g = &dominsight.QueryPattern{ToolID: md.ToolID, QueryContexts: []string{}}
			groups[md.ToolID] = g
			order = append(order, md.ToolID)
		}
		if md.QueryContext != "" {
			g.QueryContexts = append(g.QueryContexts, md.QueryContext)
		}
		g.UseCount++
		sums[md.ToolID] += ins.Score()
	}

	out := make([]dominsight.QueryPattern, 0, len(order))
	for _, id := range order {
		g := groups[id]
		g.AverageScore = sums[id] / float64(g.UseCount)
		out = append(out, *g)
	}
	slices.SortStableFunc(out, func(a, b dominsight.QueryPattern) int {
		switch {
		case a.AverageScore > b.AverageScore:
			return -1
		case a.AverageScore < b.AverageScore:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// Metrics returns the learning aggregate of one day (YYYY-MM-DD, empty for today).
func (s *Service) Metrics(ctx context.Context, day string) (dominsight.DailyMetrics, error) {
	if day == "" {
		day = s.now().UTC().Format(dominsight.DayLayout)
	}
	if _, err := time.Parse(dominsight.DayLayout, day); err != nil {
		return dominsight.DailyMetrics{}, domain.NewValidationError("date", "must be YYYY-MM-DD")
	}
	m, err := s.learning.Daily(ctx, day)
	if err != nil {
		return dominsight.DailyMetrics{}, fmt.Errorf("read daily metrics: %w", err)
	}
	return m, nil
}

// ToolMetrics returns the feedback aggregate of one tool.
func (s *Service) ToolMetrics(ctx context.Context, toolID string) (dominsight.ToolMetrics, error) {
	m, err := s.learning.Tool(ctx, toolID)
	if err != nil {
		return dominsight.ToolMetrics{}, fmt.Errorf("read tool metrics: %w", err)
	}
	return m, nil
}

func (s *Service) reject(reason string) dominsight.AddResult {
	metrics.InsightOutcomesTotal.WithLabelValues(string(dominsight.OutcomeRejected)).Inc()
	s.logger.Debug("Insight rejected", zap.String("reason", reason))
	return dominsight.Rejected(reason)
}

// recordMetrics updates the learning aggregates in the background.
func (s *Service) recordMetrics(ctx context.Context, ins dominsight.Insight) {
	md := ins.Metadata()
	ref := dominsight.RecentRef{ID: ins.ID(), Type: ins.Type(), Timestamp: md.CreatedAt}

	s.bg.submit(ctx, "learning_metrics", func(ctx context.Context) error {
		var errs []error
		if err := s.learning.RecordInsight(ctx, ref); err != nil {
			errs = append(errs, err)
		}
		if ins.Type() == dominsight.TypeToolFeedback && md.ToolID != "" && md.Success != nil {
			fb := dominsight.FeedbackRef{Success: *md.Success, Timestamp: md.CreatedAt, Context: ins.Content()}
			if err := s.learning.RecordFeedback(ctx, md.ToolID, fb); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// trackUsage bumps use counters of returned insights in the background.
func (s *Service) trackUsage(ctx context.Context, items []dominsight.Insight) {
	if len(items) == 0 {
		return
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID()
	}
	now := s.now()

	s.bg.submit(ctx, "usage_tracking", func(ctx context.Context) error {
		var errs []error
		for _, id := range ids {
			if err := s.repo.IncrementUse(ctx, id, now); err != nil {
				errs = append(errs, fmt.Errorf("increment %s: %w", id, err))
			}
		}
		return errors.Join(errs...)
	})
}
