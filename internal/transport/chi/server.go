package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
	"github.com/kailas-cloud/toolsage/internal/domain/search/request"
	"github.com/kailas-cloud/toolsage/internal/domain/search/result"
	domsession "github.com/kailas-cloud/toolsage/internal/domain/session"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
	"github.com/kailas-cloud/toolsage/internal/metrics"
	healthuc "github.com/kailas-cloud/toolsage/internal/usecase/health"
)

// SearchService runs tool searches.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// InsightService manages the insight memory.
type InsightService interface {
	AddInsight(ctx context.Context, content, insType string, in dominsight.Input) (dominsight.AddResult, error)
	FindRelevant(ctx context.Context, query string, kctx domain.KnowledgeContext, limit int) ([]dominsight.Insight, error)
	Get(ctx context.Context, id string) (dominsight.Insight, error)
	ListAll(ctx context.Context) ([]dominsight.Insight, error)
	Update(ctx context.Context, id, content, insType string) (dominsight.Insight, error)
	Delete(ctx context.Context, id string) error
	AddFeedback(ctx context.Context, toolID string, success bool, comment string) (dominsight.AddResult, error)
	RecordToolUsage(ctx context.Context, toolID, queryContext string, wasRecommended bool)
	ToolUsageStats(ctx context.Context, toolID string) (dominsight.UsageStats, error)
	ToolMetrics(ctx context.Context, toolID string) (dominsight.ToolMetrics, error)
	SimilarQueryPatterns(ctx context.Context, query string) ([]dominsight.QueryPattern, error)
	Metrics(ctx context.Context, day string) (dominsight.DailyMetrics, error)
}

// KnowledgeService retrieves contextual knowledge.
type KnowledgeService interface {
	FindRelevantKnowledge(ctx context.Context, query string, kctx domain.KnowledgeContext) ([]dominsight.Insight, error)
}

// ToolService manages the tool catalog.
type ToolService interface {
	Create(ctx context.Context, id string, f domtool.Fields) (domtool.Tool, bool, error)
	Get(ctx context.Context, id string) (domtool.Tool, error)
	Update(ctx context.Context, id string, f domtool.Fields) (domtool.Tool, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]domtool.Tool, int, error)
}

// SessionService manages conversation transcripts.
type SessionService interface {
	Append(ctx context.Context, id, role, content string) (domsession.Session, error)
	SetTopic(ctx context.Context, id, topic string) error
	Context(ctx context.Context, id string) (domain.KnowledgeContext, error)
	Delete(ctx context.Context, id string) error
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Services bundles the use cases served over HTTP.
type Services struct {
	Search    SearchService
	Insights  InsightService
	Knowledge KnowledgeService
	Tools     ToolService
	Sessions  SessionService
	Health    HealthService
}

// Server is the JSON HTTP API.
type Server struct {
	search    SearchService
	insights  InsightService
	knowledge KnowledgeService
	tools     ToolService
	sessions  SessionService
	health    HealthService
	logger    *zap.Logger

	searchLimit     int
	searchThreshold *float64
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	return &Server{
		search:    svc.Search,
		insights:  svc.Insights,
		knowledge: svc.Knowledge,
		tools:     svc.Tools,
		sessions:  svc.Sessions,
		health:    svc.Health,
		logger:    logger,
	}
}

// WithSearchDefaults sets the limit and threshold applied when a search request omits them.
func (s *Server) WithSearchDefaults(limit int, threshold float64) *Server {
	s.searchLimit = limit
	s.searchThreshold = &threshold
	return s
}

// Handler builds the router with the middleware chain.
func (s *Server) Handler(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/search", s.SearchTools)

	r.Route("/insights", func(r chi.Router) {
		r.Get("/", s.ListInsights)
		r.Post("/", s.CreateInsight)
		r.Post("/query", s.QueryInsights)
		r.Get("/{id}", s.GetInsight)
		r.Put("/{id}", s.UpdateInsight)
		r.Delete("/{id}", s.DeleteInsight)
	})

	r.Post("/knowledge/query", s.QueryKnowledge)

	r.Route("/tools", func(r chi.Router) {
		r.Get("/", s.ListTools)
		r.Post("/", s.CreateTool)
		r.Get("/{id}", s.GetTool)
		r.Put("/{id}", s.UpdateTool)
		r.Delete("/{id}", s.DeleteTool)
		r.Post("/{id}/feedback", s.AddToolFeedback)
		r.Get("/{id}/usage", s.GetToolUsage)
		r.Post("/{id}/usage", s.RecordToolUsage)
	})

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Post("/messages", s.AppendSessionMessage)
		r.Delete("/", s.DeleteSession)
	})

	r.Route("/learning", func(r chi.Router) {
		r.Get("/metrics", s.GetLearningMetrics)
		r.Get("/patterns", s.GetQueryPatterns)
	})

	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}
