package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/bootstrap"
	"github.com/kailas-cloud/toolsage/internal/config"
	"github.com/kailas-cloud/toolsage/internal/domain"
	logpkg "github.com/kailas-cloud/toolsage/internal/logger"
	"github.com/kailas-cloud/toolsage/internal/metrics"
	insightrepo "github.com/kailas-cloud/toolsage/internal/repository/insight"
	learningrepo "github.com/kailas-cloud/toolsage/internal/repository/learning"
	sessionrepo "github.com/kailas-cloud/toolsage/internal/repository/session"
	toolrepo "github.com/kailas-cloud/toolsage/internal/repository/tool"
	chiTransport "github.com/kailas-cloud/toolsage/internal/transport/chi"
	healthuc "github.com/kailas-cloud/toolsage/internal/usecase/health"
	insightuc "github.com/kailas-cloud/toolsage/internal/usecase/insight"
	knowledgeuc "github.com/kailas-cloud/toolsage/internal/usecase/knowledge"
	searchuc "github.com/kailas-cloud/toolsage/internal/usecase/search"
	sessionuc "github.com/kailas-cloud/toolsage/internal/usecase/session"
	tooluc "github.com/kailas-cloud/toolsage/internal/usecase/tool"
	"github.com/kailas-cloud/toolsage/internal/version"
)

// learningDayTTL bounds how long per-day learning aggregates are kept.
const learningDayTTL = 90 * 24 * time.Hour

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting toolsage API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg, "toolsage")
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to database")

	metrics.Register()

	provName, vecCfg, provCfg := cfg.ActiveVectorizer()
	docEmbedder := bootstrap.BuildEmbedder(provName, provCfg, vecCfg, vecCfg.DocumentInstruction, cfg, store, logger)
	queryEmbedder := bootstrap.BuildEmbedder(provName, provCfg, vecCfg, vecCfg.QueryInstruction, cfg, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	judge := bootstrap.BuildJudge(cfg, provName, logger)

	vectorDim := bootstrap.VectorDim(vecCfg)
	prefix := cfg.Storage.KeyPrefix

	tools := toolrepo.New(store, prefix, vectorDim, logger).WithHNSW(toolrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	insights := insightrepo.New(store, prefix, vectorDim, logger).WithHNSW(insightrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	learning := learningrepo.New(store, prefix, learningDayTTL, logger)
	sessions := sessionrepo.New(store, prefix, cfg.Session.TTL())

	toolSvc := tooluc.New(tools, docEmbedder, logger).
		WithIndexes(tools, insights).
		WithPagination(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize)
	if err := toolSvc.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create search indexes", zap.Error(err))
	}

	searchSvc := searchuc.New(tools, queryEmbedder, searchuc.Weights{
		Semantic: cfg.Search.SemanticWeight,
		Keyword:  cfg.Search.KeywordWeight,
	}, logger)

	// Insights are compared against each other, so stored and queried text share one embedder.
	insightSvc, err := insightuc.New(insights, learning, tools, judge, docEmbedder, insightuc.Config{
		DedupThreshold:     cfg.Insights.DedupThreshold,
		RerankMinRelevance: *cfg.Insights.RerankMinRelevance,
		WorkerPoolSize:     cfg.Insights.WorkerPoolSize,
		SideEffectTimeout:  time.Duration(cfg.Insights.SideEffectTimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create insight service", zap.Error(err))
	}

	knowledgeSvc := knowledgeuc.New(insights, judge, docEmbedder, *cfg.Insights.KnowledgeMinRelevance, logger)
	sessionSvc := sessionuc.New(sessions, cfg.Session.MaxMessages, logger)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(docEmbedder), judge)

	server := chiTransport.NewServer(chiTransport.Services{
		Search:    searchSvc,
		Insights:  insightSvc,
		Knowledge: knowledgeSvc,
		Tools:     toolSvc,
		Sessions:  sessionSvc,
		Health:    healthSvc,
	}, logger).WithSearchDefaults(cfg.Search.DefaultLimit, *cfg.Search.DefaultThreshold)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdown := time.Duration(cfg.HTTP.ShutdownSec) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := insightSvc.Close(shutdown); err != nil {
		logger.Warn("Side effects still running at shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
