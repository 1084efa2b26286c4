// Package bootstrap assembles the infrastructure shared by the toolsage binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/config"
	"github.com/kailas-cloud/toolsage/internal/db"
	dbRedis "github.com/kailas-cloud/toolsage/internal/db/redis"
	"github.com/kailas-cloud/toolsage/internal/domain"
	"github.com/kailas-cloud/toolsage/internal/metrics"
	"github.com/kailas-cloud/toolsage/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/toolsage/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/toolsage/internal/usecase/embedding"
)

// DefaultVectorDim matches text-embedding-3-small.
const DefaultVectorDim = 1536

// OpenStore connects to the database and waits until it accepts commands.
func OpenStore(ctx context.Context, cfg config.Config, clientName string) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:        cfg.Database.Addrs,
		Username:     cfg.Database.Username,
		Password:     cfg.Database.Password,
		DB:           cfg.Database.DB,
		ClientName:   clientName,
		WriteTimeout: time.Duration(cfg.Database.WriteTimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// VectorDim returns the configured embedding dimensions, falling back to DefaultVectorDim.
func VectorDim(vecCfg config.VectorizerConfig) int {
	if vecCfg.Dimensions > 0 {
		return vecCfg.Dimensions
	}
	return DefaultVectorDim
}

// BuildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func BuildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	instruction string,
	cfg config.Config,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	var embedder domain.Embedder = embcache.New(
		base, store, cfg.Storage.KeyPrefix, vecCfg.Model,
		time.Duration(cfg.Embedding.CacheTTLHrs)*time.Hour,
		metrics.EmbeddingCacheTotal, logger,
	)

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provName, vecCfg.Model, logger)

	// Instruction prefix is outermost so the cache key includes it.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// BuildJudge creates the chat judge. Without a judge provider the embedding provider is reused.
func BuildJudge(cfg config.Config, embeddingProvider string, logger *zap.Logger) *openaiTransport.Judge {
	provName := cfg.Judge.Provider
	if provName == "" {
		provName = embeddingProvider
	}
	provCfg := cfg.Embedding.Providers[provName]

	logger.Info("Judge created",
		zap.String("provider", provName),
		zap.String("model", cfg.Judge.Model),
	)
	return openaiTransport.NewJudge(&openaiTransport.JudgeConfig{
		APIKey:      provCfg.APIKey,
		BaseURL:     provCfg.BaseURL,
		Model:       cfg.Judge.Model,
		Temperature: cfg.Judge.Temperature,
		MaxAttempts: cfg.Judge.MaxAttempts,
		Timeout:     time.Duration(cfg.Judge.TimeoutSec) * time.Second,
		MaxFailures: cfg.Judge.Breaker.MaxFailures,
		OpenTimeout: time.Duration(cfg.Judge.Breaker.OpenTimeoutSec) * time.Second,
		Logger:      logger,
	})
}
