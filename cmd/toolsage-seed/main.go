// toolsage-seed loads a tool catalog file into the tool index.
//
// Usage:
//
//	toolsage-seed -file config/tools.yaml -workers 4
//
// Connection and embedding settings come from the same config as the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/bootstrap"
	"github.com/kailas-cloud/toolsage/internal/catalog"
	"github.com/kailas-cloud/toolsage/internal/config"
	"github.com/kailas-cloud/toolsage/internal/domain/batch"
	logpkg "github.com/kailas-cloud/toolsage/internal/logger"
	"github.com/kailas-cloud/toolsage/internal/metrics"
	insightrepo "github.com/kailas-cloud/toolsage/internal/repository/insight"
	toolrepo "github.com/kailas-cloud/toolsage/internal/repository/tool"
	tooluc "github.com/kailas-cloud/toolsage/internal/usecase/tool"
)

func main() {
	file := flag.String("file", "config/tools.yaml", "tool catalog (YAML or JSON)")
	workers := flag.Int("workers", tooluc.DefaultImportWorkers, "parallel embed+save workers")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, *file, *workers); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file string, workers int) error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	entries, err := catalog.Load(file)
	if err != nil {
		return err
	}
	logger.Info("Catalog loaded", zap.String("file", file), zap.Int("tools", len(entries)))

	store, err := bootstrap.OpenStore(ctx, cfg, "toolsage-seed")
	if err != nil {
		return err
	}
	defer store.Close()

	metrics.Register()

	provName, vecCfg, provCfg := cfg.ActiveVectorizer()
	embedder := bootstrap.BuildEmbedder(provName, provCfg, vecCfg, vecCfg.DocumentInstruction, cfg, store, logger)

	vectorDim := bootstrap.VectorDim(vecCfg)
	prefix := cfg.Storage.KeyPrefix
	hnswTools := toolrepo.HNSWConfig{M: cfg.Index.HNSWM, EFConstruct: cfg.Index.HNSWEFConstruct}
	hnswInsights := insightrepo.HNSWConfig{M: cfg.Index.HNSWM, EFConstruct: cfg.Index.HNSWEFConstruct}
	tools := toolrepo.New(store, prefix, vectorDim, logger).WithHNSW(hnswTools)
	insights := insightrepo.New(store, prefix, vectorDim, logger).WithHNSW(hnswInsights)

	svc := tooluc.New(tools, embedder, logger).WithIndexes(tools, insights)
	if err := svc.EnsureIndexes(ctx); err != nil {
		return err
	}

	results := svc.Import(ctx, entries, workers)
	sum := batch.Summarize(results)
	for _, r := range results {
		if r.Status() == batch.StatusError {
			logger.Error("Tool not imported", zap.String("tool_id", r.ID()), zap.Error(r.Err()))
		}
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d tools failed to import", sum.Failed, len(results))
	}
	return nil
}
