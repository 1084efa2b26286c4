package tool

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/toolsage/internal/domain/batch"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
)

// DefaultImportWorkers bounds concurrent embed+save calls during Import.
const DefaultImportWorkers = 4

// Entry is one catalog record to import.
type Entry struct {
	ID     string
	Fields domtool.Fields
}

// Import creates or replaces every entry using up to workers concurrent calls.
// A failed entry does not stop the others. Results keep the input order.
func (s *Service) Import(ctx context.Context, entries []Entry, workers int) []batch.Result {
	if workers <= 0 {
		workers = DefaultImportWorkers
	}
	start := time.Now()
	results := make([]batch.Result, len(entries))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = batch.NewError(e.ID, err)
				return nil
			}
			t, created, err := s.Create(ctx, e.ID, e.Fields)
			if err != nil {
				s.logger.Warn("Import entry failed", zap.String("tool_id", e.ID), zap.Error(err))
				results[i] = batch.NewError(e.ID, err)
				return nil
			}
			results[i] = batch.NewSaved(t.ID(), created)
			return nil
		})
	}
	_ = g.Wait()

	sum := batch.Summarize(results)
	s.logger.Info("Import finished",
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("failed", sum.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return results
}
