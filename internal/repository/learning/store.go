package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
)

// Hash fields of the per-day aggregate.
const (
	fieldTotal      = "total"
	fieldLastUpdate = "last_update"
	typeFieldPrefix = "type:"

	fieldTotalUses      = "total_uses"
	fieldSuccessfulUses = "successful_uses"
)

// store is the consumer interface for learning metrics (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, val int64) (int64, error)
	LPushTrim(ctx context.Context, key string, maxLen int, values ...string) error
	LRange(ctx context.Context, key string, start, stop int) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps derived learning metrics in hashes and capped lists.
// Everything here can be rebuilt from the insights themselves.
type Store struct {
	store     store
	keyPrefix string
	dayTTL    time.Duration
	logger    *zap.Logger
}

// New creates a learning metrics store. dayTTL bounds how long per-day aggregates are kept.
func New(s store, keyPrefix string, dayTTL time.Duration, logger *zap.Logger) *Store {
	return &Store{store: s, keyPrefix: keyPrefix + "learning:", dayTTL: dayTTL, logger: logger}
}

// RecordInsight counts a newly created insight in its day aggregate.
func (s *Store) RecordInsight(ctx context.Context, ref dominsight.RecentRef) error {
	day := ref.Timestamp.UTC().Format(dominsight.DayLayout)
	key := s.dayKey(day)

	if _, err := s.store.HIncrBy(ctx, key, typeFieldPrefix+ref.Type, 1); err != nil {
		return fmt.Errorf("incr type counter %s: %w", key, err)
	}
	if _, err := s.store.HIncrBy(ctx, key, fieldTotal, 1); err != nil {
		return fmt.Errorf("incr total %s: %w", key, err)
	}
	if err := s.store.HSet(ctx, key, map[string]string{
		fieldLastUpdate: ref.Timestamp.UTC().Format(time.RFC3339Nano),
	}); err != nil {
		return fmt.Errorf("set last_update %s: %w", key, err)
	}

	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal recent ref: %w", err)
	}
	if err := s.store.LPushTrim(ctx, s.recentKey(day), dominsight.RecentInsightsWindow, string(data)); err != nil {
		return fmt.Errorf("push recent %s: %w", day, err)
	}

	if s.dayTTL > 0 {
		for _, k := range []string{key, s.recentKey(day)} {
			if err := s.store.Expire(ctx, k, s.dayTTL, true); err != nil {
				return fmt.Errorf("expire %s: %w", k, err)
			}
		}
	}
	return nil
}

// RecordFeedback counts a tool use and appends to the tool's feedback window.
func (s *Store) RecordFeedback(ctx context.Context, toolID string, ref dominsight.FeedbackRef) error {
	key := s.toolKey(toolID)

	if _, err := s.store.HIncrBy(ctx, key, fieldTotalUses, 1); err != nil {
		return fmt.Errorf("incr total uses %s: %w", key, err)
	}
	if ref.Success {
		if _, err := s.store.HIncrBy(ctx, key, fieldSuccessfulUses, 1); err != nil {
			return fmt.Errorf("incr successful uses %s: %w", key, err)
		}
	}

	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal feedback ref: %w", err)
	}
	if err := s.store.LPushTrim(ctx, s.feedbackKey(toolID), dominsight.RecentFeedbackWindow, string(data)); err != nil {
		return fmt.Errorf("push feedback %s: %w", toolID, err)
	}
	return nil
}

// Daily reads the aggregate for one day (YYYY-MM-DD). A day without activity yields zero counts.
func (s *Store) Daily(ctx context.Context, day string) (dominsight.DailyMetrics, error) {
	key := s.dayKey(day)
	fields, err := s.store.HGetAll(ctx, key)
	if err != nil {
		return dominsight.DailyMetrics{}, fmt.Errorf("hgetall %s: %w", key, err)
	}

	m := dominsight.DailyMetrics{Date: day, InsightsByType: map[string]int64{}}
	for f, v := range fields {
		switch {
		case f == fieldTotal:
			m.TotalInsights = parseInt(v)
		case f == fieldLastUpdate:
			if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
				m.LastUpdate = ts
			}
		case strings.HasPrefix(f, typeFieldPrefix):
			m.InsightsByType[strings.TrimPrefix(f, typeFieldPrefix)] = parseInt(v)
		}
	}

	raw, err := s.store.LRange(ctx, s.recentKey(day), 0, -1)
	if err != nil {
		return dominsight.DailyMetrics{}, fmt.Errorf("lrange recent %s: %w", day, err)
	}
	m.RecentInsights = decodeAll[dominsight.RecentRef](raw, s.logger)
	return m, nil
}

// Tool reads the feedback aggregate of one tool.
func (s *Store) Tool(ctx context.Context, toolID string) (dominsight.ToolMetrics, error) {
	key := s.toolKey(toolID)
	fields, err := s.store.HGetAll(ctx, key)
	if err != nil {
		return dominsight.ToolMetrics{}, fmt.Errorf("hgetall %s: %w", key, err)
	}

	raw, err := s.store.LRange(ctx, s.feedbackKey(toolID), 0, -1)
	if err != nil {
		return dominsight.ToolMetrics{}, fmt.Errorf("lrange feedback %s: %w", toolID, err)
	}

	return dominsight.ToolMetrics{
		ToolID:         toolID,
		TotalUses:      parseInt(fields[fieldTotalUses]),
		SuccessfulUses: parseInt(fields[fieldSuccessfulUses]),
		RecentFeedback: decodeAll[dominsight.FeedbackRef](raw, s.logger),
	}, nil
}

func (s *Store) dayKey(day string) string     { return s.keyPrefix + "day:" + day }
func (s *Store) recentKey(day string) string  { return s.keyPrefix + "day:" + day + ":recent" }
func (s *Store) toolKey(id string) string     { return s.keyPrefix + "tool:" + id }
func (s *Store) feedbackKey(id string) string { return s.keyPrefix + "tool:" + id + ":feedback" }

func parseInt(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

func decodeAll[T any](raw []string, logger *zap.Logger) []T {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			logger.Warn("Skipping malformed metrics entry", zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out
}
