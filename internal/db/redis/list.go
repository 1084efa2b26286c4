package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/toolsage/internal/db"
)

// LPushTrim prepends values and keeps only the newest maxLen entries, in one round-trip.
func (s *Store) LPushTrim(ctx context.Context, key string, maxLen int, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	if maxLen <= 0 {
		return fmt.Errorf("maxLen must be positive")
	}

	cmds := []rueidis.Completed{
		s.b().Lpush().Key(key).Element(values...).Build(),
		s.b().Ltrim().Key(key).Start(0).Stop(int64(maxLen - 1)).Build(),
	}
	results := s.client.DoMulti(ctx, cmds...)
	if err := results[0].Error(); err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	if err := results[1].Error(); err != nil {
		return &db.Error{Op: db.OpLTrim, Err: err}
	}
	return nil
}

// LRange returns list elements between start and stop (inclusive, negative from the tail).
func (s *Store) LRange(ctx context.Context, key string, start, stop int) ([]string, error) {
	cmd := s.b().Lrange().Key(key).Start(int64(start)).Stop(int64(stop)).Build()
	out, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return out, nil
}
