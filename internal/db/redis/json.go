package redis

import (
	"context"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/toolsage/internal/db"
)

// JSONSet stores a JSON value at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	args := make([]string, len(paths))
	copy(args, paths)

	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// JSONNumIncrBy atomically increments a numeric value inside a JSON document.
// A missing key or path maps to db.ErrKeyNotFound.
func (s *Store) JSONNumIncrBy(ctx context.Context, key, path string, val int64) error {
	cmd := s.b().Arbitrary("JSON.NUMINCRBY").Keys(key).Args(path, strconv.FormatInt(val, 10)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) || isRedisErr(err, "could not perform this operation on a key that doesn't exist") {
			return db.ErrKeyNotFound
		}
		return &db.Error{Op: db.OpJSONNumIncrBy, Err: err}
	}
	return nil
}
