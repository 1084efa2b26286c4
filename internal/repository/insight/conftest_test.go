package insight

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/db"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn       func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn       func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonNumIncrByFn func(ctx context.Context, key, path string, val int64) error
	delFn           func(ctx context.Context, key string) error
	existsFn        func(ctx context.Context, key string) (bool, error)
	searchKNNFn     func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchListFn    func(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	indexExistsFn   func(ctx context.Context, name string) (bool, error)
	createIndexFn   func(ctx context.Context, def *db.IndexDefinition) error
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) JSONNumIncrBy(ctx context.Context, key, path string, val int64) error {
	if m.jsonNumIncrByFn != nil {
		return m.jsonNumIncrByFn(ctx, key, path, val)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "toolsage:", 3, zap.NewNop()), ms
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testInsight(t *testing.T, id string, created time.Time) dominsight.Insight {
	t.Helper()
	ok := true
	ins, err := dominsight.New(id, "Typeform works well for NPS surveys", dominsight.TypeToolFeedback,
		dominsight.Input{Tags: []string{"feedback", "positive"}, ToolID: "typeform", Success: &ok},
		0.8, []float32{0.1, 0.2, 0.3}, created)
	if err != nil {
		t.Fatalf("testInsight: %v", err)
	}
	return ins
}

func docJSON(t *testing.T, ins dominsight.Insight) string {
	t.Helper()
	return string(mustMarshal(t, toDoc(&ins)))
}
