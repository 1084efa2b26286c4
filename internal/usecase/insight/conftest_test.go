package insight

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

// memRepo keeps insights in memory and answers Nearest by cosine similarity,
// unless nearOverride is set.
type memRepo struct {
	mu           sync.Mutex
	items        map[string]dominsight.Insight
	order        []string
	nearOverride []dominsight.Insight
	nearErr      error
	saveErr      error
	increments   map[string]int
	lastNearK    int
	lastNearCand int
	lastTypes    []string
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]dominsight.Insight{}, increments: map[string]int{}}
}

func (m *memRepo) Save(_ context.Context, ins *dominsight.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.items[ins.ID()]; !ok {
		m.order = append(m.order, ins.ID())
	}
	m.items[ins.ID()] = *ins
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (dominsight.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ins, ok := m.items[id]
	if !ok {
		return dominsight.Insight{}, domain.ErrInsightNotFound
	}
	return ins, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrInsightNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRepo) IncrementUse(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.increments[id]++
	if ins, ok := m.items[id]; ok {
		m.items[id] = ins.Touched(now)
	}
	return nil
}

func (m *memRepo) Nearest(
	_ context.Context, vector []float32, k, numCandidates int, types ...string,
) ([]dominsight.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNearK, m.lastNearCand, m.lastTypes = k, numCandidates, types
	if m.nearErr != nil {
		return nil, m.nearErr
	}
	if m.nearOverride != nil {
		return m.nearOverride, nil
	}

	var out []dominsight.Insight
	for _, id := range m.order {
		ins, ok := m.items[id]
		if !ok || (len(types) > 0 && !slices.Contains(types, ins.Type())) {
			continue
		}
		out = append(out, ins.WithScore(cosine(vector, ins.Embedding())).WithoutEmbedding())
	}
	slices.SortStableFunc(out, func(a, b dominsight.Insight) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		default:
			return 0
		}
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *memRepo) ListAll(_ context.Context) ([]dominsight.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dominsight.Insight, 0, len(m.items))
	for i := len(m.order) - 1; i >= 0; i-- {
		if ins, ok := m.items[m.order[i]]; ok {
			out = append(out, ins.WithoutEmbedding())
		}
	}
	return out, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memRepo) incrementsOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.increments[id]
}

type mockLearning struct {
	mu        sync.Mutex
	insights  []dominsight.RecentRef
	feedback  map[string][]dominsight.FeedbackRef
	recordErr error
	daily     dominsight.DailyMetrics
	lastDay   string
}

func (m *mockLearning) RecordInsight(_ context.Context, ref dominsight.RecentRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.insights = append(m.insights, ref)
	return nil
}

func (m *mockLearning) RecordFeedback(_ context.Context, toolID string, ref dominsight.FeedbackRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.feedback == nil {
		m.feedback = map[string][]dominsight.FeedbackRef{}
	}
	m.feedback[toolID] = append(m.feedback[toolID], ref)
	return nil
}

func (m *mockLearning) Daily(_ context.Context, day string) (dominsight.DailyMetrics, error) {
	m.lastDay = day
	return m.daily, nil
}

func (m *mockLearning) Tool(_ context.Context, toolID string) (dominsight.ToolMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return dominsight.ToolMetrics{ToolID: toolID, TotalUses: int64(len(m.feedback[toolID]))}, nil
}

type mockTools struct {
	tools map[string]domtool.Tool
}

func (m *mockTools) Get(_ context.Context, id string) (domtool.Tool, error) {
	t, ok := m.tools[id]
	if !ok {
		return domtool.Tool{}, domain.ErrToolNotFound
	}
	return t, nil
}

type mockJudge struct {
	mu          sync.Mutex
	verdict     domain.QualityVerdict
	qualityErr  error
	rankings    []domain.Ranking
	rankErr     error
	qualityCall int
	rankCall    int
}

func (m *mockJudge) CheckQuality(_ context.Context, _, _ string) (domain.QualityVerdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qualityCall++
	return m.verdict, m.qualityErr
}

func (m *mockJudge) Rank(
	_ context.Context, _ string, _ domain.KnowledgeContext, _ []domain.RankCandidate,
) ([]domain.Ranking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rankCall++
	return m.rankings, m.rankErr
}

// hashEmbedder returns a deterministic vector per text; fixed overrides specific texts.
type hashEmbedder struct {
	mu    sync.Mutex
	fixed map[string][]float32
	err   error
	texts []string
}

func (m *hashEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if v, ok := m.fixed[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	v := make([]float32, 8)
	for i := range v {
		h := fnv.New32a()
		_, _ = fmt.Fprintf(h, "%d:%s", i, text)
		v[i] = float32(h.Sum32()%1000) - 500
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

func (m *hashEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	learning *mockLearning
	judge    *mockJudge
	embed    *hashEmbedder
	tools    *mockTools
}

func newFixture(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &fixture{
		repo:     newMemRepo(),
		learning: &mockLearning{},
		judge:    &mockJudge{verdict: domain.QualityVerdict{Qualified: true, Confidence: 0.8}},
		embed:    &hashEmbedder{},
		tools:    &mockTools{tools: map[string]domtool.Tool{}},
	}
	svc, err := New(f.repo, f.learning, f.tools, f.judge, f.embed, DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seq := 0
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("ins-%d", seq)
	}
	f.svc = svc
	return f
}

// drain waits for background side effects to finish.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	if err := f.svc.Close(2 * time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func stored(id, content, typ string, md dominsight.Metadata, score float64) dominsight.Insight {
	return dominsight.Reconstruct(id, content, typ, nil, md).WithScore(score)
}
