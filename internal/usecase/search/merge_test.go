package search

import (
	"math"
	"testing"

	"github.com/kailas-cloud/toolsage/internal/domain/search/mode"
	"github.com/kailas-cloud/toolsage/internal/domain/search/result"
)

func hit(id string, score float64, m mode.Mode) result.Result {
	return result.New(id, score, result.Payload{Name: id}, m)
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMerge_WorkedExample(t *testing.T) {
	semantic := []result.Result{hit("1", 0.9, mode.Semantic), hit("2", 0.5, mode.Semantic)}
	keyword := []result.Result{hit("2", 1.0, mode.Keyword), hit("3", 0.4, mode.Keyword)}

	out := Merge([]WeightedSet{
		{Source: result.SourceSemantic, Weight: 0.6, Results: semantic},
		{Source: result.SourceKeyword, Weight: 0.4, Results: keyword},
	}, 10)

	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	// Max floor of 1 keeps semantic scores unscaled: id1 = 0.9*0.6, id2 = max(0.5*0.6, 1.0*0.4).
	want := []struct {
		id    string
		score float64
	}{
		{"1", 0.54},
		{"2", 0.4 * 0.98},
		{"3", 0.16 * 0.98 * 0.98},
	}
	for i, w := range want {
		if out[i].ID() != w.id {
			t.Errorf("rank %d: expected id %s, got %s", i, w.id, out[i].ID())
		}
		if !approx(out[i].Score(), w.score) {
			t.Errorf("rank %d: expected score %.6f, got %.6f", i, w.score, out[i].Score())
		}
	}

	d := out[1].MatchDetails()
	if !approx(d[result.SourceSemantic], 0.5) || !approx(d[result.SourceKeyword], 1.0) {
		t.Errorf("expected both sources in matchDetails, got %v", d)
	}
	if !approx(d[result.DetailWeighted], 0.4) {
		t.Errorf("expected weighted detail from latest source, got %v", d[result.DetailWeighted])
	}
	if out[1].SearchType() != mode.Hybrid {
		t.Errorf("expected hybrid search type for id found by both sources, got %s", out[1].SearchType())
	}
	if out[0].SearchType() != mode.Semantic {
		t.Errorf("expected semantic search type for single-source id, got %s", out[0].SearchType())
	}
}

func TestMerge_RawScoresAboveOne(t *testing.T) {
	keyword := []result.Result{hit("a", 8, mode.Keyword), hit("b", 4, mode.Keyword)}

	out := Merge([]WeightedSet{{Source: result.SourceKeyword, Weight: 0.4, Results: keyword}}, 10)

	if !approx(out[0].Score(), 0.4) {
		t.Errorf("expected top score 0.4, got %f", out[0].Score())
	}
	if !approx(out[1].MatchDetails()[result.SourceKeyword], 0.5) {
		t.Errorf("expected normalized 0.5, got %v", out[1].MatchDetails())
	}
}

func TestMerge_Properties(t *testing.T) {
	sets := []WeightedSet{
		{Source: result.SourceSemantic, Weight: 0.6, Results: []result.Result{
			hit("a", 0.99, mode.Semantic), hit("b", 0.7, mode.Semantic), hit("c", 0.7, mode.Semantic),
			hit("d", 0.2, mode.Semantic),
		}},
		{Source: result.SourceKeyword, Weight: 0.4, Results: []result.Result{
			hit("c", 12.5, mode.Keyword), hit("e", 7, mode.Keyword), hit("a", 1.5, mode.Keyword),
			hit("f", 0, mode.Keyword),
		}},
	}

	first := Merge(sets, 100)
	second := Merge(sets, 100)

	seen := map[string]bool{}
	for i, r := range first {
		if r.Score() < 0 || r.Score() > 1 {
			t.Errorf("score out of [0,1]: %s=%f", r.ID(), r.Score())
		}
		if i > 0 && first[i-1].Score() < r.Score() {
			t.Errorf("not sorted at %d: %f < %f", i, first[i-1].Score(), r.Score())
		}
		if seen[r.ID()] {
			t.Errorf("duplicate id %s", r.ID())
		}
		seen[r.ID()] = true

		if second[i].ID() != r.ID() || second[i].Score() != r.Score() {
			t.Errorf("non-deterministic output at %d", i)
		}
	}
	if len(first) != 6 {
		t.Errorf("expected 6 unique ids, got %d", len(first))
	}
}

func TestMerge_TiesKeepFirstSeenOrder(t *testing.T) {
	out := Merge([]WeightedSet{
		{Source: result.SourceSemantic, Weight: 0.5, Results: []result.Result{
			hit("x", 0.5, mode.Semantic), hit("y", 0.5, mode.Semantic),
		}},
	}, 10)

	if out[0].ID() != "x" || out[1].ID() != "y" {
		t.Errorf("expected x before y, got %s, %s", out[0].ID(), out[1].ID())
	}
	if !(out[0].Score() > out[1].Score()) {
		t.Error("rank decay should break the tie")
	}
}

func TestMerge_EmptyAndLimit(t *testing.T) {
	if out := Merge(nil, 5); len(out) != 0 {
		t.Errorf("expected empty output, got %d", len(out))
	}

	out := Merge([]WeightedSet{
		{Source: result.SourceSemantic, Weight: 0.6},
		{Source: result.SourceKeyword, Weight: 0.4, Results: []result.Result{
			hit("a", 3, mode.Keyword), hit("b", 2, mode.Keyword), hit("c", 1, mode.Keyword),
		}},
	}, 2)
	if len(out) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(out))
	}
	// Single-source top match keeps its weighted score.
	if !approx(out[0].Score(), 0.4) {
		t.Errorf("expected 0.4, got %f", out[0].Score())
	}
}
