package search

import (
	"math"
	"slices"

	"github.com/kailas-cloud/toolsage/internal/domain/search/mode"
	"github.com/kailas-cloud/toolsage/internal/domain/search/result"
)

// rankDecay is the per-rank multiplier applied after sorting.
const rankDecay = 0.98

// WeightedSet is one source's results entering a merge.
type WeightedSet struct {
	Source  string // key written to matchDetails, e.g. result.SourceSemantic
	Weight  float64
	Results []result.Result
}

// Merge combines result sets from several sources into one ranked list.
// Each set is normalized by its own maximum (floored at 1) and weighted.
// On a repeated id the higher weighted score wins and the new source is added
// to matchDetails. The sorted list is taxed by rankDecay^rank and truncated to limit.
func Merge(sets []WeightedSet, limit int) []result.Result {
	type entry struct {
		res     result.Result
		score   float64
		details map[string]float64
		sources int
	}

	var order []string
	merged := make(map[string]*entry)

	for _, set := range sets {
		maxScore := maxRaw(set.Results)
		for _, r := range set.Results {
			normalized := r.Score() / maxScore
			weighted := normalized * set.Weight

			e, ok := merged[r.ID()]
			if !ok {
				merged[r.ID()] = &entry{
					res:     r,
					score:   weighted,
					details: map[string]float64{set.Source: normalized, result.DetailWeighted: weighted},
					sources: 1,
				}
				order = append(order, r.ID())
				continue
			}
			e.score = math.Max(e.score, weighted)
			e.details[set.Source] = normalized
			e.details[result.DetailWeighted] = weighted
			e.sources++
		}
	}

	out := make([]result.Result, 0, len(order))
	for _, id := range order {
		e := merged[id]
		st := e.res.SearchType()
		if e.sources > 1 {
			st = mode.Hybrid
		}
		out = append(out, e.res.WithScore(e.score).WithMatch(e.details, st))
	}

	// Stable: ties keep first-seen order.
	slices.SortStableFunc(out, func(a, b result.Result) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		default:
			return 0
		}
	})

	for i := range out {
		out[i] = out[i].WithScore(clamp01(out[i].Score() * math.Pow(rankDecay, float64(i))))
	}

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// normalize divides every score by the set maximum (floored at 1) and records it under source.
func normalize(rs []result.Result, source string) []result.Result {
	maxScore := maxRaw(rs)
	out := make([]result.Result, len(rs))
	for i, r := range rs {
		n := clamp01(r.Score() / maxScore)
		out[i] = r.WithScore(n).WithMatch(map[string]float64{source: n}, r.SearchType())
	}
	return out
}

func maxRaw(rs []result.Result) float64 {
	m := 1.0
	for _, r := range rs {
		if s := r.Score(); s > m {
			m = s
		}
	}
	return m
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
