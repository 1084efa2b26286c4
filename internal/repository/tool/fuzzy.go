package tool

import (
	"strings"
	"unicode"
)

// prefixMatches reports whether text contains a word that shares its first
// character with one of terms and is within maxEdits of it. The text index
// expands %%term%% without a fixed prefix, so hits are re-checked here.
func prefixMatches(text string, terms []string, maxEdits int) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, t := range terms {
		tr := []rune(strings.ToLower(t))
		if len(tr) == 0 {
			continue
		}
		for _, w := range words {
			wr := []rune(w)
			if wr[0] != tr[0] {
				continue
			}
			if levenshtein(wr, tr, maxEdits) <= maxEdits {
				return true
			}
		}
	}
	return false
}

// levenshtein returns the edit distance between a and b, or limit+1 once it is
// certain to exceed limit.
func levenshtein(a, b []rune, limit int) int {
	if d := len(a) - len(b); d > limit || -d > limit {
		return limit + 1
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			rowMin = min(rowMin, curr[j])
		}
		if rowMin > limit {
			return limit + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
