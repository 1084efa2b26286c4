package search

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minKeywordLength is the shortest token kept as a keyword.
const minKeywordLength = 3

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true, "with": true, "in": true,
	"on": true, "at": true, "to": true, "of": true, "is": true, "are": true,
}

// ExtractKeywords lowercases text, strips punctuation, drops short tokens and stop words,
// and returns unique keywords ordered by descending frequency. Ties keep first occurrence.
func ExtractKeywords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(text))

	freq := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) < minKeywordLength || stopWords[w] {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return freq[b] - freq[a]
	})
	return order
}

// cleanQuery prepares a query for embedding: lowercase, punctuation replaced by spaces,
// whitespace collapsed.
func cleanQuery(q string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(strings.TrimSpace(q)))
	return strings.Join(strings.Fields(mapped), " ")
}
