package db

// ScoreField is the FT.SEARCH alias under which KNN distances are returned.
const ScoreField = "__vector_score"

// MaxFuzzyEdits is the largest Levenshtein distance FT.SEARCH fuzzy terms support.
const MaxFuzzyEdits = 3

// TagFilter restricts results to documents whose TAG field holds any of Values.
// Multiple filters are ANDed.
type TagFilter struct {
	Field  string
	Values []string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      []TagFilter
	Vector       []float32
	K            int
	EFRuntime    int // HNSW candidate pool, 0 keeps the index default
	ReturnFields []string
	RawScores    bool // return distances as-is instead of cosine similarity
}

// TextQuery is the input for fuzzy full-text search.
type TextQuery struct {
	IndexName    string
	Terms        []string // OR-ed
	Fields       []string // TEXT fields to search, empty for all
	MaxEdits     int      // fuzzy distance per term, 0 for exact
	Filters      []TagFilter
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
