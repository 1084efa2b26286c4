package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/toolsage/internal/domain/search/filter"
	"github.com/kailas-cloud/toolsage/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength   = 4096
	DefaultLimit     = 5
	MaxLimit         = 100
	DefaultThreshold = 0.1
)

// Request is a validated tool search query.
type Request struct {
	query      string
	searchMode mode.Mode
	filter     filter.Filter
	limit      int
	threshold  float64
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, limit=5, threshold=0.1 (nil). Limit is clamped to MaxLimit.
func New(query string, m mode.Mode, f filter.Filter, limit int, threshold *float64) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search type: %q", m)
	}
	if limit < 0 {
		return Request{}, fmt.Errorf("limit must not be negative")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	th := DefaultThreshold
	if threshold != nil {
		th = *threshold
	}
	if th < 0 || th > 1 {
		return Request{}, fmt.Errorf("threshold must be between 0 and 1")
	}

	return Request{query: query, searchMode: m, filter: f, limit: limit, threshold: th}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Filter returns the search filter.
func (r *Request) Filter() filter.Filter { return r.filter }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Threshold returns the minimum merged score a result needs to be returned.
func (r *Request) Threshold() float64 { return r.threshold }
