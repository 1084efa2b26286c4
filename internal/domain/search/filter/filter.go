package filter

import (
	"fmt"
	"strings"
)

// MaxValues is the maximum number of tags or categories in one filter.
const MaxValues = 32

// Filter narrows tool search. Type and Pricing match by equality,
// Tags and Categories by set membership (any value matches).
type Filter struct {
	toolType   string
	pricing    string
	tags       []string
	categories []string
}

// Record is the view of a searchable item a Filter can judge.
type Record interface {
	Type() string
	Pricing() string
	Tags() []string
	Categories() []string
}

// New validates and creates a Filter. Values are trimmed and lowercased for tags and categories.
func New(toolType, pricing string, tags, categories []string) (Filter, error) {
	if len(tags) > MaxValues {
		return Filter{}, fmt.Errorf("too many tags in filter (max %d)", MaxValues)
	}
	if len(categories) > MaxValues {
		return Filter{}, fmt.Errorf("too many categories in filter (max %d)", MaxValues)
	}
	return Filter{
		toolType:   strings.TrimSpace(toolType),
		pricing:    strings.TrimSpace(pricing),
		tags:       lowerAll(tags),
		categories: lowerAll(categories),
	}, nil
}

// Type returns the required tool type, empty for any.
func (f Filter) Type() string { return f.toolType }

// Pricing returns the required pricing model, empty for any.
func (f Filter) Pricing() string { return f.pricing }

// Tags returns the accepted tags, empty for any.
func (f Filter) Tags() []string { return f.tags }

// Categories returns the accepted categories, empty for any.
func (f Filter) Categories() []string { return f.categories }

// IsEmpty reports whether the filter accepts everything.
func (f Filter) IsEmpty() bool {
	return f.toolType == "" && f.pricing == "" && len(f.tags) == 0 && len(f.categories) == 0
}

// Matches applies the filter as a post-search predicate. Every comparison is
// case-insensitive, matching the TAG pre-filter of the text index.
func (f Filter) Matches(r Record) bool {
	if f.toolType != "" && !strings.EqualFold(r.Type(), f.toolType) {
		return false
	}
	if f.pricing != "" && !strings.EqualFold(r.Pricing(), f.pricing) {
		return false
	}
	if len(f.tags) > 0 && !intersects(f.tags, r.Tags()) {
		return false
	}
	if len(f.categories) > 0 && !intersects(f.categories, r.Categories()) {
		return false
	}
	return true
}

func intersects(want, have []string) bool {
	for _, h := range have {
		h = strings.ToLower(h)
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
