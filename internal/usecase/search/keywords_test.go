package search

import (
	"math"
	"slices"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"stop words and short tokens", "Find the best tool for UX testing in teams", []string{"find", "best", "tool", "testing", "teams"}},
		{"punctuation stripped", "survey-tools, analytics!", []string{"surveytools", "analytics"}},
		{"frequency order", "data tool data survey tool data", []string{"data", "tool", "survey"}},
		{"ties keep first occurrence", "beta alpha gamma", []string{"beta", "alpha", "gamma"}},
		{"nothing left", "is it ok to go", nil},
		{"empty", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractKeywords(tc.in); !slices.Equal(got, tc.want) {
				t.Errorf("ExtractKeywords(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanQuery(t *testing.T) {
	if got := cleanQuery("  Best   UX-testing tools?! "); got != "best ux testing tools" {
		t.Errorf("cleanQuery() = %q", got)
	}
}

func TestUnitVector(t *testing.T) {
	v := unitVector([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected unit vector %v", v)
	}
	zero := unitVector([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector must stay zero, got %v", zero)
	}
}
