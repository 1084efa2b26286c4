package request

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/toolsage/internal/domain/search/filter"
	"github.com/kailas-cloud/toolsage/internal/domain/search/mode"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  survey tools ", "", filter.Filter{}, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "survey tools" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Mode() != mode.Hybrid {
		t.Errorf("Mode() = %q, want hybrid", r.Mode())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %f, want %f", r.Threshold(), DefaultThreshold)
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	zero := 0.0
	r, err := New("query", mode.Semantic, filter.Filter{}, 20, &zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Semantic || r.Limit() != 20 || r.Threshold() != 0 {
		t.Errorf("unexpected request: mode=%q limit=%d threshold=%f", r.Mode(), r.Limit(), r.Threshold())
	}
}

func TestNew_ClampsLimit(t *testing.T) {
	r, err := New("q", "", filter.Filter{}, 1000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}
}

func TestNew_Validation(t *testing.T) {
	bad := 1.5
	tests := []struct {
		name      string
		query     string
		m         mode.Mode
		limit     int
		threshold *float64
	}{
		{"empty query", "  ", "", 0, nil},
		{"long query", strings.Repeat("q", MaxQueryLength+1), "", 0, nil},
		{"bad mode", "q", "geo", 0, nil},
		{"negative limit", "q", "", -1, nil},
		{"threshold out of range", "q", "", 0, &bad},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.query, tc.m, filter.Filter{}, tc.limit, tc.threshold); err == nil {
				t.Error("expected error")
			}
		})
	}
}
