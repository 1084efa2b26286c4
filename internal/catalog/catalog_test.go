package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
tools:
  - id: typeform
    name: Typeform
    description: Conversational online forms
    type: survey
    pricing: freemium
    url: https://typeform.com
    tags: [forms, surveys]
    categories: [data-collection]
    use_cases:
      - description: Customer feedback surveys
        method: quantitative
  - id: nvivo
    name: NVivo
    description: Qualitative data analysis
`

func TestParse_YAML(t *testing.T) {
	entries, err := Parse(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	tf := entries[0]
	if tf.ID != "typeform" || tf.Fields.Name != "Typeform" || tf.Fields.Pricing != "freemium" {
		t.Errorf("unexpected entry %+v", tf)
	}
	if len(tf.Fields.Tags) != 2 || tf.Fields.Categories[0] != "data-collection" {
		t.Errorf("unexpected tags/categories %v %v", tf.Fields.Tags, tf.Fields.Categories)
	}
	if len(tf.Fields.UseCases) != 1 || tf.Fields.UseCases[0].Method != "quantitative" {
		t.Errorf("unexpected use cases %+v", tf.Fields.UseCases)
	}
	if entries[1].Fields.UseCases != nil {
		t.Error("missing use cases should stay nil")
	}
}

func TestParse_JSON(t *testing.T) {
	js := `{"tools": [{"id": "spss", "name": "SPSS", "tags": ["statistics"],
		"use_cases": [{"description": "Regression", "method": "quantitative"}]}]}`

	entries, err := Parse(strings.NewReader(js))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "spss" || entries[0].Fields.Tags[0] != "statistics" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing id", "tools:\n  - name: NoID\n", "id is required"},
		{"duplicate id", "tools:\n  - id: a\n    name: A\n  - id: a\n    name: B\n", "duplicate id"},
		{"malformed", "tools: [", "decode catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	entries, err := Parse(strings.NewReader(""))
	if err != nil || len(entries) != 0 {
		t.Errorf("expected empty result, got %v %v", entries, err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	entries, err := Load(path)
	if err != nil || len(entries) != 2 {
		t.Fatalf("Load = %d entries, err %v", len(entries), err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
