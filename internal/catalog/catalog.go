// Package catalog reads tool catalog files used to seed the tool index.
// Files are YAML; JSON catalogs parse as well.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
	tooluc "github.com/kailas-cloud/toolsage/internal/usecase/tool"
)

type useCaseFile struct {
	Description string `yaml:"description"`
	Method      string `yaml:"method"`
}

type toolFile struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Type        string        `yaml:"type"`
	Pricing     string        `yaml:"pricing"`
	URL         string        `yaml:"url"`
	Tags        []string      `yaml:"tags"`
	Categories  []string      `yaml:"categories"`
	UseCases    []useCaseFile `yaml:"use_cases"`
}

type catalogFile struct {
	Tools []toolFile `yaml:"tools"`
}

// Load reads and parses a catalog file.
func Load(path string) ([]tooluc.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes a catalog. Every entry needs a unique id so re-seeding replaces instead of duplicating.
func Parse(r io.Reader) ([]tooluc.Entry, error) {
	var c catalogFile
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Tools))
	entries := make([]tooluc.Entry, 0, len(c.Tools))
	for i, t := range c.Tools {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return nil, fmt.Errorf("tool #%d (%q): id is required", i+1, t.Name)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("tool #%d: duplicate id %q", i+1, id)
		}
		seen[id] = struct{}{}
		entries = append(entries, tooluc.Entry{ID: id, Fields: t.fields()})
	}
	return entries, nil
}

func (t toolFile) fields() domtool.Fields {
	var useCases []domtool.UseCase
	if len(t.UseCases) > 0 {
		useCases = make([]domtool.UseCase, len(t.UseCases))
		for i, uc := range t.UseCases {
			useCases[i] = domtool.UseCase{Description: uc.Description, Method: uc.Method}
		}
	}
	return domtool.Fields{
		Name:        t.Name,
		Description: t.Description,
		Type:        t.Type,
		Pricing:     t.Pricing,
		URL:         t.URL,
		Tags:        t.Tags,
		Categories:  t.Categories,
		UseCases:    useCases,
	}
}
