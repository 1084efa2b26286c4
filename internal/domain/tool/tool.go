package tool

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Field limits.
const (
	MaxNameLength        = 256
	MaxDescriptionLength = 8192
	MaxTags              = 64
	MaxUseCases          = 32
)

// UseCase describes one documented application of a tool.
type UseCase struct {
	Description string
	Method      string
}

// Tool is a searchable research tool record.
type Tool struct {
	id          string
	name        string
	description string
	toolType    string
	pricing     string
	url         string
	tags        []string
	categories  []string
	useCases    []UseCase
	embedding   []float32
	createdAt   time.Time
	updatedAt   time.Time
}

// Fields is the writable part of a tool.
type Fields struct {
	Name        string
	Description string
	Type        string
	Pricing     string
	URL         string
	Tags        []string
	Categories  []string
	UseCases    []UseCase
}

// New validates and creates a Tool. Tags and categories are trimmed, lowercased and deduplicated.
func New(id string, f Fields, now time.Time) (Tool, error) {
	if id == "" {
		return Tool{}, fmt.Errorf("tool ID is required")
	}
	if len(id) > 256 || !idRegex.MatchString(id) {
		return Tool{}, fmt.Errorf("tool ID must be 1-256 alphanumeric chars, underscores or hyphens")
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return Tool{}, fmt.Errorf("name is required")
	}
	if len(name) > MaxNameLength {
		return Tool{}, fmt.Errorf("name too long (max %d)", MaxNameLength)
	}
	if len(f.Description) > MaxDescriptionLength {
		return Tool{}, fmt.Errorf("description too long (max %d)", MaxDescriptionLength)
	}
	if len(f.Tags) > MaxTags || len(f.Categories) > MaxTags {
		return Tool{}, fmt.Errorf("too many tags or categories (max %d)", MaxTags)
	}
	if len(f.UseCases) > MaxUseCases {
		return Tool{}, fmt.Errorf("too many use cases (max %d)", MaxUseCases)
	}

	return Tool{
		id:          id,
		name:        name,
		description: strings.TrimSpace(f.Description),
		toolType:    strings.TrimSpace(f.Type),
		pricing:     strings.TrimSpace(f.Pricing),
		url:         strings.TrimSpace(f.URL),
		tags:        normalizeLabels(f.Tags),
		categories:  normalizeLabels(f.Categories),
		useCases:    append([]UseCase(nil), f.UseCases...),
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct creates a Tool without validation (storage hydration).
func Reconstruct(id string, f Fields, embedding []float32, createdAt, updatedAt time.Time) Tool {
	return Tool{
		id: id, name: f.Name, description: f.Description, toolType: f.Type,
		pricing: f.Pricing, url: f.URL, tags: f.Tags, categories: f.Categories,
		useCases: f.UseCases, embedding: embedding, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the tool identifier.
func (t *Tool) ID() string { return t.id }

// Name returns the display name.
func (t *Tool) Name() string { return t.name }

// Description returns the free-text description.
func (t *Tool) Description() string { return t.description }

// Type returns the tool type, e.g. "survey" or "analytics".
func (t *Tool) Type() string { return t.toolType }

// Pricing returns the pricing model, e.g. "free" or "paid".
func (t *Tool) Pricing() string { return t.pricing }

// URL returns the tool homepage.
func (t *Tool) URL() string { return t.url }

// Tags returns the normalized tags.
func (t *Tool) Tags() []string { return t.tags }

// Categories returns the normalized categories.
func (t *Tool) Categories() []string { return t.categories }

// UseCases returns the documented use cases.
func (t *Tool) UseCases() []UseCase { return t.useCases }

// Embedding returns the stored vector.
func (t *Tool) Embedding() []float32 { return t.embedding }

// CreatedAt returns the creation time.
func (t *Tool) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last modification time.
func (t *Tool) UpdatedAt() time.Time { return t.updatedAt }

// Fields returns the writable part of the tool.
func (t *Tool) Fields() Fields {
	return Fields{
		Name: t.name, Description: t.description, Type: t.toolType, Pricing: t.pricing,
		URL: t.url, Tags: t.tags, Categories: t.categories, UseCases: t.useCases,
	}
}

// EmbeddingText is the text vectorized for semantic search: name, description and tags.
func (t *Tool) EmbeddingText() string {
	parts := make([]string, 0, 2+len(t.tags))
	parts = append(parts, t.name, t.description)
	parts = append(parts, t.tags...)
	return strings.Join(parts, " ")
}

// WithEmbedding returns a copy carrying the given vector.
func (t Tool) WithEmbedding(v []float32) Tool {
	t.embedding = v
	return t
}

// WithCreatedAt returns a copy with the creation time replaced (used on update to keep the original).
func (t Tool) WithCreatedAt(ts time.Time) Tool {
	t.createdAt = ts
	return t
}

func normalizeLabels(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
