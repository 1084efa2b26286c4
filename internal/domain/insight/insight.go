package insight

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Known insight types. The taxonomy is open: any slug matching typeRegex is accepted.
const (
	TypeToolFeedback    = "tool_feedback"
	TypeToolUsage       = "tool_usage"
	TypeMethodology     = "methodology"
	TypeResearchFinding = "research_finding"
	TypeMarketInsight   = "market_insight"
	TypePattern         = "pattern"
	TypeGap             = "gap"
)

// DefaultSource is the provenance tag applied when the caller gives none.
const DefaultSource = "system"

// MaxContentLength is the maximum insight content length in bytes.
const MaxContentLength = 4096

var typeRegex = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Metadata is the bookkeeping attached to an insight.
type Metadata struct {
	Tags         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastUsed     time.Time
	UseCount     int64
	Confidence   float64
	ValidatedBy  []string
	Source       string
	RelatedTools []string

	// Tool-scoped fields, set for tool_feedback and tool_usage insights.
	ToolID         string
	Success        *bool
	QueryContext   string
	WasRecommended bool
}

// Insight is a reusable piece of knowledge distilled from conversations.
type Insight struct {
	id        string
	content   string
	insType   string
	embedding []float32
	metadata  Metadata

	// Retrieval annotations, never persisted.
	score               float64
	matchedConcept      string
	contextualRelevance *float64
	relevanceReason     string
}

// Input is the caller-provided part of a new insight.
type Input struct {
	Tags           []string
	Source         string
	RelatedTools   []string
	ToolID         string
	Success        *bool
	QueryContext   string
	WasRecommended bool
}

// Validate checks content and type. Returned errors are reported to callers as rejections.
func Validate(content, insType string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if len(content) > MaxContentLength {
		return fmt.Errorf("content too long (max %d bytes)", MaxContentLength)
	}
	if !typeRegex.MatchString(insType) {
		return fmt.Errorf("type must match %s", typeRegex.String())
	}
	return nil
}

// New builds a fresh insight after validation and the quality gate have passed.
func New(id, content, insType string, in Input, confidence float64, embedding []float32, now time.Time) (Insight, error) {
	if id == "" {
		return Insight{}, fmt.Errorf("insight ID is required")
	}
	if err := Validate(content, insType); err != nil {
		return Insight{}, err
	}
	source := in.Source
	if source == "" {
		source = DefaultSource
	}
	return Insight{
		id:        id,
		content:   content,
		insType:   insType,
		embedding: embedding,
		metadata: Metadata{
			Tags:           dedupe(in.Tags),
			CreatedAt:      now,
			UpdatedAt:      now,
			LastUsed:       now,
			UseCount:       0,
			Confidence:     confidence,
			ValidatedBy:    []string{},
			Source:         source,
			RelatedTools:   dedupe(in.RelatedTools),
			ToolID:         in.ToolID,
			Success:        in.Success,
			QueryContext:   in.QueryContext,
			WasRecommended: in.WasRecommended,
		},
	}, nil
}

// Reconstruct creates an Insight without validation (storage hydration).
func Reconstruct(id, content, insType string, embedding []float32, md Metadata) Insight {
	return Insight{id: id, content: content, insType: insType, embedding: embedding, metadata: md}
}

// EmbeddingText is the text vectorized for an insight: content followed by its tags.
func EmbeddingText(content string, tags []string) string {
	if len(tags) == 0 {
		return content
	}
	return content + " " + strings.Join(tags, " ")
}

// ID returns the insight identifier.
func (i *Insight) ID() string { return i.id }

// Content returns the insight text.
func (i *Insight) Content() string { return i.content }

// Type returns the insight type slug.
func (i *Insight) Type() string { return i.insType }

// Embedding returns the stored vector. Empty for listings.
func (i *Insight) Embedding() []float32 { return i.embedding }

// Metadata returns the bookkeeping fields.
func (i *Insight) Metadata() Metadata { return i.metadata }

// Score returns the vector similarity from the retrieval that produced this insight.
func (i *Insight) Score() float64 { return i.score }

// MatchedConcept returns the concept whose query surfaced this insight, if any.
func (i *Insight) MatchedConcept() string { return i.matchedConcept }

// ContextualRelevance returns the judge's relevance and whether a rerank assigned one.
func (i *Insight) ContextualRelevance() (float64, bool) {
	if i.contextualRelevance == nil {
		return 0, false
	}
	return *i.contextualRelevance, true
}

// RelevanceReason returns the judge's explanation for the relevance score.
func (i *Insight) RelevanceReason() string { return i.relevanceReason }

// WithScore returns a copy annotated with a retrieval score.
func (i Insight) WithScore(s float64) Insight {
	i.score = s
	return i
}

// WithMatchedConcept returns a copy tagged with the concept that found it.
func (i Insight) WithMatchedConcept(c string) Insight {
	i.matchedConcept = c
	return i
}

// WithRelevance returns a copy annotated with a judge relevance score.
func (i Insight) WithRelevance(r float64, reason string) Insight {
	i.contextualRelevance = &r
	i.relevanceReason = reason
	return i
}

// WithoutEmbedding returns a copy with the vector dropped.
func (i Insight) WithoutEmbedding() Insight {
	i.embedding = nil
	return i
}

// Touched returns a copy with useCount incremented and lastUsed refreshed.
func (i Insight) Touched(now time.Time) Insight {
	i.metadata.UseCount++
	i.metadata.LastUsed = now
	return i
}

// Edited returns a copy with replaced content, type and embedding.
func (i Insight) Edited(content, insType string, embedding []float32, now time.Time) Insight {
	i.content = content
	i.insType = insType
	i.embedding = embedding
	i.metadata.UpdatedAt = now
	return i
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
