package domain

import (
	"context"
	"time"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// KnowledgeContext is the conversational context used for concept extraction and reranking.
type KnowledgeContext struct {
	RecentMessages []Message
	CurrentTopic   string
}

// IsEmpty reports whether the context carries nothing a judge could use.
func (k KnowledgeContext) IsEmpty() bool {
	return len(k.RecentMessages) == 0 && k.CurrentTopic == ""
}

// LastMessages returns at most n of the most recent messages, oldest first.
func (k KnowledgeContext) LastMessages(n int) []Message {
	if n <= 0 || len(k.RecentMessages) == 0 {
		return nil
	}
	if len(k.RecentMessages) <= n {
		return k.RecentMessages
	}
	return k.RecentMessages[len(k.RecentMessages)-n:]
}

// QualityVerdict is the judge's opinion on whether content is worth storing.
type QualityVerdict struct {
	Qualified  bool
	Confidence float64
	Reason     string
}

// RankCandidate is an item submitted to the judge for contextual ranking.
type RankCandidate struct {
	Type    string
	Content string
}

// Ranking is the judge's relevance verdict for one candidate.
// Index is 1-based into the submitted candidate list.
type Ranking struct {
	Index     int
	Relevance float64
	Reason    string
}

// Judge is the LLM-backed judgment provider. Implementations must return
// ErrJudgeProviderError (wrapped) when the call fails or the output is unusable.
// Callers still validate and clamp every returned value.
type Judge interface {
	CheckQuality(ctx context.Context, content, insightType string) (QualityVerdict, error)
	ExtractConcepts(ctx context.Context, query string, recent []Message) ([]string, error)
	Rank(ctx context.Context, query string, kctx KnowledgeContext, items []RankCandidate) ([]Ranking, error)
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
