package domain

import (
	"context"
	"sync/atomic"
)

type tokenUsageKey struct{}

// TokenUsage collects provider token usage for a single request.
// Hybrid and concept fan-out embed concurrently, so counters are atomic.
type TokenUsage struct {
	embeddingTokens atomic.Int64
	judgeTokens     atomic.Int64
	embedCalls      atomic.Int64
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext extracts the collector from ctx. Nil when absent; all methods are nil-safe.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbedding records one embedding call.
func (u *TokenUsage) AddEmbedding(tokens int) {
	if u == nil {
		return
	}
	u.embedCalls.Add(1)
	u.embeddingTokens.Add(int64(tokens))
}

// AddJudge records tokens consumed by a judge call.
func (u *TokenUsage) AddJudge(tokens int) {
	if u == nil {
		return
	}
	u.judgeTokens.Add(int64(tokens))
}

// EmbeddingTokens returns the embedding tokens recorded so far.
func (u *TokenUsage) EmbeddingTokens() int64 {
	if u == nil {
		return 0
	}
	return u.embeddingTokens.Load()
}

// JudgeTokens returns the judge tokens recorded so far.
func (u *TokenUsage) JudgeTokens() int64 {
	if u == nil {
		return 0
	}
	return u.judgeTokens.Load()
}

// EmbedCalls returns the number of embedding calls, cache hits included.
func (u *TokenUsage) EmbedCalls() int64 {
	if u == nil {
		return 0
	}
	return u.embedCalls.Load()
}
