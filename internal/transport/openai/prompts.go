package openai

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/toolsage/internal/domain"
)

// contextMessages is how many recent messages the judge sees.
const contextMessages = 2

func qualityPrompt(content, insightType string) string {
	return fmt.Sprintf(`Decide whether this note is worth keeping as a reusable research insight.

Content: %q
Type: %s

Judge it on:
1. Specificity: is it concrete and actionable?
2. Novelty: does it add information?
3. Reusability: will it help in future research?
4. Clarity: is it unambiguous?

Respond with a JSON object:
{"isQualified": boolean, "confidence": number between 0 and 1, "reason": string}`, content, insightType)
}

func conceptsPrompt(query string, recent []domain.Message) string {
	var b strings.Builder
	b.WriteString("List the key concepts of this research query.\n\n")
	fmt.Fprintf(&b, "Query: %q\n", query)
	if msgs := (domain.KnowledgeContext{RecentMessages: recent}).LastMessages(contextMessages); len(msgs) > 0 {
		b.WriteString("Recent conversation: ")
		for i, m := range msgs {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(m.Content)
		}
		b.WriteByte('\n')
	}
	b.WriteString(`
Focus on research methods, tool usage and concrete requirements.
Respond with a JSON object: {"concepts": [string, ...]}`)
	return b.String()
}

func rankPrompt(query string, kctx domain.KnowledgeContext, items []domain.RankCandidate) string {
	var b strings.Builder
	b.WriteString("Score how relevant each knowledge item is to the current query and conversation.\n\n")
	fmt.Fprintf(&b, "Query: %q\n", query)
	if msgs := kctx.LastMessages(contextMessages); len(msgs) > 0 {
		b.WriteString("Recent messages:\n")
		for _, m := range msgs {
			fmt.Fprintf(&b, "- %s: %s\n", m.Role, m.Content)
		}
	}
	if kctx.CurrentTopic != "" {
		fmt.Fprintf(&b, "Current topic: %s\n", kctx.CurrentTopic)
	}
	b.WriteString("\nItems:\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, it.Type, it.Content)
	}
	b.WriteString(`
Respond with a JSON object:
{"rankings": [{"index": item number, "relevanceScore": number between 0 and 1, "reason": string}]}`)
	return b.String()
}
