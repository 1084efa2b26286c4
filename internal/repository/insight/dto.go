package insight

import (
	"encoding/json"
	"fmt"
	"time"

	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
)

type insightDoc struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Type      string      `json:"type"`
	Embedding []float32   `json:"embedding,omitempty"`
	Metadata  metadataDoc `json:"metadata"`
}

type metadataDoc struct {
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedAtUnix  int64     `json:"created_at_unix"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastUsed       time.Time `json:"last_used"`
	UseCount       int64     `json:"use_count"`
	Confidence     float64   `json:"confidence"`
	ValidatedBy    []string  `json:"validated_by"`
	Source         string    `json:"source"`
	RelatedTools   []string  `json:"related_tools"`
	ToolID         string    `json:"tool_id,omitempty"`
	Success        *bool     `json:"success,omitempty"`
	QueryContext   string    `json:"query_context,omitempty"`
	WasRecommended bool      `json:"was_recommended,omitempty"`
}

func toDoc(i *dominsight.Insight) insightDoc {
	md := i.Metadata()
	return insightDoc{
		ID:        i.ID(),
		Content:   i.Content(),
		Type:      i.Type(),
		Embedding: i.Embedding(),
		Metadata: metadataDoc{
			Tags:           nonNil(md.Tags),
			CreatedAt:      md.CreatedAt,
			CreatedAtUnix:  md.CreatedAt.UnixMilli(),
			UpdatedAt:      md.UpdatedAt,
			LastUsed:       md.LastUsed,
			UseCount:       md.UseCount,
			Confidence:     md.Confidence,
			ValidatedBy:    nonNil(md.ValidatedBy),
			Source:         md.Source,
			RelatedTools:   nonNil(md.RelatedTools),
			ToolID:         md.ToolID,
			Success:        md.Success,
			QueryContext:   md.QueryContext,
			WasRecommended: md.WasRecommended,
		},
	}
}

func (d *insightDoc) toDomain() dominsight.Insight {
	m := d.Metadata
	return dominsight.Reconstruct(d.ID, d.Content, d.Type, d.Embedding, dominsight.Metadata{
		Tags:           m.Tags,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		LastUsed:       m.LastUsed,
		UseCount:       m.UseCount,
		Confidence:     m.Confidence,
		ValidatedBy:    m.ValidatedBy,
		Source:         m.Source,
		RelatedTools:   m.RelatedTools,
		ToolID:         m.ToolID,
		Success:        m.Success,
		QueryContext:   m.QueryContext,
		WasRecommended: m.WasRecommended,
	})
}

func decodeDoc(raw string) (insightDoc, error) {
	var d insightDoc
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return insightDoc{}, fmt.Errorf("unmarshal insight doc: %w", err)
	}
	return d, nil
}

func decodeJSONGet(raw []byte) (insightDoc, bool, error) {
	var docs []insightDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return insightDoc{}, false, fmt.Errorf("unmarshal insight doc: %w", err)
	}
	if len(docs) == 0 {
		return insightDoc{}, false, nil
	}
	return docs[0], true, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
