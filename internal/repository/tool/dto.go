package tool

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/toolsage/internal/domain/search/result"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
)

// toolDoc is the JSON document stored per tool. tags_text and use_cases_text are
// denormalized copies indexed as TEXT for fuzzy keyword search.
type toolDoc struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Type         string       `json:"type"`
	Pricing      string       `json:"pricing"`
	URL          string       `json:"url,omitempty"`
	Tags         []string     `json:"tags"`
	Categories   []string     `json:"categories"`
	UseCases     []useCaseDoc `json:"use_cases"`
	TagsText     string       `json:"tags_text"`
	UseCasesText string       `json:"use_cases_text"`
	Embedding    []float32    `json:"embedding,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type useCaseDoc struct {
	Description string `json:"description"`
	Method      string `json:"method,omitempty"`
}

func toDoc(t *domtool.Tool) toolDoc {
	ucs := make([]useCaseDoc, 0, len(t.UseCases()))
	ucText := make([]string, 0, len(t.UseCases()))
	for _, uc := range t.UseCases() {
		ucs = append(ucs, useCaseDoc{Description: uc.Description, Method: uc.Method})
		ucText = append(ucText, strings.TrimSpace(uc.Description+" "+uc.Method))
	}
	return toolDoc{
		ID:           t.ID(),
		Name:         t.Name(),
		Description:  t.Description(),
		Type:         t.Type(),
		Pricing:      t.Pricing(),
		URL:          t.URL(),
		Tags:         nonNil(t.Tags()),
		Categories:   nonNil(t.Categories()),
		UseCases:     ucs,
		TagsText:     strings.Join(t.Tags(), " "),
		UseCasesText: strings.Join(ucText, " "),
		Embedding:    t.Embedding(),
		CreatedAt:    t.CreatedAt(),
		UpdatedAt:    t.UpdatedAt(),
	}
}

func (d *toolDoc) toDomain() domtool.Tool {
	ucs := make([]domtool.UseCase, 0, len(d.UseCases))
	for _, uc := range d.UseCases {
		ucs = append(ucs, domtool.UseCase{Description: uc.Description, Method: uc.Method})
	}
	return domtool.Reconstruct(d.ID, domtool.Fields{
		Name:        d.Name,
		Description: d.Description,
		Type:        d.Type,
		Pricing:     d.Pricing,
		URL:         d.URL,
		Tags:        d.Tags,
		Categories:  d.Categories,
		UseCases:    ucs,
	}, d.Embedding, d.CreatedAt, d.UpdatedAt)
}

func (d *toolDoc) payload() result.Payload {
	return result.Payload{
		Name:        d.Name,
		Description: d.Description,
		Type:        d.Type,
		Pricing:     d.Pricing,
		URL:         d.URL,
		Tags:        d.Tags,
		Categories:  d.Categories,
	}
}

// searchableText is everything the keyword index sees for this tool.
func (d *toolDoc) searchableText() string {
	return strings.Join([]string{d.Name, d.Description, d.TagsText, d.UseCasesText}, " ")
}

// decodeDoc parses a FT.SEARCH "$" field (a single JSON object).
func decodeDoc(raw string) (toolDoc, error) {
	var d toolDoc
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return toolDoc{}, fmt.Errorf("unmarshal tool doc: %w", err)
	}
	return d, nil
}

// decodeJSONGet parses a JSON.GET "$" reply (an array with one object).
func decodeJSONGet(raw []byte) (toolDoc, bool, error) {
	var docs []toolDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return toolDoc{}, false, fmt.Errorf("unmarshal tool doc: %w", err)
	}
	if len(docs) == 0 {
		return toolDoc{}, false, nil
	}
	return docs[0], true, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
