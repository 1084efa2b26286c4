package result

import "github.com/kailas-cloud/toolsage/internal/domain/search/mode"

// Keys used in MatchDetails.
const (
	SourceSemantic = "semantic"
	SourceKeyword  = "keyword"
	DetailWeighted = "weighted"
)

// Payload is the display data of a tool search hit.
type Payload struct {
	Name        string
	Description string
	Type        string
	Pricing     string
	URL         string
	Tags        []string
	Categories  []string
}

// Result is a single tool search hit.
type Result struct {
	id           string
	score        float64
	payload      Payload
	matchDetails map[string]float64
	searchType   mode.Mode
}

// New creates a search result with a raw source score.
func New(id string, score float64, p Payload, searchType mode.Mode) Result {
	return Result{id: id, score: score, payload: p, searchType: searchType}
}

// ID returns the tool identifier.
func (r *Result) ID() string { return r.id }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Payload returns the display data.
func (r *Result) Payload() Payload { return r.payload }

// Name returns the tool name.
func (r *Result) Name() string { return r.payload.Name }

// Description returns the tool description.
func (r *Result) Description() string { return r.payload.Description }

// Type returns the tool type.
func (r Result) Type() string { return r.payload.Type }

// Pricing returns the pricing model.
func (r Result) Pricing() string { return r.payload.Pricing }

// Tags returns the tool tags.
func (r Result) Tags() []string { return r.payload.Tags }

// Categories returns the tool categories.
func (r Result) Categories() []string { return r.payload.Categories }

// MatchDetails returns per-source normalized scores plus the last weighted score.
func (r *Result) MatchDetails() map[string]float64 { return r.matchDetails }

// SearchType returns which strategy produced the result.
func (r *Result) SearchType() mode.Mode { return r.searchType }

// WithScore returns a copy with a replaced score.
func (r Result) WithScore(s float64) Result {
	r.score = s
	return r
}

// WithMatch returns a copy with the given match details and search type.
func (r Result) WithMatch(details map[string]float64, st mode.Mode) Result {
	r.matchDetails = details
	r.searchType = st
	return r
}
