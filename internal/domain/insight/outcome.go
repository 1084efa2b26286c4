package insight

// Outcome classifies what AddInsight did with a candidate.
type Outcome string

const (
	// OutcomeCreated means a new insight was stored.
	OutcomeCreated Outcome = "created"
	// OutcomeDuplicate means a near-identical insight already existed and was touched instead.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeRejected means validation or the quality gate refused the candidate. Nothing was written.
	OutcomeRejected Outcome = "rejected"
)

// AddResult is the non-exceptional result of an ingestion attempt.
type AddResult struct {
	Insight *Insight
	Outcome Outcome
	Reason  string
}

// Rejected builds an AddResult for a refused candidate.
func Rejected(reason string) AddResult {
	return AddResult{Outcome: OutcomeRejected, Reason: reason}
}
