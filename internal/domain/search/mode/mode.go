package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid runs semantic and keyword search concurrently and merges them.
	Hybrid   Mode = "hybrid"
	Semantic Mode = "semantic"
	Keyword  Mode = "keyword"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Keyword
}

// Parse maps an empty string to Hybrid and rejects unknown values.
func Parse(s string) (Mode, bool) {
	if s == "" {
		return Hybrid, true
	}
	m := Mode(s)
	return m, m.IsValid()
}
