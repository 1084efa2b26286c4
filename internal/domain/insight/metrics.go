package insight

import "time"

// Metric window sizes.
const (
	RecentInsightsWindow = 100
	RecentFeedbackWindow = 10
)

// DayLayout formats the per-day aggregate key.
const DayLayout = "2006-01-02"

// RecentRef is one entry of the rolling window of recently created insights.
type RecentRef struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackRef is one entry of a tool's rolling feedback window.
type FeedbackRef struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context,omitempty"`
}

// DailyMetrics is the derived per-day learning aggregate. Safe to rebuild from insights.
type DailyMetrics struct {
	Date           string
	InsightsByType map[string]int64
	TotalInsights  int64
	RecentInsights []RecentRef
	LastUpdate     time.Time
}

// ToolMetrics is the derived per-tool feedback aggregate.
type ToolMetrics struct {
	ToolID         string
	TotalUses      int64
	SuccessfulUses int64
	RecentFeedback []FeedbackRef
}

// UsageStats summarizes usage and feedback insights found for a tool.
type UsageStats struct {
	TotalUses       int
	SuccessfulUses  int
	SuccessRate     float64 // percent, 0-100
	RelatedInsights []Insight
}

// QueryPattern groups similar past queries that led to the same tool.
type QueryPattern struct {
	ToolID        string
	QueryContexts []string
	UseCount      int
	AverageScore  float64
}
