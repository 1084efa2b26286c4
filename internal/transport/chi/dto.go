package chi

import (
	"time"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
	"github.com/kailas-cloud/toolsage/internal/domain/search/result"
	domtool "github.com/kailas-cloud/toolsage/internal/domain/tool"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- Search ---

type searchFilters struct {
	Type       string   `json:"type"`
	Pricing    string   `json:"pricing"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
}

type searchRequest struct {
	Query      string         `json:"query"`
	SearchType string         `json:"search_type"`
	Filters    *searchFilters `json:"filters"`
	Limit      int            `json:"limit"`
	Threshold  *float64       `json:"threshold"`
}

type searchResultItem struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Type         string             `json:"type,omitempty"`
	Pricing      string             `json:"pricing,omitempty"`
	URL          string             `json:"url,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	Categories   []string           `json:"categories,omitempty"`
	Score        float64            `json:"score"`
	MatchDetails map[string]float64 `json:"match_details,omitempty"`
	SearchType   string             `json:"search_type"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

func searchResultToDTO(r *result.Result) searchResultItem {
	p := r.Payload()
	return searchResultItem{
		ID:           r.ID(),
		Name:         p.Name,
		Description:  p.Description,
		Type:         p.Type,
		Pricing:      p.Pricing,
		URL:          p.URL,
		Tags:         p.Tags,
		Categories:   p.Categories,
		Score:        r.Score(),
		MatchDetails: r.MatchDetails(),
		SearchType:   string(r.SearchType()),
	}
}

// --- Insights ---

type messageDTO struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at,omitzero"`
}

type contextDTO struct {
	RecentMessages []messageDTO `json:"recent_messages"`
	CurrentTopic   string       `json:"current_topic"`
}

func (c *contextDTO) toDomain() domain.KnowledgeContext {
	if c == nil {
		return domain.KnowledgeContext{}
	}
	msgs := make([]domain.Message, len(c.RecentMessages))
	for i, m := range c.RecentMessages {
		msgs[i] = domain.Message{Role: m.Role, Content: m.Content, At: m.At}
	}
	return domain.KnowledgeContext{RecentMessages: msgs, CurrentTopic: c.CurrentTopic}
}

type createInsightRequest struct {
	Content      string   `json:"content"`
	Type         string   `json:"type"`
	Tags         []string `json:"tags"`
	Source       string   `json:"source"`
	RelatedTools []string `json:"related_tools"`
}

type updateInsightRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type queryRequest struct {
	Query     string      `json:"query"`
	Limit     int         `json:"limit"`
	SessionID string      `json:"session_id"`
	Context   *contextDTO `json:"context"`
}

type metadataDTO struct {
	Tags           []string  `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastUsed       time.Time `json:"last_used"`
	UseCount       int64     `json:"use_count"`
	Confidence     float64   `json:"confidence"`
	ValidatedBy    []string  `json:"validated_by,omitempty"`
	Source         string    `json:"source"`
	RelatedTools   []string  `json:"related_tools,omitempty"`
	ToolID         string    `json:"tool_id,omitempty"`
	Success        *bool     `json:"success,omitempty"`
	QueryContext   string    `json:"query_context,omitempty"`
	WasRecommended bool      `json:"was_recommended,omitempty"`
}

type insightDTO struct {
	ID                  string      `json:"id"`
	Content             string      `json:"content"`
	Type                string      `json:"type"`
	Metadata            metadataDTO `json:"metadata"`
	Score               *float64    `json:"score,omitempty"`
	MatchedConcept      string      `json:"matched_concept,omitempty"`
	ContextualRelevance *float64    `json:"contextual_relevance,omitempty"`
	RelevanceReason     string      `json:"relevance_reason,omitempty"`
}

type insightListResponse struct {
	Items []insightDTO `json:"items"`
	Total int          `json:"total"`
}

type addInsightResponse struct {
	Outcome string      `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
	Insight *insightDTO `json:"insight,omitempty"`
}

func insightToDTO(ins *dominsight.Insight, withScore bool) insightDTO {
	md := ins.Metadata()
	dto := insightDTO{
		ID:      ins.ID(),
		Content: ins.Content(),
		Type:    ins.Type(),
		Metadata: metadataDTO{
			Tags:           md.Tags,
			CreatedAt:      md.CreatedAt,
			UpdatedAt:      md.UpdatedAt,
			LastUsed:       md.LastUsed,
			UseCount:       md.UseCount,
			Confidence:     md.Confidence,
			ValidatedBy:    md.ValidatedBy,
			Source:         md.Source,
			RelatedTools:   md.RelatedTools,
			ToolID:         md.ToolID,
			Success:        md.Success,
			QueryContext:   md.QueryContext,
			WasRecommended: md.WasRecommended,
		},
		MatchedConcept:  ins.MatchedConcept(),
		RelevanceReason: ins.RelevanceReason(),
	}
	if withScore {
		score := ins.Score()
		dto.Score = &score
	}
	if rel, ok := ins.ContextualRelevance(); ok {
		dto.ContextualRelevance = &rel
	}
	return dto
}

func insightsToDTO(items []dominsight.Insight, withScore bool) insightListResponse {
	out := make([]insightDTO, len(items))
	for i := range items {
		out[i] = insightToDTO(&items[i], withScore)
	}
	return insightListResponse{Items: out, Total: len(out)}
}

func addResultToDTO(res dominsight.AddResult) addInsightResponse {
	resp := addInsightResponse{Outcome: string(res.Outcome), Reason: res.Reason}
	if res.Insight != nil {
		dto := insightToDTO(res.Insight, false)
		resp.Insight = &dto
	}
	return resp
}

// --- Tools ---

type useCaseDTO struct {
	Description string `json:"description"`
	Method      string `json:"method,omitempty"`
}

type toolRequest struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Pricing     string       `json:"pricing"`
	URL         string       `json:"url"`
	Tags        []string     `json:"tags"`
	Categories  []string     `json:"categories"`
	UseCases    []useCaseDTO `json:"use_cases"`
}

func (t *toolRequest) fields() domtool.Fields {
	ucs := make([]domtool.UseCase, len(t.UseCases))
	for i, u := range t.UseCases {
		ucs[i] = domtool.UseCase{Description: u.Description, Method: u.Method}
	}
	return domtool.Fields{
		Name:        t.Name,
		Description: t.Description,
		Type:        t.Type,
		Pricing:     t.Pricing,
		URL:         t.URL,
		Tags:        t.Tags,
		Categories:  t.Categories,
		UseCases:    ucs,
	}
}

type toolDTO struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        string       `json:"type,omitempty"`
	Pricing     string       `json:"pricing,omitempty"`
	URL         string       `json:"url,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Categories  []string     `json:"categories,omitempty"`
	UseCases    []useCaseDTO `json:"use_cases,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type toolListResponse struct {
	Items  []toolDTO `json:"items"`
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

func toolToDTO(t *domtool.Tool) toolDTO {
	var ucs []useCaseDTO
	for _, u := range t.UseCases() {
		ucs = append(ucs, useCaseDTO{Description: u.Description, Method: u.Method})
	}
	return toolDTO{
		ID:          t.ID(),
		Name:        t.Name(),
		Description: t.Description(),
		Type:        t.Type(),
		Pricing:     t.Pricing(),
		URL:         t.URL(),
		Tags:        t.Tags(),
		Categories:  t.Categories(),
		UseCases:    ucs,
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
	}
}

type feedbackRequest struct {
	Success *bool  `json:"success"`
	Comment string `json:"comment"`
}

type usageRequest struct {
	QueryContext   string `json:"query_context"`
	WasRecommended bool   `json:"was_recommended"`
}

type feedbackRefDTO struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context,omitempty"`
}

type toolMetricsDTO struct {
	TotalUses      int64            `json:"total_uses"`
	SuccessfulUses int64            `json:"successful_uses"`
	RecentFeedback []feedbackRefDTO `json:"recent_feedback"`
}

type toolUsageResponse struct {
	ToolID          string         `json:"tool_id"`
	TotalUses       int            `json:"total_uses"`
	SuccessfulUses  int            `json:"successful_uses"`
	SuccessRate     float64        `json:"success_rate"`
	RelatedInsights []insightDTO   `json:"related_insights"`
	Feedback        toolMetricsDTO `json:"feedback"`
}

func toolUsageToDTO(toolID string, st dominsight.UsageStats, tm dominsight.ToolMetrics) toolUsageResponse {
	related := make([]insightDTO, len(st.RelatedInsights))
	for i := range st.RelatedInsights {
		related[i] = insightToDTO(&st.RelatedInsights[i], true)
	}
	recent := make([]feedbackRefDTO, len(tm.RecentFeedback))
	for i, f := range tm.RecentFeedback {
		recent[i] = feedbackRefDTO(f)
	}
	return toolUsageResponse{
		ToolID:          toolID,
		TotalUses:       st.TotalUses,
		SuccessfulUses:  st.SuccessfulUses,
		SuccessRate:     st.SuccessRate,
		RelatedInsights: related,
		Feedback: toolMetricsDTO{
			TotalUses:      tm.TotalUses,
			SuccessfulUses: tm.SuccessfulUses,
			RecentFeedback: recent,
		},
	}
}

// --- Sessions ---

type appendMessageRequest struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	CurrentTopic string `json:"current_topic"`
}

type sessionResponse struct {
	ID           string       `json:"id"`
	Messages     []messageDTO `json:"messages"`
	CurrentTopic string       `json:"current_topic,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// --- Learning ---

type recentRefDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type dailyMetricsResponse struct {
	Date           string           `json:"date"`
	InsightsByType map[string]int64 `json:"insights_by_type"`
	TotalInsights  int64            `json:"total_insights"`
	RecentInsights []recentRefDTO   `json:"recent_insights"`
	LastUpdate     time.Time        `json:"last_update,omitzero"`
}

func dailyMetricsToDTO(m dominsight.DailyMetrics) dailyMetricsResponse {
	recent := make([]recentRefDTO, len(m.RecentInsights))
	for i, r := range m.RecentInsights {
		recent[i] = recentRefDTO(r)
	}
	byType := m.InsightsByType
	if byType == nil {
		byType = map[string]int64{}
	}
	return dailyMetricsResponse{
		Date:           m.Date,
		InsightsByType: byType,
		TotalInsights:  m.TotalInsights,
		RecentInsights: recent,
		LastUpdate:     m.LastUpdate,
	}
}

type queryPatternDTO struct {
	ToolID        string   `json:"tool_id"`
	QueryContexts []string `json:"query_contexts"`
	UseCount      int      `json:"use_count"`
	AverageScore  float64  `json:"average_score"`
}

type queryPatternsResponse struct {
	Items []queryPatternDTO `json:"items"`
}
