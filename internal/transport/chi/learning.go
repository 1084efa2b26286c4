package chi

import (
	"net/http"

	"github.com/kailas-cloud/toolsage/internal/domain"
)

// GetLearningMetrics handles GET /learning/metrics?date=YYYY-MM-DD. No date means today.
func (s *Server) GetLearningMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.insights.Metrics(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyMetricsToDTO(m))
}

// GetQueryPatterns handles GET /learning/patterns?query=...
func (s *Server) GetQueryPatterns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		s.handleDomainError(w, r, domain.NewValidationError("query", "is required"))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	patterns, err := s.insights.SimilarQueryPatterns(ctx, query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]queryPatternDTO, len(patterns))
	for i, p := range patterns {
		items[i] = queryPatternDTO(p)
	}
	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, queryPatternsResponse{Items: items})
}
