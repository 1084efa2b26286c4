package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/toolsage/internal/domain"
	dominsight "github.com/kailas-cloud/toolsage/internal/domain/insight"
)

// ListInsights handles GET /insights.
func (s *Server) ListInsights(w http.ResponseWriter, r *http.Request) {
	items, err := s.insights.ListAll(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightsToDTO(items, false))
}

// CreateInsight handles POST /insights. Rejections are reported with 200 and outcome "rejected".
func (s *Server) CreateInsight(w http.ResponseWriter, r *http.Request) {
	var req createInsightRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.insights.AddInsight(ctx, req.Content, req.Type, dominsight.Input{
		Tags:         req.Tags,
		Source:       req.Source,
		RelatedTools: req.RelatedTools,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, addResultStatus(res), addResultToDTO(res))
}

// QueryInsights handles POST /insights/query.
func (s *Server) QueryInsights(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	kctx, err := s.resolveContext(r, req.SessionID, req.Context)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	items, err := s.insights.FindRelevant(ctx, req.Query, kctx, req.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, insightsToDTO(items, true))
}

// GetInsight handles GET /insights/{id}.
func (s *Server) GetInsight(w http.ResponseWriter, r *http.Request) {
	ins, err := s.insights.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insightToDTO(&ins, false))
}

// UpdateInsight handles PUT /insights/{id}.
func (s *Server) UpdateInsight(w http.ResponseWriter, r *http.Request) {
	var req updateInsightRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ins, err := s.insights.Update(ctx, chi.URLParam(r, "id"), req.Content, req.Type)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, insightToDTO(&ins, false))
}

// DeleteInsight handles DELETE /insights/{id}.
func (s *Server) DeleteInsight(w http.ResponseWriter, r *http.Request) {
	if err := s.insights.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueryKnowledge handles POST /knowledge/query.
func (s *Server) QueryKnowledge(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	kctx, err := s.resolveContext(r, req.SessionID, req.Context)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	items, err := s.knowledge.FindRelevantKnowledge(ctx, req.Query, kctx)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, insightsToDTO(items, true))
}

// resolveContext loads the stored session transcript and layers the inline context on top:
// inline messages follow the stored ones and a non-empty inline topic wins.
func (s *Server) resolveContext(r *http.Request, sessionID string, inline *contextDTO) (domain.KnowledgeContext, error) {
	var kctx domain.KnowledgeContext
	if sessionID != "" && s.sessions != nil {
		stored, err := s.sessions.Context(r.Context(), sessionID)
		if err != nil {
			return domain.KnowledgeContext{}, err
		}
		kctx = stored
	}

	extra := inline.toDomain()
	if len(extra.RecentMessages) > 0 {
		msgs := make([]domain.Message, 0, len(kctx.RecentMessages)+len(extra.RecentMessages))
		msgs = append(msgs, kctx.RecentMessages...)
		kctx.RecentMessages = append(msgs, extra.RecentMessages...)
	}
	if extra.CurrentTopic != "" {
		kctx.CurrentTopic = extra.CurrentTopic
	}
	return kctx, nil
}

func addResultStatus(res dominsight.AddResult) int {
	if res.Outcome == dominsight.OutcomeCreated {
		return http.StatusCreated
	}
	return http.StatusOK
}
