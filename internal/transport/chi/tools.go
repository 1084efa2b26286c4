package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/toolsage/internal/domain"
	"github.com/kailas-cloud/toolsage/internal/usecase/tool"
)

// ListTools handles GET /tools.
func (s *Server) ListTools(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", tool.DefaultPageSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	tools, total, err := s.tools.List(r.Context(), offset, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]toolDTO, len(tools))
	for i := range tools {
		items[i] = toolToDTO(&tools[i])
	}
	writeJSON(w, http.StatusOK, toolListResponse{Items: items, Total: total, Offset: offset, Limit: limit})
}

// CreateTool handles POST /tools. An existing id is replaced and answered with 200.
func (s *Server) CreateTool(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	t, created, err := s.tools.Create(ctx, req.ID, req.fields())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", fmt.Sprintf("/tools/%s", t.ID()))
	}
	setUsageHeaders(w, usage)
	writeJSON(w, status, toolToDTO(&t))
}

// GetTool handles GET /tools/{id}.
func (s *Server) GetTool(w http.ResponseWriter, r *http.Request) {
	t, err := s.tools.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toolToDTO(&t))
}

// UpdateTool handles PUT /tools/{id}.
func (s *Server) UpdateTool(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	t, err := s.tools.Update(ctx, chi.URLParam(r, "id"), req.fields())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, toolToDTO(&t))
}

// DeleteTool handles DELETE /tools/{id}.
func (s *Server) DeleteTool(w http.ResponseWriter, r *http.Request) {
	if err := s.tools.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddToolFeedback handles POST /tools/{id}/feedback.
func (s *Server) AddToolFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Success == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "success is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.insights.AddFeedback(ctx, chi.URLParam(r, "id"), *req.Success, req.Comment)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, addResultStatus(res), addResultToDTO(res))
}

// GetToolUsage handles GET /tools/{id}/usage.
func (s *Server) GetToolUsage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, usage := domain.NewContextWithUsage(r.Context())
	stats, err := s.insights.ToolUsageStats(ctx, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	tm, err := s.insights.ToolMetrics(ctx, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, toolUsageToDTO(id, stats, tm))
}

// RecordToolUsage handles POST /tools/{id}/usage. Recording is best effort.
func (s *Server) RecordToolUsage(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.insights.RecordToolUsage(r.Context(), chi.URLParam(r, "id"), req.QueryContext, req.WasRecommended)
	w.WriteHeader(http.StatusAccepted)
}
