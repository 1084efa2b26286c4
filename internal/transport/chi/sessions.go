package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AppendSessionMessage handles POST /sessions/{id}/messages.
func (s *Server) AppendSessionMessage(w http.ResponseWriter, r *http.Request) {
	var req appendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")

	sess, err := s.sessions.Append(r.Context(), id, req.Role, req.Content)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if req.CurrentTopic != "" {
		if err := s.sessions.SetTopic(r.Context(), id, req.CurrentTopic); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		sess.CurrentTopic = req.CurrentTopic
	}

	msgs := make([]messageDTO, len(sess.Messages))
	for i, m := range sess.Messages {
		msgs[i] = messageDTO{Role: m.Role, Content: m.Content, At: m.At}
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:           sess.ID,
		Messages:     msgs,
		CurrentTopic: sess.CurrentTopic,
		UpdatedAt:    sess.UpdatedAt,
	})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
