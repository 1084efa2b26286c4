package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/domain"
	logpkg "github.com/kailas-cloud/toolsage/internal/logger"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest                = "bad_request"
	codeUnauthorized              = "unauthorized"
	codeValidationFailed          = "validation_failed"
	codeNotFound                  = "not_found"
	codeRateLimited               = "rate_limited"
	codeEmbeddingProviderError    = "embedding_provider_error"
	codeJudgeProviderError        = "judge_provider_error"
	codeKeywordSearchNotSupported = "keyword_search_not_supported"
	codeInternalError             = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorMapping pairs a sentinel with its HTTP status. Order matters: the first match wins.
type errorMapping struct {
	sentinel error
	status   int
	code     string
}

var errorMappings = []errorMapping{
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed},
	{domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError},
	{domain.ErrJudgeProviderError, http.StatusBadGateway, codeJudgeProviderError},
	{domain.ErrKeywordSearchNotSupported, http.StatusNotImplemented, codeKeywordSearchNotSupported},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// handleDomainError maps a use case error to a response. Validation messages are
// safe to echo; everything else is reduced to its sentinel text.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, m := range errorMappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		log.Warn("domain error", zap.Error(err))
		writeError(w, m.status, m.code, safeMessage(err, m.sentinel))
		return
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func safeMessage(err, sentinel error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if errors.Is(sentinel, domain.ErrInvalidRequest) {
		return err.Error()
	}
	if errors.Is(err, domain.ErrToolNotFound) {
		return domain.ErrToolNotFound.Error()
	}
	if errors.Is(err, domain.ErrInsightNotFound) {
		return domain.ErrInsightNotFound.Error()
	}
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.ErrSessionNotFound.Error()
	}
	return sentinel.Error()
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if n := usage.EmbeddingTokens(); n > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(n, 10))
	}
	if n := usage.JudgeTokens(); n > 0 {
		w.Header().Set("X-Judge-Tokens", strconv.FormatInt(n, 10))
	}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return v, nil
}
