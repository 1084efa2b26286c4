package chi

import (
	"net/http"

	"github.com/kailas-cloud/toolsage/internal/domain"
	"github.com/kailas-cloud/toolsage/internal/domain/search/filter"
	"github.com/kailas-cloud/toolsage/internal/domain/search/mode"
	"github.com/kailas-cloud/toolsage/internal/domain/search/request"
)

// SearchTools handles POST /search.
func (s *Server) SearchTools(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	searchReq, err := s.searchRequestFromDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.search.Search(ctx, &searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToDTO(&results[i])
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

func (s *Server) searchRequestFromDTO(req searchRequest) (request.Request, error) {
	m, ok := mode.Parse(req.SearchType)
	if !ok {
		return request.Request{}, domain.NewValidationError("search_type", "must be hybrid, semantic or keyword")
	}

	var f filter.Filter
	if req.Filters != nil {
		var err error
		f, err = filter.New(req.Filters.Type, req.Filters.Pricing, req.Filters.Tags, req.Filters.Categories)
		if err != nil {
			return request.Request{}, err
		}
	}

	limit, threshold := req.Limit, req.Threshold
	if limit == 0 {
		limit = s.searchLimit
	}
	if threshold == nil {
		threshold = s.searchThreshold
	}
	return request.New(req.Query, m, f, limit, threshold)
}
