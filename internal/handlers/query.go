package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"codefour-rag/internal/contextutil"
	"codefour-rag/internal/ingest"
	"codefour-rag/internal/retrieval"
)

// QueryHandler handles HTTP requests for legal research queries.
type QueryHandler struct {
	engine retrieval.Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine retrieval.Engine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for legal research queries.
//
// Ask a question about Wisconsin statutes, case law and department policy.
// The optional doc_type_filter restricts retrieval to one document type.
//
// swagger:route POST /api/query query
//
// responses:
//
//	'200':
//	  description: Answer with sources and confidence
//	'400':
//	  description: Bad request (empty question or invalid filter)
//	'502':
//	  description: External service error (LLM or embedding service)
//	'503':
//	  description: Vector index unavailable
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req retrieval.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.DocTypeFilter != "" && !ingest.DocType(req.DocTypeFilter).Valid() {
		logger.WarnContext(ctx, "invalid doc type filter", "doc_type_filter", req.DocTypeFilter)
		h.writeError(w, http.StatusBadRequest, "Invalid doc_type_filter")
		return
	}

	resp, err := h.engine.Query(ctx, req)
	if err != nil {
		h.handleQueryError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleQueryError maps engine errors to HTTP status codes.
func (h *QueryHandler) handleQueryError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "query engine error", "error", err)

	switch {
	case errors.Is(err, retrieval.ErrEmptyQuery):
		h.writeError(w, http.StatusBadRequest, "Question is required")
	case errors.Is(err, retrieval.ErrIndexUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "Vector index unavailable")
	case errors.Is(err, retrieval.ErrEmbedding), errors.Is(err, retrieval.ErrGeneration):
		h.writeError(w, http.StatusBadGateway, "External service error")
	default:
		h.writeError(w, http.StatusInternalServerError, "Failed to process query")
	}
}

// writeError writes an error response.
func (h *QueryHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
