package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
	"github.com/lectern/lectern/internal/tools"
)

// QuerySystem is the part of the RAG system the handlers depend on.
type QuerySystem interface {
	Answer(ctx context.Context, sessionID uuid.UUID, question string) (string, []tools.Source, uuid.UUID, error)
	Stats(ctx context.Context) (*rag.Stats, error)
}

// QueryRequest is the POST /api/query body. SessionID is optional; when
// empty a new session is created.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the POST /api/query reply.
type QueryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

// QueryHandler handles the question answering endpoint.
type QueryHandler struct {
	system QuerySystem
	logger log.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(system QuerySystem, logger log.Logger) *QueryHandler {
	return &QueryHandler{system: system, logger: logger}
}

// RegisterRoutes registers the query route on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.handleQuery)
}

func (h *QueryHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required")
		return
	}

	sessionID := uuid.Nil
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "session_id must be a UUID")
			return
		}
		sessionID = id
	}

	answer, sources, sid, err := h.system.Answer(r.Context(), sessionID, req.Query)
	if err != nil {
		h.logger.Error("query failed", "error", err, "session_id", sid)
		writeError(w, http.StatusInternalServerError, "query_failed", "failed to answer the question")
		return
	}

	if sources == nil {
		sources = []tools.Source{}
	}
	writeJSON(w, http.StatusOK, QueryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sid.String(),
	})
}
