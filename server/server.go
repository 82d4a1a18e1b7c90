// Package server exposes the assistant over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/kataras/golog"

	"github.com/saleschat/saleschat/assistant"
	"github.com/saleschat/saleschat/db"
	"github.com/saleschat/saleschat/history"
)

// Processor answers questions end to end.
type Processor interface {
	Process(ctx context.Context, sessionID, question string) assistant.Response
}

// HistoryStore reads and clears per-session chat history.
type HistoryStore interface {
	Messages(ctx context.Context, sessionID string) ([]history.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// SchemaProvider describes the database for display: the rendered schema and
// row previews per table.
type SchemaProvider interface {
	SchemaString(ctx context.Context) (string, error)
	SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error)
}

// Server routes HTTP requests to the assistant.
type Server struct {
	processor Processor
	history   HistoryStore
	schema    SchemaProvider
	logger    *golog.Logger
	mux       *http.ServeMux
}

// New creates a Server. The history store may be nil, in which case the
// history endpoints report that history is disabled. A nil logger falls back
// to the golog default.
func New(processor Processor, hist HistoryStore, schema SchemaProvider, logger *golog.Logger) *Server {
	if logger == nil {
		logger = golog.Default
	}
	s := &Server{
		processor: processor,
		history:   hist,
		schema:    schema,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("DELETE /api/history", s.handleClearHistory)
	s.mux.HandleFunc("GET /api/schema", s.handleSchema)
	s.mux.HandleFunc("GET /api/sample", s.handleSample)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	assistant.Response
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	s.logger.Infof("server: session %s question %q", req.SessionID, req.Question)
	resp := s.processor.Process(r.Context(), req.SessionID, req.Question)

	s.respondJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Response: resp})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	messages, err := s.history.Messages(r.Context(), sessionID)
	if err != nil {
		s.logger.Errorf("server: loading history for session %s: %v", sessionID, err)
		s.respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	if err := s.history.Clear(r.Context(), sessionID); err != nil {
		s.logger.Errorf("server: clearing history for session %s: %v", sessionID, err)
		s.respondError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"cleared":    true,
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.schema.SchemaString(r.Context())
	if err != nil {
		s.logger.Errorf("server: rendering schema: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load schema")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"schema": schema})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table == "" {
		s.respondError(w, http.StatusBadRequest, "table is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	rows, err := s.schema.SampleRows(r.Context(), table, limit)
	if err != nil {
		if errors.Is(err, db.ErrUnknownTable) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Errorf("server: sampling table %s: %v", table, err)
		s.respondError(w, http.StatusInternalServerError, "failed to sample table")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"table": table,
		"rows":  rows,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// sessionID extracts and validates the session_id query parameter for the
// history endpoints, writing the error response itself when validation fails.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "chat history is not enabled")
		return "", false
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.respondError(w, http.StatusBadRequest, "session_id is required")
		return "", false
	}
	return sessionID, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("server: encoding response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
