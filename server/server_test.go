package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saleschat/saleschat/assistant"
	"github.com/saleschat/saleschat/db"
	"github.com/saleschat/saleschat/history"
)

type mockProcessor struct {
	lastSession  string
	lastQuestion string
}

func (m *mockProcessor) Process(ctx context.Context, sessionID, question string) assistant.Response {
	m.lastSession = sessionID
	m.lastQuestion = question
	return assistant.Response{Question: question, Type: "sql", Answer: "Total sales were $2,300."}
}

type mockHistoryStore struct {
	messages []history.Message
	err      error
	cleared  string
}

func (m *mockHistoryStore) Messages(ctx context.Context, sessionID string) ([]history.Message, error) {
	return m.messages, m.err
}

func (m *mockHistoryStore) Clear(ctx context.Context, sessionID string) error {
	m.cleared = sessionID
	return m.err
}

type mockSchemaProvider struct {
	schema    string
	rows      []map[string]any
	err       error
	lastTable string
	lastLimit int
}

func (m *mockSchemaProvider) SchemaString(ctx context.Context) (string, error) {
	return m.schema, m.err
}

func (m *mockSchemaProvider) SampleRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	m.lastTable = table
	m.lastLimit = limit
	return m.rows, m.err
}

func newTestServer(processor Processor, hist HistoryStore, schema SchemaProvider) *Server {
	return New(processor, hist, schema, nil)
}

func TestChatGeneratesSessionID(t *testing.T) {
	processor := &mockProcessor{}
	srv := newTestServer(processor, &mockHistoryStore{}, &mockSchemaProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question": "total sales?"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		SessionID string `json:"session_id"`
		Answer    string `json:"answer"`
		Type      string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resp.SessionID, processor.lastSession)
	assert.Equal(t, "total sales?", processor.lastQuestion)
	assert.Equal(t, "Total sales were $2,300.", resp.Answer)
	assert.Equal(t, "sql", resp.Type)
}

func TestChatKeepsProvidedSessionID(t *testing.T) {
	processor := &mockProcessor{}
	srv := newTestServer(processor, &mockHistoryStore{}, &mockSchemaProvider{})

	body := `{"session_id": "abc-123", "question": "hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", processor.lastSession)
}

func TestChatRejectsBadRequests(t *testing.T) {
	srv := newTestServer(&mockProcessor{}, &mockHistoryStore{}, &mockSchemaProvider{})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("blank question", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question": "   "}`))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "question is required")
	})
}

func TestHistoryEndpoint(t *testing.T) {
	hist := &mockHistoryStore{messages: []history.Message{
		{Role: history.RoleUser, Content: "hi"},
		{Role: history.RoleAssistant, Content: "hello"},
	}}
	srv := newTestServer(&mockProcessor{}, hist, &mockSchemaProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/history?session_id=s1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		SessionID string            `json:"session_id"`
		Messages  []history.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "hi", resp.Messages[0].Content)
}

func TestHistoryRequiresSessionID(t *testing.T) {
	srv := newTestServer(&mockProcessor{}, &mockHistoryStore{}, &mockSchemaProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	srv := newTestServer(&mockProcessor{}, nil, &mockSchemaProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/history?session_id=s1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestClearHistory(t *testing.T) {
	hist := &mockHistoryStore{}
	srv := newTestServer(&mockProcessor{}, hist, &mockSchemaProvider{})

	req := httptest.NewRequest(http.MethodDelete, "/api/history?session_id=s1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", hist.cleared)
	assert.Contains(t, rec.Body.String(), `"cleared":true`)
}

func TestSchemaEndpoint(t *testing.T) {
	srv := newTestServer(&mockProcessor{}, &mockHistoryStore{}, &mockSchemaProvider{schema: "Database Schema:\n\nTable: sales\n"})

	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Table: sales")
}

func TestSchemaFailure(t *testing.T) {
	srv := newTestServer(&mockProcessor{}, &mockHistoryStore{}, &mockSchemaProvider{err: errors.New("db closed")})

	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSampleEndpoint(t *testing.T) {
	schema := &mockSchemaProvider{rows: []map[string]any{{"order_id": 1.0, "amount": 1200.0}}}
	srv := newTestServer(&mockProcessor{}, &mockHistoryStore{}, schema)

	req := httptest.NewRequest(http.MethodGet, "/api/sample?table=sales&limit=2", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sales", schema.lastTable)
	assert.Equal(t, 2, schema.lastLimit)

	var resp struct {
		Table string           `json:"table"`
		Rows  []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sales", resp.Table)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 1200.0, resp.Rows[0]["amount"])
}

func TestSampleRejectsBadRequests(t *testing.T) {
	srv := newTestServer(&mockProcessor{}, &mockHistoryStore{}, &mockSchemaProvider{})

	t.Run("missing table", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sample", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sample?table=sales&limit=-1", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSampleUnknownTable(t *testing.T) {
	schema := &mockSchemaProvider{err: fmt.Errorf("%w: salez", db.ErrUnknownTable)}
	srv := newTestServer(&mockProcessor{}, &mockHistoryStore{}, schema)

	req := httptest.NewRequest(http.MethodGet, "/api/sample?table=salez", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown table")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&mockProcessor{}, &mockHistoryStore{}, &mockSchemaProvider{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
