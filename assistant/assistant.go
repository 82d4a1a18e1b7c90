// Package assistant dispatches user questions to the right chain and records
// the exchange in chat history.
package assistant

import (
	"context"
	"fmt"

	"github.com/kataras/golog"

	"github.com/saleschat/saleschat/history"
	"github.com/saleschat/saleschat/ragchain"
	"github.com/saleschat/saleschat/router"
	"github.com/saleschat/saleschat/sqlchain"
	"github.com/saleschat/saleschat/summary"
)

const rephraseReply = "I'm not sure how to answer that. I can answer questions about the sales database or the sales documents. Could you rephrase your question?"

// Response is the assistant's reply to one question.
type Response struct {
	Question string           `json:"question"`
	Type     string           `json:"type"`
	Answer   string           `json:"answer"`
	SQLQuery string           `json:"sql_query,omitempty"`
	Results  []map[string]any `json:"results,omitempty"`
	Sources  []string         `json:"sources,omitempty"`
	Err      string           `json:"error,omitempty"`
}

// QuestionRouter classifies a question.
type QuestionRouter interface {
	Route(ctx context.Context, question string) router.Result
}

// SQLProcessor answers a question against the database.
type SQLProcessor interface {
	Process(ctx context.Context, question string) sqlchain.Result
}

// Summarizer explains query results in natural language.
type Summarizer interface {
	Summarize(ctx context.Context, question, sqlQuery string, rows []map[string]any) summary.Result
}

// RAGProcessor answers a question from the document corpus.
type RAGProcessor interface {
	Process(ctx context.Context, question string) ragchain.Result
}

// HistoryStore records conversation turns.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, msg history.Message) error
}

// Assistant wires the router and the chains into a single entry point.
type Assistant struct {
	router  QuestionRouter
	sql     SQLProcessor
	summary Summarizer
	rag     RAGProcessor
	history HistoryStore
	logger  *golog.Logger
}

// New creates an Assistant. The history store may be nil, in which case
// conversations are not recorded. A nil logger falls back to the golog
// default.
func New(r QuestionRouter, sql SQLProcessor, sum Summarizer, rag RAGProcessor, hist HistoryStore, logger *golog.Logger) *Assistant {
	if logger == nil {
		logger = golog.Default
	}
	return &Assistant{
		router:  r,
		sql:     sql,
		summary: sum,
		rag:     rag,
		history: hist,
		logger:  logger,
	}
}

// Process answers a question end to end. It never returns an error: every
// failure along the way degrades to an apologetic answer with the diagnostic
// in Response.Err.
func (a *Assistant) Process(ctx context.Context, sessionID, question string) Response {
	a.record(ctx, sessionID, history.RoleUser, question)

	routed := a.router.Route(ctx, question)

	var resp Response
	switch routed.Route {
	case router.RouteSQL:
		resp = a.processSQL(ctx, question)
	case router.RouteRAG:
		resp = a.processRAG(ctx, question)
	default:
		resp = Response{
			Question: question,
			Type:     string(router.RouteUnknown),
			Err:      routed.Err,
		}
		switch {
		case routed.Message != "":
			resp.Answer = routed.Message
		case routed.Err != "":
			resp.Answer = fmt.Sprintf("Error routing question: %s", routed.Err)
		default:
			resp.Answer = rephraseReply
		}
	}

	a.record(ctx, sessionID, history.RoleAssistant, resp.Answer)
	return resp
}

func (a *Assistant) processSQL(ctx context.Context, question string) Response {
	result := a.sql.Process(ctx, question)
	resp := Response{
		Question: question,
		Type:     string(router.RouteSQL),
		SQLQuery: result.SQLQuery,
		Results:  result.Results,
		Err:      result.Err,
	}
	if result.Err != "" {
		resp.Answer = fmt.Sprintf("Error processing SQL question: %s", result.Err)
		return resp
	}

	summarized := a.summary.Summarize(ctx, question, result.SQLQuery, result.Results)
	resp.Answer = summarized.Summary
	return resp
}

func (a *Assistant) processRAG(ctx context.Context, question string) Response {
	result := a.rag.Process(ctx, question)
	return Response{
		Question: question,
		Type:     string(router.RouteRAG),
		Answer:   result.Answer,
		Sources:  result.Sources,
		Err:      result.Err,
	}
}

func (a *Assistant) record(ctx context.Context, sessionID, role, content string) {
	if a.history == nil || sessionID == "" || content == "" {
		return
	}
	msg := history.Message{Role: role, Content: content}
	if err := a.history.Append(ctx, sessionID, msg); err != nil {
		a.logger.Warnf("assistant: recording %s message for session %s: %v", role, sessionID, err)
	}
}
