// Package router classifies an incoming question as a database question, a
// document question, or neither, so the assistant can dispatch it to the
// matching chain.
//
// Routing is a single model call at temperature 0 with a fail-open contract:
// Route always returns a well-formed Result and never an error. Greetings are
// short-circuited before the model is consulted.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/llms"
)

// Route is the classification outcome for a question.
type Route string

const (
	// RouteSQL directs the question to the SQL-generation chain.
	RouteSQL Route = "sql"
	// RouteRAG directs the question to the document-retrieval chain.
	RouteRAG Route = "rag"
	// RouteUnknown means the question could not be classified.
	RouteUnknown Route = "unknown"
)

// Result is a routing decision. Message carries user-facing informational text
// (the greeting reply); Err carries a failure diagnostic. At most one of the
// two is set.
type Result struct {
	Question string `json:"question"`
	Route    Route  `json:"route"`
	Message  string `json:"message,omitempty"`
	Err      string `json:"error,omitempty"`
}

// greetings are matched against the trimmed, lowercased question, either
// exactly or as a token followed by a space.
var greetings = []string{"hi", "hello", "hey", "greetings", "howdy"}

const greetingReply = "I'm a sales data assistant. You can ask me questions about your sales data or documents. " +
	"For example, try asking 'What are the total sales for each product category?' or 'What was our revenue in 2023?'"

const promptTemplate = `You are an expert system that determines whether a user's question should be answered using SQL queries on a database or by retrieving information from documents.

The system has two capabilities:
1. SQL: For questions about sales data, metrics, statistics, and quantitative analysis that can be answered by querying a database.
2. RAG (Retrieval Augmented Generation): For questions about company reports, strategies, policies, and qualitative information that would be found in documents.

Database Schema:
- products (product_id, product_name, category)
- customers (customer_id, customer_name, region)
- sales (order_id, product_id, customer_id, amount, order_date)

Available Documents:
- Sales reports
- Product strategies
- Marketing plans
- Company policies

User Question:
%s

Determine whether this question should be routed to the SQL system or the RAG system.
Respond with exactly one word: either "sql" or "rag".`

// Router classifies questions with a single LLM call.
type Router struct {
	llm    llms.Model
	logger *golog.Logger
}

// New creates a Router. A nil logger falls back to the golog default.
func New(llm llms.Model, logger *golog.Logger) *Router {
	if logger == nil {
		logger = golog.Default
	}
	return &Router{llm: llm, logger: logger}
}

// Route classifies a question. It never returns an error: classification
// failures and upstream failures both degrade to RouteUnknown, with the
// diagnostic carried in Result.Err.
func (r *Router) Route(ctx context.Context, question string) Result {
	if isGreeting(question) {
		return Result{
			Question: question,
			Route:    RouteUnknown,
			Message:  greetingReply,
		}
	}

	prompt := fmt.Sprintf(promptTemplate, question)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := r.llm.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		errMsg := fmt.Sprintf("routing question: %v", err)
		r.logger.Errorf("router: %s", errMsg)
		return Result{
			Question: question,
			Route:    RouteUnknown,
			Err:      errMsg,
		}
	}
	if len(resp.Choices) == 0 {
		errMsg := "routing question: model returned no choices"
		r.logger.Errorf("router: %s", errMsg)
		return Result{
			Question: question,
			Route:    RouteUnknown,
			Err:      errMsg,
		}
	}

	reply := strings.ToLower(strings.TrimSpace(resp.Choices[0].Content))
	switch Route(reply) {
	case RouteSQL, RouteRAG:
		return Result{Question: question, Route: Route(reply)}
	default:
		r.logger.Warnf("router: invalid routing decision %q, defaulting to unknown", reply)
		return Result{Question: question, Route: RouteUnknown}
	}
}

// isGreeting reports whether the question is a bare greeting or starts with a
// greeting token followed by a space.
func isGreeting(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, g := range greetings {
		if q == g || strings.HasPrefix(q, g+" ") {
			return true
		}
	}
	return false
}
