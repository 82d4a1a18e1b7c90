// Package summary turns executed SQL results into a natural-language answer
// for the user.
package summary

import (
	"context"
	"fmt"

	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/llms"
)

const promptTemplate = `You are an expert data analyst who explains SQL query results in clear, natural language.

The user asked the following question:
%s

The SQL query that was executed:
` + "```sql\n%s\n```" + `

The query returned the following results:
%s

Please provide a comprehensive summary of these results that answers the user's question.
Focus on the key insights, trends, and notable data points.
Use clear, concise language that a business user would understand.
If appropriate, suggest follow-up questions or additional analyses that might provide further insights.

Your summary:`

// Result is the outcome of summarizing one query's results.
type Result struct {
	Question string `json:"question"`
	SQLQuery string `json:"sql_query"`
	Summary  string `json:"summary"`
}

// Chain summarizes SQL results with a single model call.
type Chain struct {
	llm    llms.Model
	logger *golog.Logger
}

// New creates a Chain. A nil logger falls back to the golog default.
func New(llm llms.Model, logger *golog.Logger) *Chain {
	if logger == nil {
		logger = golog.Default
	}
	return &Chain{llm: llm, logger: logger}
}

// Summarize explains the query results in natural language. It is fail-open:
// an upstream failure yields an error summary string rather than a Go error,
// so the user still gets a reply carrying the raw results alongside it.
func (c *Chain) Summarize(ctx context.Context, question, sqlQuery string, rows []map[string]any) Result {
	prompt := fmt.Sprintf(promptTemplate, question, sqlQuery, FormatResults(rows))
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	result := Result{Question: question, SQLQuery: sqlQuery}

	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.2))
	if err != nil {
		c.logger.Errorf("summary: generating summary: %v", err)
		result.Summary = fmt.Sprintf("Error generating summary: %v", err)
		return result
	}
	if len(resp.Choices) == 0 {
		c.logger.Errorf("summary: model returned no choices")
		result.Summary = "Error generating summary: model returned no choices"
		return result
	}

	result.Summary = resp.Choices[0].Content
	return result
}
