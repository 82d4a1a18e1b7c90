// Package sqlchain turns natural-language questions into SQL, validates the
// generated statement, and executes it against the sales database.
package sqlchain

import (
	"context"
	"fmt"

	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/llms"

	"github.com/saleschat/saleschat/db"
)

const promptTemplate = `You are an expert SQL query generator that helps convert natural language questions about sales data into SQL queries.

%s

The database contains information about products, customers, and sales. You need to generate a valid SQL query based on the user's question.

Now, generate a SQL query for the following question:
Question: %s

SQL:
` + "```sql\n"

// Result is the outcome of processing one question through the chain.
type Result struct {
	Question string           `json:"question"`
	SQLQuery string           `json:"sql_query"`
	Results  []map[string]any `json:"results"`
	Err      string           `json:"error,omitempty"`
}

// Chain generates and executes SQL for natural-language questions.
type Chain struct {
	llm     llms.Model
	manager db.Manager
	logger  *golog.Logger
}

// New creates a Chain. A nil logger falls back to the golog default.
func New(llm llms.Model, manager db.Manager, logger *golog.Logger) *Chain {
	if logger == nil {
		logger = golog.Default
	}
	return &Chain{llm: llm, manager: manager, logger: logger}
}

// Generate produces a SQL query for the question, embedding the live database
// schema into the prompt. The returned query is extracted but not validated.
func (c *Chain) Generate(ctx context.Context, question string) (string, error) {
	schema, err := c.manager.SchemaString(ctx)
	if err != nil {
		return "", fmt.Errorf("read schema: %w", err)
	}

	prompt := fmt.Sprintf(promptTemplate, schema, question)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate sql: model returned no choices")
	}

	return ExtractSQL(resp.Choices[0].Content), nil
}

// Execute validates and runs a query, returning its rows.
func (c *Chain) Execute(ctx context.Context, query string) ([]map[string]any, error) {
	if err := ValidateSQL(query); err != nil {
		return nil, err
	}
	return c.manager.Query(ctx, query)
}

// Process runs the full chain for a question: generate, validate, execute.
// It is fail-open: every failure is reported through Result.Err and an empty
// result set, never as a returned error.
func (c *Chain) Process(ctx context.Context, question string) Result {
	result := Result{Question: question, Results: []map[string]any{}}

	query, err := c.Generate(ctx, question)
	if err != nil {
		c.logger.Errorf("sqlchain: %v", err)
		result.Err = err.Error()
		return result
	}
	result.SQLQuery = query

	rows, err := c.Execute(ctx, query)
	if err != nil {
		c.logger.Errorf("sqlchain: %v", err)
		result.Err = err.Error()
		return result
	}
	result.Results = rows
	return result
}
