package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type mockModel struct {
	reply      string
	err        error
	lastPrompt string
}

func (m *mockModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) > 0 {
		for _, part := range messages[0].Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.lastPrompt = text.Text
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *mockModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return m.reply, m.err
}

func TestFormatResultsEmpty(t *testing.T) {
	assert.Equal(t, "No results found.", FormatResults(nil))
	assert.Equal(t, "No results found.", FormatResults([]map[string]any{}))
}

func TestFormatResultsTableAndJSON(t *testing.T) {
	rows := []map[string]any{
		{"category": "Electronics", "total": 2300.0},
		{"category": "Clothing", "total": 25.0},
	}

	s := FormatResults(rows)
	assert.Contains(t, s, "Tabular format:")
	assert.Contains(t, s, "JSON format:")
	assert.Contains(t, s, `"category": "Electronics"`)

	lines := strings.Split(s, "\n")
	require.Greater(t, len(lines), 3)
	header := lines[1]
	assert.Contains(t, header, "category")
	assert.Contains(t, header, "total")
	// Aligned columns: header and first data row start their second column at
	// the same offset.
	assert.Equal(t, strings.Index(header, "total"), strings.Index(lines[2], "2300"))
}

func TestSummarizeSuccess(t *testing.T) {
	model := &mockModel{reply: "Electronics leads with $2,300 in sales."}
	chain := New(model, nil)

	rows := []map[string]any{{"category": "Electronics", "total": 2300.0}}
	result := chain.Summarize(context.Background(), "What are total sales per category?", "SELECT ...", rows)

	assert.Equal(t, "Electronics leads with $2,300 in sales.", result.Summary)
	assert.Equal(t, "What are total sales per category?", result.Question)
	assert.Contains(t, model.lastPrompt, "What are total sales per category?")
	assert.Contains(t, model.lastPrompt, "Tabular format:")
	assert.Contains(t, model.lastPrompt, "SELECT ...")
}

func TestSummarizeModelFailure(t *testing.T) {
	chain := New(&mockModel{err: errors.New("quota exceeded")}, nil)

	result := chain.Summarize(context.Background(), "q", "SELECT 1", nil)
	assert.Contains(t, result.Summary, "Error generating summary")
	assert.Contains(t, result.Summary, "quota exceeded")
}
