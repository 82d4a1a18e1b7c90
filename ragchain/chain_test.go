package ragchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"

	"github.com/saleschat/saleschat/kb"
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

type mockRetriever struct {
	docs  []kb.Document
	err   error
	lastK int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) ([]kb.Document, error) {
	m.lastK = k
	return m.docs, m.err
}

func TestProcessSuccess(t *testing.T) {
	retriever := &mockRetriever{docs: []kb.Document{
		{ID: "strategy.md_chunk_0", Content: "Q3 focuses on enterprise accounts.", Metadata: map[string]any{"source": "strategy.md"}},
		{ID: "strategy.md_chunk_1", Content: "Pricing moves to usage-based tiers.", Metadata: map[string]any{"source": "strategy.md"}},
		{ID: "report.txt_chunk_0", Content: "Electronics grew 12% year over year.", Metadata: map[string]any{"source": "report.txt"}},
	}}
	model := &mockModel{reply: "Q3 strategy targets enterprise accounts with usage-based pricing."}
	chain := New(model, retriever)

	result := chain.Process(context.Background(), "What is the Q3 strategy?")

	assert.Empty(t, result.Err)
	assert.Equal(t, "Q3 strategy targets enterprise accounts with usage-based pricing.", result.Answer)
	assert.Equal(t, []string{"strategy.md", "report.txt"}, result.Sources)
	assert.Equal(t, 3, retriever.lastK)
	assert.Contains(t, model.lastPrompt, "What is the Q3 strategy?")
	assert.Contains(t, model.lastPrompt, "[1] Source: strategy.md")
	assert.Contains(t, model.lastPrompt, "Electronics grew 12%")
}

func TestProcessNoDocuments(t *testing.T) {
	model := &mockModel{reply: "should not be called"}
	chain := New(model, &mockRetriever{})

	result := chain.Process(context.Background(), "What is the refund policy?")

	assert.Equal(t, noDocumentsAnswer, result.Answer)
	assert.Empty(t, result.Err)
	assert.Empty(t, result.Sources)
	assert.Empty(t, model.lastPrompt, "model must not be called without documents")
}

func TestProcessRetrievalFailure(t *testing.T) {
	chain := New(&mockModel{}, &mockRetriever{err: errors.New("embedding service unavailable")})

	result := chain.Process(context.Background(), "q")

	assert.Equal(t, errorAnswer, result.Answer)
	assert.Contains(t, result.Err, "embedding service unavailable")
}

func TestProcessGenerationFailure(t *testing.T) {
	retriever := &mockRetriever{docs: []kb.Document{
		{ID: "a", Content: "text", Metadata: map[string]any{"source": "a.txt"}},
	}}
	chain := New(&mockModel{err: errors.New("quota exceeded")}, retriever)

	result := chain.Process(context.Background(), "q")

	assert.Equal(t, errorAnswer, result.Answer)
	assert.Contains(t, result.Err, "quota exceeded")
}

func TestWithTopK(t *testing.T) {
	retriever := &mockRetriever{}
	chain := New(&mockModel{}, retriever, WithTopK(5))

	chain.Process(context.Background(), "q")
	assert.Equal(t, 5, retriever.lastK)
}
