// Package ragchain answers document questions by retrieving relevant chunks
// from the knowledge base and generating a grounded reply.
package ragchain

import (
	"context"
	"fmt"

	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/llms"

	"github.com/saleschat/saleschat/kb"
)

const promptTemplate = `You are an expert sales analyst who answers questions based on the provided documents.

User Question:
%s

Relevant Documents:
%s

Please provide a comprehensive answer to the user's question based on the information in the documents.
If the documents don't contain information to answer the question, say so clearly.
Use clear, concise language that a business user would understand.

Your answer:`

const (
	noDocumentsAnswer = "I couldn't find any relevant information to answer your question."
	errorAnswer       = "I encountered an error while trying to answer your question."
)

// Result is the outcome of processing one question through the chain.
type Result struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources,omitempty"`
	Err      string   `json:"error,omitempty"`
}

// Chain retrieves documents and generates answers.
type Chain struct {
	llm       llms.Model
	retriever kb.Retriever
	topK      int
	logger    *golog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithTopK sets how many documents are retrieved per question.
func WithTopK(k int) Option {
	return func(c *Chain) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithLogger sets the chain logger.
func WithLogger(logger *golog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// New creates a Chain retrieving 3 documents per question by default.
func New(llm llms.Model, retriever kb.Retriever, opts ...Option) *Chain {
	c := &Chain{
		llm:       llm,
		retriever: retriever,
		topK:      3,
		logger:    golog.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process answers a question from the document corpus. It is fail-open:
// retrieval and generation failures degrade to an apologetic answer with the
// diagnostic in Result.Err, never a returned error.
func (c *Chain) Process(ctx context.Context, question string) Result {
	result := Result{Question: question}

	docs, err := c.retriever.Retrieve(ctx, question, c.topK)
	if err != nil {
		c.logger.Errorf("ragchain: retrieving documents: %v", err)
		result.Answer = errorAnswer
		result.Err = fmt.Sprintf("retrieving documents: %v", err)
		return result
	}

	if len(docs) == 0 {
		result.Answer = noDocumentsAnswer
		return result
	}

	seen := make(map[string]bool)
	for _, doc := range docs {
		source, ok := doc.Metadata["source"]
		if !ok {
			continue
		}
		name := fmt.Sprintf("%v", source)
		if !seen[name] {
			seen[name] = true
			result.Sources = append(result.Sources, name)
		}
	}

	prompt := fmt.Sprintf(promptTemplate, question, kb.ContextString(docs))
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.2))
	if err != nil {
		c.logger.Errorf("ragchain: generating answer: %v", err)
		result.Answer = errorAnswer
		result.Err = fmt.Sprintf("generating answer: %v", err)
		return result
	}
	if len(resp.Choices) == 0 {
		c.logger.Errorf("ragchain: model returned no choices")
		result.Answer = errorAnswer
		result.Err = "generating answer: model returned no choices"
		return result
	}

	result.Answer = resp.Choices[0].Content
	return result
}
