package kb

import (
	"context"
	"fmt"
)

// VectorRetriever retrieves documents by embedding the query and running a
// similarity search against a vector store.
type VectorRetriever struct {
	store    VectorStore
	embedder Embedder
	topK     int
}

// NewVectorRetriever creates a retriever with the given default k.
func NewVectorRetriever(store VectorStore, embedder Embedder, topK int) *VectorRetriever {
	if topK <= 0 {
		topK = 3
	}
	return &VectorRetriever{
		store:    store,
		embedder: embedder,
		topK:     topK,
	}
}

// Retrieve returns the k documents most relevant to the query. k <= 0 uses the
// retriever default.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		k = r.topK
	}

	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]Document, len(results))
	for i, result := range results {
		docs[i] = result.Document
	}
	return docs, nil
}
