package kb

import (
	"context"
	"fmt"
	"strings"
)

// KnowledgeBase ties the ingestion pipeline and the retriever together.
type KnowledgeBase struct {
	loader    Loader
	splitter  Splitter
	embedder  Embedder
	store     VectorStore
	retriever Retriever
}

// New creates a knowledge base over the given components.
func New(loader Loader, splitter Splitter, embedder Embedder, store VectorStore) *KnowledgeBase {
	return &KnowledgeBase{
		loader:    loader,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		retriever: NewVectorRetriever(store, embedder, 3),
	}
}

// Ingest loads, splits, embeds and stores the document corpus. It is an error
// to ingest an empty corpus: a knowledge base with nothing in it would turn
// every document question into "no relevant information".
func (k *KnowledgeBase) Ingest(ctx context.Context) error {
	docs, err := k.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents to ingest")
	}

	chunks := k.splitter.SplitDocuments(docs)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := k.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	if err := k.store.Add(ctx, chunks, embeddings); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	return nil
}

// Retrieve returns the k most relevant documents for the query.
func (k *KnowledgeBase) Retrieve(ctx context.Context, query string, topK int) ([]Document, error) {
	return k.retriever.Retrieve(ctx, query, topK)
}

// Size returns the number of stored chunks.
func (k *KnowledgeBase) Size() int {
	return k.store.Len()
}

// ContextString renders documents into the numbered context block used by
// generation prompts.
func ContextString(docs []Document) string {
	if len(docs) == 0 {
		return "No relevant documents found."
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		source := "unknown"
		if s, ok := doc.Metadata["source"]; ok {
			source = fmt.Sprintf("%v", s)
		}
		parts[i] = fmt.Sprintf("[%d] Source: %s\n%s", i+1, source, doc.Content)
	}
	return strings.Join(parts, "\n\n")
}
