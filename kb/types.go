package kb

import "context"

// Document is a unit of retrievable content, either a whole source file or a
// chunk produced by a Splitter.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// SearchResult pairs a document with its similarity score for a query.
type SearchResult struct {
	Document Document
	Score    float64
}

// Loader reads raw documents from some source.
type Loader interface {
	Load(ctx context.Context) ([]Document, error)
}

// Splitter cuts documents into chunks suitable for embedding.
type Splitter interface {
	SplitText(text string) []string
	SplitDocuments(docs []Document) []Document
}

// Embedder turns text into a vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore stores embedded documents and answers similarity queries.
type VectorStore interface {
	Add(ctx context.Context, docs []Document, embeddings [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)
	Len() int
}

// Retriever returns the documents most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
}
