// Package kb implements the document knowledge base behind the assistant's
// retrieval path.
//
// A KnowledgeBase is assembled from four small pieces:
//
//   - a Loader that reads raw documents (plain text, Markdown, HTML) from disk
//   - a Splitter that cuts documents into overlapping chunks
//   - an Embedder that turns chunk text into vectors
//   - a VectorStore that answers top-k cosine-similarity queries
//
// Ingestion runs once at startup:
//
//	kbase := kb.New(loader, splitter, embedder, store)
//	if err := kbase.Ingest(ctx); err != nil { ... }
//	docs, err := kbase.Retrieve(ctx, "What is the 2024 clothing plan?", 3)
//
// The store is held in memory and rebuilt on every start; the demo corpus is a
// handful of strategy and report documents, so persistence buys nothing.
package kb
