package kb

import (
	"fmt"
	"strings"
)

// RecursiveSplitter splits text on progressively finer separators until every
// chunk fits the configured size, then merges adjacent small pieces back
// together with overlap between consecutive chunks.
type RecursiveSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
}

// SplitterOption configures a RecursiveSplitter.
type SplitterOption func(*RecursiveSplitter)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the overlap carried between consecutive chunks.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators sets the separators tried from coarsest to finest.
func WithSeparators(separators []string) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.separators = separators
	}
}

// NewRecursiveSplitter creates a splitter with the default chunk size of 1000
// and overlap of 200, matching the ingestion settings of the document corpus.
func NewRecursiveSplitter(opts ...SplitterOption) *RecursiveSplitter {
	s := &RecursiveSplitter{
		separators:   []string{"\n\n", "\n", " ", ""},
		chunkSize:    1000,
		chunkOverlap: 200,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SplitText splits text into chunks of at most the configured size.
func (s *RecursiveSplitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

// SplitDocuments splits each document and tags chunks with their position and
// parent document ID.
func (s *RecursiveSplitter) SplitDocuments(docs []Document) []Document {
	var chunks []Document
	for _, doc := range docs {
		parts := s.SplitText(doc.Content)
		for i, part := range parts {
			metadata := make(map[string]any, len(doc.Metadata)+3)
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			metadata["chunk_index"] = i
			metadata["chunk_total"] = len(parts)
			metadata["parent_id"] = doc.ID

			chunks = append(chunks, Document{
				ID:       fmt.Sprintf("%s_chunk_%d", doc.ID, i),
				Content:  part,
				Metadata: metadata,
			})
		}
	}
	return chunks
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	if len(separators) == 0 {
		return s.splitBySize(text)
	}

	separator := separators[0]
	rest := separators[1:]

	var pieces []string
	if separator == "" {
		pieces = s.splitBySize(text)
	} else {
		pieces = strings.Split(text, separator)
	}

	var fitted []string
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		if len(piece) <= s.chunkSize {
			fitted = append(fitted, piece)
		} else {
			fitted = append(fitted, s.split(piece, rest)...)
		}
	}

	return s.merge(fitted, separator)
}

// splitBySize slices text into fixed-size windows stepping by size-overlap.
func (s *RecursiveSplitter) splitBySize(text string) []string {
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}

	var parts []string
	for i := 0; i < len(text); i += step {
		end := i + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[i:end])
		if end == len(text) {
			break
		}
	}
	return parts
}

// merge greedily packs adjacent pieces into chunks no larger than chunkSize,
// then prefixes each chunk with the tail of its predecessor as overlap.
func (s *RecursiveSplitter) merge(pieces []string, separator string) []string {
	joiner := separator
	if joiner == "" {
		joiner = " "
	}

	var merged []string
	current := ""
	for _, piece := range pieces {
		if current == "" {
			current = piece
			continue
		}
		if len(current)+len(joiner)+len(piece) <= s.chunkSize {
			current += joiner + piece
		} else {
			merged = append(merged, current)
			current = piece
		}
	}
	if current != "" {
		merged = append(merged, current)
	}

	if s.chunkOverlap <= 0 || len(merged) < 2 {
		return merged
	}

	overlapped := make([]string, len(merged))
	overlapped[0] = merged[0]
	for i := 1; i < len(merged); i++ {
		prev := merged[i-1]
		tail := prev
		if len(prev) > s.chunkOverlap {
			tail = prev[len(prev)-s.chunkOverlap:]
		}
		// Avoid cutting a word in half at the overlap boundary.
		if idx := strings.IndexAny(tail, " \n"); idx >= 0 && idx < len(tail)-1 {
			tail = tail[idx+1:]
		}
		overlapped[i] = tail + joiner + merged[i]
	}
	return overlapped
}
