package kb

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"
)

// DirLoader loads documents from a directory tree. Plain text files are taken
// as-is; Markdown is rendered and stripped to text; HTML is sanitized and its
// visible text extracted.
type DirLoader struct {
	dir      string
	stripper *bluemonday.Policy
}

// NewDirLoader creates a loader rooted at dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{
		dir:      dir,
		stripper: bluemonday.StrictPolicy(),
	}
}

// Load walks the directory and returns one document per supported file.
// Unsupported extensions are skipped silently so the docs directory can hold
// images or spreadsheets alongside the text corpus.
func (l *DirLoader) Load(ctx context.Context) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".txt", ".md", ".markdown", ".html", ".htm":
		default:
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		var content string
		switch ext {
		case ".md", ".markdown":
			content = l.markdownToText(raw)
		case ".html", ".htm":
			content, err = htmlToText(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
		default:
			content = string(raw)
		}

		content = strings.TrimSpace(content)
		if content == "" {
			return nil
		}

		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			rel = path
		}

		docs = append(docs, Document{
			ID:      rel,
			Content: content,
			Metadata: map[string]any{
				"source": rel,
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load documents from %s: %w", l.dir, err)
	}

	return docs, nil
}

// markdownToText renders Markdown to HTML and strips every tag, leaving the
// readable text with the original line structure roughly intact.
func (l *DirLoader) markdownToText(raw []byte) string {
	rendered := markdown.ToHTML(raw, nil, nil)
	stripped := l.stripper.Sanitize(string(rendered))
	return html.UnescapeString(stripped)
}

// htmlToText extracts the visible text of an HTML document, dropping script
// and style elements.
func htmlToText(raw []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		b.WriteString(sel.Text())
	})
	if b.Len() == 0 {
		// Fragment without a body element.
		b.WriteString(doc.Text())
	}
	return b.String(), nil
}

// StaticLoader serves a fixed set of documents, mainly for tests and demos.
type StaticLoader struct {
	docs []Document
}

// NewStaticLoader creates a loader that returns the given documents verbatim.
func NewStaticLoader(docs []Document) *StaticLoader {
	return &StaticLoader{docs: docs}
}

// Load returns the configured documents.
func (l *StaticLoader) Load(ctx context.Context) ([]Document, error) {
	return l.docs, nil
}
