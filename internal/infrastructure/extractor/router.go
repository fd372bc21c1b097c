// Package extractor picks a text extractor per document format.
package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
)

const (
	FormatText = "text"
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// Router dispatches to the extractor registered for the document format
// and falls back to the text extractor.
type Router struct {
	extractors map[string]ports.TextExtractor
	fallback   ports.TextExtractor
}

func NewRouter(fallback ports.TextExtractor, extractors map[string]ports.TextExtractor) *Router {
	return &Router{extractors: extractors, fallback: fallback}
}

func (r *Router) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if ex, ok := r.extractors[Format(doc)]; ok {
		return ex.Extract(ctx, doc)
	}
	return r.fallback.Extract(ctx, doc)
}

// Format classifies a document by MIME type, then by file extension.
func Format(doc *domain.Document) string {
	mime := strings.ToLower(doc.MimeType)
	switch {
	case strings.Contains(mime, "pdf"):
		return FormatPDF
	case strings.Contains(mime, "html"):
		return FormatHTML
	}
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return FormatPDF
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}
