// Package plaintext reads UTF-8 text documents, the default extractor
// for uploads that are neither PDF nor HTML.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
)

const (
	utf8BOM = "\ufeff"

	// MaxDocumentBytes bounds how much of a stored document is read.
	MaxDocumentBytes = 8 << 20
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, MaxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	if len(raw) > MaxDocumentBytes {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("%s exceeds %d bytes", doc.Filename, MaxDocumentBytes))
	}
	return Normalize(raw, doc.Filename)
}

// Normalize rejects binary content and returns the text with a unified
// line ending, trailing spaces removed and blank-line runs collapsed to
// a single paragraph break.
func Normalize(raw []byte, filename string) (string, error) {
	if !utf8.Valid(raw) || bytes.IndexByte(raw, 0) >= 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("binary or non utf-8 content: %s", filename))
	}
	text := strings.TrimPrefix(string(raw), utf8BOM)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n")), nil
}
