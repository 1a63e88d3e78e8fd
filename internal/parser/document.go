// Package parser turns raw input files into typed in-memory records:
// plain text for product documents, kb.Order rows for order files, and
// kb.Conversation transcripts for chat exports.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// ErrUnsupportedFormat is returned when a file extension is not handled
// by a parser. Callers log and skip the file.
var ErrUnsupportedFormat = errors.New("unsupported format")

// TextExtractor is a capability that turns one binary document format
// into plain text. Implementations are chosen at construction time; a
// nil extractor means the capability is unavailable and the document
// parser falls back to a raw best-effort decode.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Document parses product brochures of several formats into plain text.
type Document struct {
	pdf  TextExtractor
	word TextExtractor
}

// NewDocument returns a document parser with the default PDF and Word
// extraction capabilities.
func NewDocument() *Document {
	return &Document{pdf: pdfExtractor{}, word: wordExtractor{}}
}

// NewDocumentWith builds a document parser with explicit capabilities.
// Either extractor may be nil to force the raw-decode fallback.
func NewDocumentWith(pdf, word TextExtractor) *Document {
	return &Document{pdf: pdf, word: word}
}

// Parse dispatches on the file extension and returns the document's
// plain text. Unsupported extensions return ErrUnsupportedFormat.
func (d *Document) Parse(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return d.extractOrFallback(d.pdf, path)
	case ".docx", ".doc":
		return d.extractOrFallback(d.word, path)
	case ".txt":
		return readTextFile(path)
	case ".html", ".htm":
		return parseHTMLFile(path)
	case ".md", ".markdown":
		return parseMarkdownFile(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// extractOrFallback runs the capability when present and degrades to the
// raw decode when it is missing or fails. Extraction problems never
// abort the pipeline.
func (d *Document) extractOrFallback(ex TextExtractor, path string) (string, error) {
	if ex == nil {
		log.Warn().Str("file", path).Msg("no extraction capability configured, using raw decode")
		return fallbackRead(path)
	}
	text, err := ex.Extract(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("extraction failed, using raw decode")
		return fallbackRead(path)
	}
	return strings.TrimSpace(text), nil
}

// readTextFile reads a plain-text document, tolerating non-UTF-8 input.
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return decodeBestEffort(data), nil
}

// fallbackRead is the raw best-effort decode used when a binary format
// cannot be extracted properly.
func fallbackRead(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return decodeBestEffort(data), nil
}

// decodeBestEffort interprets bytes as UTF-8, retries as GB18030 (the
// common encoding of exported Chinese business documents), and as a last
// resort strips undecodable bytes.
func decodeBestEffort(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimSpace(string(data))
	}
	if decoded, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data); err == nil {
		return strings.TrimSpace(string(decoded))
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
}
