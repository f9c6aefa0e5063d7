// Package extract converts uploaded grant documents into plain text.
// Each supported format carries its own extractor implementation; the
// format is resolved once at ingestion entry.
package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for documents whose format has no
	// extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyExtraction signals that a document yielded too little text
	// to process, typically an image-only or corrupt file. The threshold
	// is deliberately low; it is not a content-quality check.
	ErrEmptyExtraction = errors.New("no extractable text in document")
)

// MinTextLength is the minimum extracted text length below which a
// document is treated as an extraction failure.
const MinTextLength = 10

// Format enumerates supported document payload formats.
type Format string

const (
	// FormatUnknown represents an unsupported or undetected format.
	FormatUnknown Format = ""
	// FormatPDF represents PDF documents.
	FormatPDF Format = "pdf"
	// FormatHWPX represents Hancom Office HWPX documents.
	FormatHWPX Format = "hwpx"
)

// Result is the outcome of a text extraction. Units counts the format's
// natural page unit: PDF pages or HWPX sections.
type Result struct {
	Text  string
	Units int
}

// Extractor converts one document format into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Result, error)
}

// DetectFormat infers a document format from the provided filename's
// extension.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".hwpx":
		return FormatHWPX
	default:
		return FormatUnknown
	}
}

// ForFormat returns the extractor for a format, or ErrUnsupportedFormat.
func ForFormat(format Format) (Extractor, error) {
	switch format {
	case FormatPDF:
		return pdfExtractor{}, nil
	case FormatHWPX:
		return hwpxExtractor{}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
