package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

type pdfExtractor struct{}

// Extract decodes the payload as a paginated PDF. Each page's text items
// are joined with single spaces and pages are separated by a blank line.
func (pdfExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		items := page.Content().Text
		tokens := make([]string, 0, len(items))
		for _, item := range items {
			if item.S == "" {
				continue
			}
			tokens = append(tokens, item.S)
		}
		pages = append(pages, strings.Join(tokens, " "))
	}

	return &Result{
		Text:  strings.TrimSpace(strings.Join(pages, "\n\n")),
		Units: reader.NumPage(),
	}, nil
}
