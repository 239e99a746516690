package client

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text from a document.
type TextExtractor interface {
	// Extract returns the text of at most maxPages pages, each followed by a
	// blank line, and the document's total page count.
	Extract(data []byte, maxPages int) (text string, totalPages int, err error)
}

// PDFExtractor implements TextExtractor with github.com/ledongthuc/pdf.
type PDFExtractor struct{}

func (PDFExtractor) Extract(data []byte, maxPages int) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("opening pdf: %w", err)
	}

	total := r.NumPage()
	n := min(total, maxPages)

	var sb strings.Builder
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", total, fmt.Errorf("reading page %d: %w", i, err)
		}
		sb.WriteString(strings.Join(strings.Fields(text), " "))
		sb.WriteString("\n\n")
	}
	return sb.String(), total, nil
}
