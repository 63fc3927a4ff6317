package pdfextract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page holds the extracted text of one document page.
type Page struct {
	Number int // 1-based
	Text   string
}

// Extractor is the extraction collaborator contract: raw document bytes in,
// ordered page-tagged text out.
type Extractor interface {
	Pages(data []byte) ([]Page, error)
}

// PDF extracts plain text from PDF bytes. Pages with no extractable text
// are skipped; the returned pages keep their original 1-based numbers.
type PDF struct{}

func (PDF) Pages(data []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable page, keep going with the rest
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
