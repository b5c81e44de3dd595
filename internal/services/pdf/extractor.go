// Package pdf provides best-effort PDF text extraction.
//
// We use the ledongthuc/pdf library for text extraction.
// It's a pure Go implementation: no CGO or external dependencies required.
// Only the first few pages of a document are read: answers are grounded on
// an excerpt, not the whole file.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxPages is how many pages are read when the caller passes 0.
const DefaultMaxPages = 20

// ExtractionResult holds the output from a PDF text extraction.
type ExtractionResult struct {
	Pages     []string // Whitespace-collapsed text, one entry per processed page
	PageCount int      // Pages in the document
	WordCount int      // Words across the processed pages
}

// pageSource is the slice of a PDF reader the extraction loop needs.
// Go Pattern: A tiny unexported interface lets tests drive the loop with a
// fake document instead of hand-crafting PDF bytes.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

// readerSource adapts *pdf.Reader to pageSource.
type readerSource struct {
	r *pdf.Reader
}

func (s readerSource) NumPage() int {
	return s.r.NumPage()
}

func (s readerSource) PageText(n int) (string, error) {
	page := s.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// Extract reads up to maxPages pages from an in-memory PDF.
//
// Go Pattern: We accept a byte slice instead of a filename because
// the data comes from an HTTP upload (in memory), not a file on disk.
// The pdf library requires ReaderAt for random access to the PDF structure.
func Extract(data []byte, maxPages int) (result *ExtractionResult, err error) {
	// ledongthuc/pdf panics on some malformed files; surface that as an error.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	return extract(readerSource{r: pdfReader}, maxPages)
}

// extract walks the first maxPages pages of src.
func extract(src pageSource, maxPages int) (*ExtractionResult, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	pageCount := src.NumPage()
	total := min(pageCount, maxPages)

	pages := make([]string, 0, total)
	words := 0
	for i := 1; i <= total; i++ {
		text, err := src.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		text = CollapseWhitespace(text)
		words += countWords(text)
		pages = append(pages, text)
	}

	return &ExtractionResult{
		Pages:     pages,
		PageCount: pageCount,
		WordCount: words,
	}, nil
}

// CollapseWhitespace turns every run of whitespace into a single space and
// trims both ends.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// countWords counts the number of words in a text string.
func countWords(text string) int {
	return len(strings.Fields(text))
}
