package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxPages bounds how much of a PDF is read.
const DefaultMaxPages = 50

// PdfParseError reports a PDF that could not be read.
type PdfParseError struct {
	Page int // 0 when the document itself could not be opened
	Err  error
}

func (e *PdfParseError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("parse pdf page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("parse pdf: %v", e.Err)
}

func (e *PdfParseError) Unwrap() error { return e.Err }

// PDFExtractor reads embedded text. OCR is never involved.
type PDFExtractor struct {
	MaxPages int
}

// ExtractText returns the text of the first MaxPages pages joined by
// newlines. Pages past the limit are skipped without error.
func (p PDFExtractor) ExtractText(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &PdfParseError{Err: fmt.Errorf("malformed document: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &PdfParseError{Err: err}
	}

	n := pageLimit(reader.NumPage(), p.MaxPages)
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", &PdfParseError{Page: i, Err: err}
		}
		pages = append(pages, content)
	}
	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}

func pageLimit(total, max int) int {
	if max <= 0 {
		max = DefaultMaxPages
	}
	if total < max {
		return total
	}
	return max
}
