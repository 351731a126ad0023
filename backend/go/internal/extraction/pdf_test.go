package extraction

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

// buildPDF writes a document whose page i carries the marker "pNNNq".
func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Text(50, 80, fmt.Sprintf("p%03dq", i))
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func TestPageLimit(t *testing.T) {
	tests := []struct{ total, max, want int }{
		{80, 50, 50},
		{10, 50, 10},
		{80, 0, DefaultMaxPages},
		{50, 50, 50},
	}
	for _, tt := range tests {
		if got := pageLimit(tt.total, tt.max); got != tt.want {
			t.Errorf("pageLimit(%d, %d) = %d, want %d", tt.total, tt.max, got, tt.want)
		}
	}
}

func TestExtractText_PageCap(t *testing.T) {
	text, err := PDFExtractor{MaxPages: 50}.ExtractText(buildPDF(t, 80))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	for _, want := range []string{"p001q", "p050q"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %s in extracted text", want)
		}
	}
	for _, unwanted := range []string{"p051q", "p080q"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("page beyond limit extracted: %s", unwanted)
		}
	}
}

func TestExtractText_Malformed(t *testing.T) {
	_, err := PDFExtractor{}.ExtractText([]byte("%PDF-1.4 this is not really a pdf"))
	var pe *PdfParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PdfParseError, got %v", err)
	}
}
