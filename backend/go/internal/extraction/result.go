// Package extraction turns an uploaded artifact into text, routing images
// through preprocessing and OCR and PDFs through the embedded-text parser,
// with results memoized per file identity and options.
package extraction

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
)

// Kind is the extraction path an artifact takes.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

// ErrUnsupportedType is returned for artifacts that are neither images nor PDFs.
var ErrUnsupportedType = errors.New("unsupported artifact type")

// Result is the immutable outcome of one extraction.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..100; always 100 for PDFs
}

// Options tune a single extraction. The zero value uses the engine defaults.
type Options struct {
	Languages []string `json:"languages,omitempty"`
}

// ParseLanguages splits a tesseract style language list ("eng+por") into
// its codes, dropping empties and duplicates.
func ParseLanguages(s string) []string {
	var out []string
	for _, code := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' || r == ' ' }) {
		code = strings.ToLower(code)
		if !slices.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out
}

// KindFor picks the extraction path from the sniffed MIME type, falling back
// to the file extension when the type is generic.
func KindFor(mimeType, path string) (Kind, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case mt == "application/pdf":
		return KindPDF, nil
	case strings.HasPrefix(mt, "image/"):
		return KindImage, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF, nil
	case ".jpg", ".jpeg", ".png":
		return KindImage, nil
	}
	return "", ErrUnsupportedType
}
