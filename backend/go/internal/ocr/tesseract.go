package ocr

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Recognition is the normalized output of one recognize call.
type Recognition struct {
	Text       string
	Confidence float64 // 0..100, mean word confidence reported by the engine
}

// client is the subset of *gosseract.Client the engine drives.
type client interface {
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

var _ client = (*gosseract.Client)(nil)

// TesseractEngine owns a single gosseract client shared by all requests.
// gosseract clients are not safe for concurrent use, so every call runs
// under mu. A client that failed is discarded and rebuilt on the next call.
type TesseractEngine struct {
	mu        sync.Mutex
	languages []string
	newClient func() client

	c       client
	current []string
}

// NewTesseractEngine returns an engine that loads languages on Init.
func NewTesseractEngine(languages []string) *TesseractEngine {
	return &TesseractEngine{
		languages: slices.Clone(languages),
		newClient: func() client { return gosseract.NewClient() },
	}
}

// Init creates the underlying client. Calling it on an initialized engine
// is a no-op.
func (e *TesseractEngine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureClient(e.languages)
}

// Languages returns the default language set.
func (e *TesseractEngine) Languages() []string {
	return slices.Clone(e.languages)
}

// Recognize runs OCR on an encoded image. An empty languages slice uses the
// engine defaults.
func (e *TesseractEngine) Recognize(ctx context.Context, img []byte, languages []string) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, &OcrError{Op: "recognize", Err: err}
	}
	if len(languages) == 0 {
		languages = e.languages
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureClient(languages); err != nil {
		return Recognition{}, err
	}

	rec, err := e.recognize(img)
	if err != nil {
		e.discard()
		return Recognition{}, err
	}
	return rec, nil
}

func (e *TesseractEngine) recognize(img []byte) (Recognition, error) {
	if err := e.c.SetImageFromBytes(img); err != nil {
		return Recognition{}, &OcrError{Op: "set image", Err: err}
	}
	raw, err := e.c.Text()
	if err != nil {
		return Recognition{}, &OcrError{Op: "recognize text", Err: err}
	}
	boxes, err := e.c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Recognition{}, &OcrError{Op: "confidence", Err: err}
	}
	return Recognition{Text: Normalize(raw), Confidence: meanConfidence(boxes)}, nil
}

// ensureClient must be called with mu held.
func (e *TesseractEngine) ensureClient(languages []string) error {
	if e.c == nil {
		e.c = e.newClient()
		e.current = nil
	}
	if slices.Equal(e.current, languages) {
		return nil
	}
	if err := e.c.SetLanguage(languages...); err != nil {
		e.discard()
		return &OcrError{Op: "set language", Err: err}
	}
	e.current = slices.Clone(languages)
	return nil
}

// discard must be called with mu held.
func (e *TesseractEngine) discard() {
	if e.c != nil {
		_ = e.c.Close()
	}
	e.c = nil
	e.current = nil
}

// Close releases the client. A later Recognize initializes a new one.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.c == nil {
		return nil
	}
	err := e.c.Close()
	e.c = nil
	e.current = nil
	if err != nil {
		return &OcrError{Op: "close", Err: err}
	}
	return nil
}

func meanConfidence(boxes []gosseract.BoundingBox) float64 {
	if len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}

// IsOcrError reports whether err originated in the recognition engine.
func IsOcrError(err error) bool {
	var oe *OcrError
	return errors.As(err, &oe)
}
