package extraction

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Paggo/backend/go/internal/ocr"
)

type countingRecognizer struct {
	calls   int32
	text    string
	err     error
	started chan struct{}
	release chan struct{}
	langs   []string
}

func (r *countingRecognizer) Recognize(_ context.Context, img []byte, languages []string) (ocr.Recognition, error) {
	n := atomic.AddInt32(&r.calls, 1)
	r.langs = languages
	if r.started != nil && n == 1 {
		close(r.started)
	}
	if r.release != nil {
		<-r.release
	}
	if len(img) == 0 {
		return ocr.Recognition{}, errors.New("empty image")
	}
	if r.err != nil {
		return ocr.Recognition{}, r.err
	}
	return ocr.Recognition{Text: r.text, Confidence: 87.5}, nil
}

func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func newTestExtractor(t *testing.T, rec Recognizer) (*Extractor, string) {
	t.Helper()
	work := t.TempDir()
	x := NewExtractor(Config{
		Engine:           rec,
		Preprocessor:     ocr.Preprocessor{MaxEdge: 2000, Quality: 85, WorkDir: work},
		MaxPages:         50,
		DefaultLanguages: []string{"eng", "por"},
	})
	return x, work
}

func TestExtract_Idempotent(t *testing.T) {
	rec := &countingRecognizer{text: "invoice 42"}
	x, _ := newTestExtractor(t, rec)
	path := writeTestPNG(t, t.TempDir(), "scan.png")

	first, err := x.Extract(context.Background(), path, "image/png", Options{})
	if err != nil {
		t.Fatalf("first Extract() error = %v", err)
	}
	second, err := x.Extract(context.Background(), path, "image/png", Options{})
	if err != nil {
		t.Fatalf("second Extract() error = %v", err)
	}
	if first != second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
	if got := atomic.LoadInt32(&rec.calls); got != 1 {
		t.Errorf("expected engine to run once, ran %d times", got)
	}
	if strings.Join(rec.langs, "+") != "eng+por" {
		t.Errorf("expected default languages, got %v", rec.langs)
	}
}

func TestExtract_KeyChangesForceReextraction(t *testing.T) {
	rec := &countingRecognizer{text: "t"}
	x, _ := newTestExtractor(t, rec)
	path := writeTestPNG(t, t.TempDir(), "scan.png")
	ctx := context.Background()

	if _, err := x.Extract(ctx, path, "image/png", Options{}); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// different options
	if _, err := x.Extract(ctx, path, "image/png", Options{Languages: []string{"spa"}}); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := atomic.LoadInt32(&rec.calls); got != 2 {
		t.Fatalf("expected re-extraction for new options, calls=%d", got)
	}

	// different modification time
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if _, err := x.Extract(ctx, path, "image/png", Options{}); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := atomic.LoadInt32(&rec.calls); got != 3 {
		t.Fatalf("expected re-extraction for new mtime, calls=%d", got)
	}
}

func TestExtract_CleansUpIntermediateFiles(t *testing.T) {
	rec := &countingRecognizer{err: errors.New("engine down")}
	x, work := newTestExtractor(t, rec)
	path := writeTestPNG(t, t.TempDir(), "scan.png")

	if _, err := x.Extract(context.Background(), path, "image/png", Options{}); err == nil {
		t.Fatal("expected engine error")
	}
	entries, err := os.ReadDir(work)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("intermediate files left behind: %d", len(entries))
	}

	rec.err = nil
	rec.text = "ok"
	if _, err := x.Extract(context.Background(), path, "image/png", Options{}); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	entries, _ = os.ReadDir(work)
	if len(entries) != 0 {
		t.Errorf("intermediate files left behind after success: %d", len(entries))
	}
}

func TestExtract_FailuresAreNotCached(t *testing.T) {
	rec := &countingRecognizer{err: errors.New("transient")}
	x, _ := newTestExtractor(t, rec)
	path := writeTestPNG(t, t.TempDir(), "scan.png")

	_, _ = x.Extract(context.Background(), path, "image/png", Options{})
	rec.err = nil
	rec.text = "recovered"
	r, err := x.Extract(context.Background(), path, "image/png", Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if r.Text != "recovered" {
		t.Errorf("expected fresh result, got %q", r.Text)
	}
}

func TestExtract_ConcurrentCallsShareOneExtraction(t *testing.T) {
	rec := &countingRecognizer{
		text:    "shared",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	x, _ := newTestExtractor(t, rec)
	path := writeTestPNG(t, t.TempDir(), "scan.png")

	const n = 6
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := x.Extract(context.Background(), path, "image/png", Options{})
			if err != nil {
				t.Errorf("Extract() error = %v", err)
			}
			results[i] = r
		}(i)
	}
	<-rec.started
	time.Sleep(20 * time.Millisecond)
	close(rec.release)
	wg.Wait()

	if got := atomic.LoadInt32(&rec.calls); got != 1 {
		t.Errorf("expected one engine call, got %d", got)
	}
	for i, r := range results {
		if r.Text != "shared" {
			t.Errorf("result %d = %+v", i, r)
		}
	}
}

func TestExtract_CanceledCallerStillCaches(t *testing.T) {
	rec := &countingRecognizer{text: "done"}
	x, _ := newTestExtractor(t, rec)
	path := writeTestPNG(t, t.TempDir(), "scan.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := x.Extract(ctx, path, "image/png", Options{}); err != nil {
		t.Fatalf("Extract() with canceled ctx error = %v", err)
	}
	if _, err := x.Extract(context.Background(), path, "image/png", Options{}); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := atomic.LoadInt32(&rec.calls); got != 1 {
		t.Errorf("expected cached result, engine calls=%d", got)
	}
}

func TestExtract_PDFBypassesOCR(t *testing.T) {
	rec := &countingRecognizer{text: "ocr"}
	x, _ := newTestExtractor(t, rec)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, buildPDF(t, 2), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := x.Extract(context.Background(), path, "application/pdf", Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if r.Confidence != 100 {
		t.Errorf("expected confidence 100, got %v", r.Confidence)
	}
	if !strings.Contains(r.Text, "p002q") {
		t.Errorf("unexpected text %q", r.Text)
	}
	if atomic.LoadInt32(&rec.calls) != 0 {
		t.Error("OCR engine must not run for PDFs")
	}
}

func TestExtract_UnsupportedType(t *testing.T) {
	x, _ := newTestExtractor(t, &countingRecognizer{})
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := x.Extract(context.Background(), path, "text/plain", Options{})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestExtract_CorruptImage(t *testing.T) {
	x, _ := newTestExtractor(t, &countingRecognizer{})
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := x.Extract(context.Background(), path, "image/png", Options{})
	var pe *ocr.PreprocessingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreprocessingError, got %v", err)
	}
}
