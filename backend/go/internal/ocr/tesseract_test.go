package ocr

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/otiai10/gosseract/v2"
)

type fakeClient struct {
	langs    []string
	text     string
	boxes    []gosseract.BoundingBox
	textErr  error
	closed   bool
	inFlight *int32
	overlap  *int32
}

func (f *fakeClient) SetLanguage(langs ...string) error {
	f.langs = langs
	return nil
}

func (f *fakeClient) SetImageFromBytes(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty image")
	}
	return nil
}

func (f *fakeClient) Text() (string, error) {
	if f.inFlight != nil {
		if atomic.AddInt32(f.inFlight, 1) > 1 {
			atomic.StoreInt32(f.overlap, 1)
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(f.inFlight, -1)
	}
	return f.text, f.textErr
}

func (f *fakeClient) GetBoundingBoxes(gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error) {
	return f.boxes, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func newTestEngine(factory func() client) *TesseractEngine {
	e := NewTesseractEngine([]string{"eng", "por"})
	e.newClient = factory
	return e
}

func TestRecognize_NormalizesAndAveragesConfidence(t *testing.T) {
	fc := &fakeClient{
		text:  "Hello\r\n\r\nWorld   !",
		boxes: []gosseract.BoundingBox{{Word: "Hello", Confidence: 90}, {Word: "World", Confidence: 70}},
	}
	e := newTestEngine(func() client { return fc })

	rec, err := e.Recognize(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if rec.Text != "Hello\n\nWorld !" {
		t.Errorf("unexpected text %q", rec.Text)
	}
	if math.Abs(rec.Confidence-80) > 1e-9 {
		t.Errorf("expected confidence 80, got %v", rec.Confidence)
	}
	if strings.Join(fc.langs, "+") != "eng+por" {
		t.Errorf("expected default languages, got %v", fc.langs)
	}
}

func TestRecognize_SwitchesLanguage(t *testing.T) {
	fc := &fakeClient{text: "x"}
	e := newTestEngine(func() client { return fc })

	if _, err := e.Recognize(context.Background(), []byte("img"), []string{"spa"}); err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if strings.Join(fc.langs, "+") != "spa" {
		t.Errorf("expected spa, got %v", fc.langs)
	}
}

func TestRecognize_FailureRebuildsClient(t *testing.T) {
	created := 0
	var first *fakeClient
	e := newTestEngine(func() client {
		created++
		c := &fakeClient{text: "ok"}
		if created == 1 {
			c.textErr = errors.New("tesseract crashed")
			first = c
		}
		return c
	})

	_, err := e.Recognize(context.Background(), []byte("img"), nil)
	var oe *OcrError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OcrError, got %v", err)
	}
	if !strings.Contains(oe.Error(), "tesseract crashed") {
		t.Errorf("cause not attached: %v", oe)
	}
	if !first.closed {
		t.Error("failed client should be closed")
	}

	rec, err := e.Recognize(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("second Recognize() error = %v", err)
	}
	if rec.Text != "ok" || created != 2 {
		t.Errorf("expected rebuilt client, text=%q created=%d", rec.Text, created)
	}
}

func TestRecognize_AfterCloseReinitializes(t *testing.T) {
	created := 0
	e := newTestEngine(func() client {
		created++
		return &fakeClient{text: "again"}
	})
	if err := e.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, err := e.Recognize(context.Background(), []byte("img"), nil); err != nil {
		t.Fatalf("Recognize() after Close error = %v", err)
	}
	if created != 2 {
		t.Errorf("expected lazy re-init, created=%d", created)
	}
}

func TestRecognize_Serialized(t *testing.T) {
	var inFlight, overlap int32
	fc := &fakeClient{text: "t", inFlight: &inFlight, overlap: &overlap}
	e := newTestEngine(func() client { return fc })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Recognize(context.Background(), []byte("img"), nil); err != nil {
				t.Errorf("Recognize() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if atomic.LoadInt32(&overlap) != 0 {
		t.Error("recognize calls overlapped on the shared client")
	}
}

func TestRecognize_CanceledContext(t *testing.T) {
	e := newTestEngine(func() client { return &fakeClient{} })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Recognize(ctx, []byte("img"), nil)
	if !IsOcrError(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected OcrError wrapping context.Canceled, got %v", err)
	}
}
