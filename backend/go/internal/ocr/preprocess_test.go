package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: 120, B: uint8(y), A: 255})
		}
	}
	path := filepath.Join(dir, "scan.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func leftovers(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "preprocessed_*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{4000, 2000, 2000, 2000, 1000},
		{1000, 3000, 1500, 500, 1500},
		{800, 600, 2000, 800, 600}, // never upscale
		{800, 600, 0, 800, 600},
		{5000, 1, 100, 100, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fitWithin(%d,%d,%d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestTransform_GrayscaleAndBounded(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 150))
	for x := 0; x < 300; x++ {
		src.Set(x, 10, color.RGBA{R: 255, A: 255})
	}
	var in bytes.Buffer
	if err := png.Encode(&in, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out bytes.Buffer
	p := Preprocessor{MaxEdge: 100, Quality: 80}
	if err := p.Transform(&in, &out); err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	decoded, err := jpeg.Decode(&out)
	if err != nil {
		t.Fatalf("output is not a jpeg: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
	if _, ok := decoded.(*image.Gray); !ok {
		t.Errorf("expected grayscale jpeg, got %T", decoded)
	}
}

func TestTransform_CorruptInput(t *testing.T) {
	p := Preprocessor{MaxEdge: 100, Quality: 80}
	err := p.Transform(bytes.NewReader([]byte("not an image")), &bytes.Buffer{})
	var pe *PreprocessingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PreprocessingError, got %v", err)
	}
	if pe.Op != "decode" {
		t.Errorf("expected decode op, got %s", pe.Op)
	}
}

func TestPrepare_CleanupOnSuccess(t *testing.T) {
	srcDir, work := t.TempDir(), t.TempDir()
	src := writePNG(t, srcDir, 64, 32)

	p := Preprocessor{MaxEdge: 32, Quality: 85, WorkDir: work}
	path, cleanup, err := p.Prepare(src)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected intermediate file to exist: %v", err)
	}

	cleanup()
	cleanup()
	if got := leftovers(t, work); len(got) != 0 {
		t.Errorf("expected no intermediate files after cleanup, found %v", got)
	}
}

func TestPrepare_CleanupOnFailure(t *testing.T) {
	srcDir, work := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "broken.png")
	if err := os.WriteFile(src, []byte("\x89PNG broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := Preprocessor{MaxEdge: 32, Quality: 85, WorkDir: work}
	_, cleanup, err := p.Prepare(src)
	if err == nil {
		t.Fatal("expected error for corrupt image")
	}
	if cleanup != nil {
		t.Error("cleanup should be nil on failure")
	}
	if got := leftovers(t, work); len(got) != 0 {
		t.Errorf("expected no intermediate files after failure, found %v", got)
	}
}
