package ocr

import (
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"os"

	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Preprocessor prepares raster input for recognition: grayscale, bounded
// size (never upscaled) and lossy re-encoding at a tunable quality.
type Preprocessor struct {
	MaxEdge int    // longest output edge in pixels; <= 0 disables resizing
	Quality int    // JPEG quality, 1..100
	WorkDir string // where intermediate files are written; "" uses os.TempDir
}

// Transform decodes src and writes the normalized JPEG to dst.
func (p Preprocessor) Transform(src io.Reader, dst io.Writer) error {
	img, _, err := image.Decode(src)
	if err != nil {
		return &PreprocessingError{Op: "decode", Err: err}
	}

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	var out image.Image = gray
	w, h := fitWithin(b.Dx(), b.Dy(), p.MaxEdge)
	if w != b.Dx() || h != b.Dy() {
		scaled := image.NewGray(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), xdraw.Src, nil)
		out = scaled
	}

	quality := p.Quality
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(dst, out, &jpeg.Options{Quality: quality}); err != nil {
		return &PreprocessingError{Op: "encode", Err: err}
	}
	return nil
}

// Prepare runs Transform on the file at srcPath and stores the result in a
// temporary file. The returned cleanup removes that file and is safe to call
// more than once. On error nothing is left behind.
func (p Preprocessor) Prepare(srcPath string) (string, func(), error) {
	in, err := os.Open(srcPath)
	if err != nil {
		return "", nil, &PreprocessingError{Op: "open", Err: err}
	}
	defer in.Close()

	out, err := os.CreateTemp(p.WorkDir, "preprocessed_*.jpg")
	if err != nil {
		return "", nil, &PreprocessingError{Op: "create", Err: err}
	}
	path := out.Name()
	cleanup := func() { _ = os.Remove(path) }

	if err := p.Transform(in, out); err != nil {
		out.Close()
		cleanup()
		return "", nil, err
	}
	if err := out.Close(); err != nil {
		cleanup()
		return "", nil, &PreprocessingError{Op: "close", Err: err}
	}
	return path, cleanup, nil
}

// fitWithin scales (w, h) down so the longest edge is at most maxEdge,
// preserving the aspect ratio.
func fitWithin(w, h, maxEdge int) (int, int) {
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return w, h
	}
	if w >= h {
		nh := h * maxEdge / w
		if nh < 1 {
			nh = 1
		}
		return maxEdge, nh
	}
	nw := w * maxEdge / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxEdge
}
