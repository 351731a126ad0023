// Package report renders extracted text and the question/answer history of a
// document into a PDF. PDF sources keep their own pages ahead of the analysis.
package report

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	"Paggo/backend/go/internal/metrics"
	"Paggo/backend/go/pkg/logger"
)

const (
	extractedHeading   = "Extracted Text (OCR):"
	interactionHeading = "LLM Interactions:"
)

// ReportGenerationError aborts a whole report.
type ReportGenerationError struct {
	Stage string
	Err   error
}

func (e *ReportGenerationError) Error() string {
	return fmt.Sprintf("generate report (%s): %v", e.Stage, e.Err)
}

func (e *ReportGenerationError) Unwrap() error { return e.Err }

// QA is one question and its answer.
type QA struct {
	Question string
	Answer   string
}

// Image is the original upload, embedded on the first page.
type Image struct {
	Data []byte // PNG or JPEG
}

// Spec describes one report.
type Spec struct {
	ExtractedText string
	Interactions  []QA
	Image         *Image // nil for PDF sources
	SourcePDF     []byte // original PDF; its pages come first, unchanged
}

// Report is a rendered document. DegradedBlocks counts text blocks that
// could only be drawn through the ASCII fallback.
type Report struct {
	Data           []byte
	DegradedBlocks int
}

// Renderer lays out reports. It is safe for concurrent use; each Render
// gets its own canvas.
type Renderer struct {
	geom      Geometry
	newCanvas func(Geometry) Canvas
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewRenderer(m *metrics.Metrics, log *logger.Logger) *Renderer {
	if log == nil {
		log = logger.Discard()
	}
	return &Renderer{
		geom:      DefaultGeometry(),
		newCanvas: newPDFCanvas,
		metrics:   m,
		log:       log,
	}
}

// Render produces the report. Any error is a *ReportGenerationError and no
// partial output is returned.
func (r *Renderer) Render(spec Spec) (Report, error) {
	c := r.newCanvas(r.geom)
	l := layout{canvas: c, geom: r.geom}
	page := 0

	if len(spec.SourcePDF) > 0 {
		n, err := c.ImportPages(spec.SourcePDF)
		if err != nil {
			return Report{}, &ReportGenerationError{Stage: "source", Err: err}
		}
		page += n
	}

	if spec.Image != nil {
		if err := r.drawImagePage(c, spec.Image); err != nil {
			return Report{}, err
		}
		page++
	}

	c.AddPage()
	cur := Cursor{Page: page + 1, Y: r.geom.MarginTop}
	degraded := 0
	var err error

	drawBlock := func(text string, col Color) error {
		var bad bool
		cur, bad, err = l.block(cur, text, col)
		if bad {
			degraded++
		}
		if err != nil {
			return &ReportGenerationError{Stage: "text", Err: err}
		}
		return nil
	}

	if spec.ExtractedText != "" {
		if cur, err = l.heading(cur, extractedHeading); err != nil {
			return Report{}, &ReportGenerationError{Stage: "heading", Err: err}
		}
		if err := drawBlock(spec.ExtractedText, bodyColor); err != nil {
			return Report{}, err
		}
		cur.Y += r.geom.LineHeight
	}

	if len(spec.Interactions) > 0 {
		if cur, err = l.heading(cur, interactionHeading); err != nil {
			return Report{}, &ReportGenerationError{Stage: "heading", Err: err}
		}
		for i, qa := range spec.Interactions {
			if err := drawBlock(fmt.Sprintf("Q%d: %s", i+1, qa.Question), questionColor); err != nil {
				return Report{}, err
			}
			if err := drawBlock(fmt.Sprintf("A%d: %s", i+1, qa.Answer), bodyColor); err != nil {
				return Report{}, err
			}
			cur.Y += r.geom.LineHeight
		}
	}

	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return Report{}, &ReportGenerationError{Stage: "output", Err: err}
	}

	if degraded > 0 {
		r.metrics.DegradedBlocks(degraded)
		r.log.WithPayload(map[string]interface{}{
			"degraded_blocks": degraded,
			"pages":           cur.Page,
		}).Warn("report rendered with ASCII fallback")
	}
	return Report{Data: buf.Bytes(), DegradedBlocks: degraded}, nil
}

// drawImagePage puts the original image centered on its own page, scaled
// down to the image box when needed.
func (r *Renderer) drawImagePage(c Canvas, img *Image) error {
	data, format, w, h, err := embeddable(img)
	if err != nil {
		return &ReportGenerationError{Stage: "image", Err: err}
	}
	maxW, maxH := r.geom.ImageBox()
	fw, fh := FitImage(float64(w), float64(h), maxW, maxH)
	x := (r.geom.PageWidth - fw) / 2
	y := (r.geom.PageHeight - fh) / 2

	c.AddPage()
	if err := c.DrawImage(data, format, x, y, fw, fh); err != nil {
		return &ReportGenerationError{Stage: "image", Err: err}
	}
	return nil
}

// embeddable returns image bytes fpdf can embed together with the pixel
// size. PNGs are re-encoded as 8-bit non-interlaced since fpdf rejects
// 16-bit and interlaced files.
func embeddable(img *Image) ([]byte, string, int, int, error) {
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return nil, "", 0, 0, fmt.Errorf("read image header: %w", err)
	}
	switch {
	case kind == "jpeg":
		return img.Data, "JPG", cfg.Width, cfg.Height, nil
	case kind == "png":
		src, _, err := image.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, "", 0, 0, fmt.Errorf("decode png: %w", err)
		}
		b := src.Bounds()
		flat := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(flat, flat.Bounds(), src, b.Min, draw.Src)
		var buf bytes.Buffer
		if err := png.Encode(&buf, flat); err != nil {
			return nil, "", 0, 0, fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "PNG", cfg.Width, cfg.Height, nil
	default:
		return nil, "", 0, 0, fmt.Errorf("unsupported image format %q", kind)
	}
}
