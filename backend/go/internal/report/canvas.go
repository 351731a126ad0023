package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"
)

// Color is an RGB triple with components in 0..1.
type Color struct{ R, G, B float64 }

var (
	black         = Color{0, 0, 0}
	bodyColor     = Color{0.2, 0.2, 0.2}
	questionColor = Color{0, 0.1, 0.4}
)

// Canvas is the drawing surface the layout engine renders onto.
type Canvas interface {
	AddPage()
	TextWidth(s string, size float64) float64
	DrawText(x, y float64, s string, size float64, c Color) error
	DrawImage(data []byte, format string, x, y, w, h float64) error
	// ImportPages appends every page of an existing PDF at its own size and
	// returns how many were added.
	ImportPages(data []byte) (int, error)
	Output(w io.Writer) error
}

// pdfCanvas draws with fpdf using the built-in Times font. Strings are
// translated to cp1252, the encoding of the core fonts.
type pdfCanvas struct {
	doc       *fpdf.Fpdf
	translate func(string) string
	images    int
}

var _ Canvas = (*pdfCanvas)(nil)

func newPDFCanvas(g Geometry) Canvas {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	doc.SetCreator("paggo document service", false)
	doc.SetFont("Times", "", g.FontSize)
	return &pdfCanvas{
		doc:       doc,
		translate: doc.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *pdfCanvas) AddPage() {
	c.doc.AddPage()
}

func (c *pdfCanvas) TextWidth(s string, size float64) float64 {
	c.doc.SetFontSize(size)
	return c.doc.GetStringWidth(c.translate(s))
}

func (c *pdfCanvas) DrawText(x, y float64, s string, size float64, col Color) error {
	c.doc.SetFontSize(size)
	c.doc.SetTextColor(channel(col.R), channel(col.G), channel(col.B))
	c.doc.Text(x, y, c.translate(s))
	return c.takeError()
}

func (c *pdfCanvas) DrawImage(data []byte, format string, x, y, w, h float64) error {
	c.images++
	name := fmt.Sprintf("image-%d", c.images)
	opts := fpdf.ImageOptions{ImageType: format}
	c.doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := c.takeError(); err != nil {
		return err
	}
	c.doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return c.takeError()
}

func (c *pdfCanvas) ImportPages(data []byte) (n int, err error) {
	// gofpdi panics on documents it cannot parse.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("import source pdf: %v", r)
		}
	}()

	imp := gofpdi.NewImporter()
	var rs io.ReadSeeker = bytes.NewReader(data)
	tpl := imp.ImportPageFromStream(c.doc, &rs, 1, "/MediaBox")
	sizes := imp.GetPageSizes()
	for page := 1; page <= len(sizes); page++ {
		if page > 1 {
			tpl = imp.ImportPageFromStream(c.doc, &rs, page, "/MediaBox")
		}
		box := sizes[page]["/MediaBox"]
		c.doc.AddPageFormat("P", fpdf.SizeType{Wd: box["w"], Ht: box["h"]})
		imp.UseImportedTemplate(c.doc, tpl, 0, 0, box["w"], box["h"])
		if err := c.takeError(); err != nil {
			return page - 1, err
		}
	}
	return len(sizes), nil
}

func (c *pdfCanvas) Output(w io.Writer) error {
	return c.doc.Output(w)
}

// takeError returns and clears fpdf's sticky error so one bad block does
// not poison the rest of the document.
func (c *pdfCanvas) takeError() error {
	if !c.doc.Err() {
		return nil
	}
	err := c.doc.Error()
	c.doc.ClearError()
	return err
}

func channel(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return int(v*255 + 0.5)
}
