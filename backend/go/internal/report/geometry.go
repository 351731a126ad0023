package report

// Geometry fixes page size, margins and type sizes, all in points. Y grows
// downward from the top edge and is the text baseline.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64 // a line whose baseline would fall past PageHeight-MarginBottom goes to a new page
	FontSize     float64
	HeadingSize  float64
	LineHeight   float64
}

// DefaultGeometry is US Letter with Times 11pt body text.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:    612,
		PageHeight:   792,
		MarginLeft:   50,
		MarginRight:  50,
		MarginTop:    50,
		MarginBottom: 100,
		FontSize:     11,
		HeadingSize:  13,
		LineHeight:   11 * 1.3,
	}
}

// ContentWidth is the wrap boundary.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - g.MarginLeft - g.MarginRight
}

// ImageBox is the largest area an embedded image may occupy.
func (g Geometry) ImageBox() (w, h float64) {
	return g.PageWidth - 2*g.MarginLeft, g.PageHeight - 2*g.MarginTop
}

// FitImage scales (w, h) down to fit within (maxW, maxH), preserving the
// aspect ratio. Images are never enlarged.
func FitImage(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	ratio := w / h
	if w > maxW {
		w = maxW
		h = w / ratio
	}
	if h > maxH {
		h = maxH
		w = h * ratio
	}
	return w, h
}
