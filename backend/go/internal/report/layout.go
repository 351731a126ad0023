package report

import (
	"fmt"
	"strings"
)

// Cursor is the layout position: the current page (1-based) and the
// baseline of the next line.
type Cursor struct {
	Page int
	Y    float64
}

// Wrap breaks words into lines no wider than width. Each word is tried with
// a trailing space; when that overflows, the line so far is emitted and the
// word starts the next line. A single word wider than width gets a line of
// its own.
func Wrap(words []string, width float64, measure func(string) float64) []string {
	var lines []string
	line := ""
	for _, word := range words {
		candidate := line + word + " "
		if line != "" && measure(candidate) > width {
			lines = append(lines, strings.TrimRight(line, " "))
			line = word + " "
			continue
		}
		line = candidate
	}
	if rest := strings.TrimRight(line, " "); rest != "" {
		lines = append(lines, rest)
	}
	return lines
}

// layout draws text blocks onto a canvas. It holds no position; every call
// takes a Cursor and returns the advanced one.
type layout struct {
	canvas Canvas
	geom   Geometry
}

func (l layout) bottom() float64 {
	return l.geom.PageHeight - l.geom.MarginBottom
}

// ensureRoom starts a new page when the cursor is below the bottom margin.
func (l layout) ensureRoom(cur Cursor) Cursor {
	if cur.Y <= l.bottom() {
		return cur
	}
	l.canvas.AddPage()
	return Cursor{Page: cur.Page + 1, Y: l.geom.MarginTop}
}

// heading draws a single unwrapped line and leaves a blank line after it.
func (l layout) heading(cur Cursor, text string) (Cursor, error) {
	cur = l.ensureRoom(cur)
	if err := l.canvas.DrawText(l.geom.MarginLeft, cur.Y, text, l.geom.HeadingSize, black); err != nil {
		return cur, err
	}
	cur.Y += 2 * l.geom.LineHeight
	return cur, nil
}

// block renders one text block. When a line of the sanitized text fails to
// render, that line and the ones after it are drawn as plain ASCII from
// where the failure left the cursor, and degraded is true. Lines already on
// the page are kept. Only a failure of the fallback is returned.
func (l layout) block(cur Cursor, text string, col Color) (next Cursor, degraded bool, err error) {
	lines, err := l.wrapText(Sanitize(text))
	if err != nil {
		// measuring failed before anything was drawn
		if lines, err = l.wrapText(ASCIIOnly(text)); err != nil {
			return cur, true, err
		}
		next, _, err = l.draw(cur, lines, col)
		return next, true, err
	}

	next, drawn, err := l.draw(cur, lines, col)
	if err == nil {
		return next, false, nil
	}
	rest := make([]string, 0, len(lines)-drawn)
	for _, line := range lines[drawn:] {
		rest = append(rest, strings.Join(strings.Fields(ASCIIOnly(line)), " "))
	}
	next, _, err = l.draw(next, rest, col)
	return next, true, err
}

// wrapText wraps each line of text separately. An empty entry is a blank
// line.
func (l layout) wrapText(text string) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("measure text: %v", r)
		}
	}()

	measure := func(s string) float64 { return l.canvas.TextWidth(s, l.geom.FontSize) }
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, Wrap(words, l.geom.ContentWidth(), measure)...)
	}
	return lines, nil
}

// draw renders lines top to bottom, advancing one line height per entry.
// drawn is the index of the first line that was not drawn.
func (l layout) draw(cur Cursor, lines []string, col Color) (next Cursor, drawn int, err error) {
	next = cur
	for i, line := range lines {
		if line == "" {
			next.Y += l.geom.LineHeight
			continue
		}
		if next, err = l.drawLine(next, line, col); err != nil {
			return next, i, err
		}
		next.Y += l.geom.LineHeight
	}
	return next, len(lines), nil
}

// drawLine draws one line at the cursor, starting a new page first when
// needed. The returned cursor is not advanced.
func (l layout) drawLine(cur Cursor, line string, col Color) (next Cursor, err error) {
	next = cur
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render text: %v", r)
		}
	}()
	next = l.ensureRoom(next)
	return next, l.canvas.DrawText(l.geom.MarginLeft, next.Y, line, l.geom.FontSize, col)
}
