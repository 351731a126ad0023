package report

import "strings"

// cp1252 characters outside Latin-1 that the core fonts can draw.
const cp1252Extras = "€‚ƒ„…†‡ˆ‰Š‹ŒŽ‘’“”•–—˜™š›œžŸ"

// Sanitize drops runes the built-in fonts have no glyph for, such as emoji.
// Tabs become spaces and line breaks are kept.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case r >= 0x20 && r <= 0x7e:
			return r
		case r >= 0xa0 && r <= 0xff:
			return r
		case strings.ContainsRune(cp1252Extras, r):
			return r
		}
		return -1
	}, s)
}

// ASCIIOnly replaces every non-ASCII or control rune with a space, keeping
// line breaks. It is the last resort for a block that failed to render.
func ASCIIOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || (r >= 0x20 && r <= 0x7e) {
			return r
		}
		return ' '
	}, s)
}
