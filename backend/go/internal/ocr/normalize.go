package ocr

import (
	"regexp"
	"strings"
)

var (
	lineBreaks    = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u2028", "\n", "\u2029", "\n", "\u0085", "\n")
	horizontalRun = regexp.MustCompile(`[^\S\n]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans raw recognizer output. Line breaks become "\n", runs of
// horizontal whitespace become one space, each line is trimmed, more than one
// consecutive blank line collapses to a single blank line and the result is
// trimmed.
func Normalize(raw string) string {
	s := lineBreaks.Replace(raw)
	s = horizontalRun.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")

	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
