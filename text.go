package pagelens

import (
	"strings"
	"unicode"
)

// CleanText normalizes extracted text: tabs are removed, every line is
// trimmed and blank lines are dropped. Trimming also strips U+FEFF.
func CleanText(s string) string {
	s = trimSpace(s)
	s = strings.ReplaceAll(s, "\t", "")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = trimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}
