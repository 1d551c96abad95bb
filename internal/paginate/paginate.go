// Package paginate splits long texts into pages and builds the navigation
// row shown under a paginated view.
package paginate

import (
	"strings"
	"unicode"
)

// DefaultSize is the page window used when none is configured
const DefaultSize = 3000

// paragraphThreshold is the share of the window a paragraph break must pass
// to be used as the split point
const paragraphThreshold = 0.7

// Page is one window of a paginated text. Index is 0-based.
type Page struct {
	Index   int
	Content string
	Total   int
}

// Paginate splits text into pages of at most size runes. Splits prefer, in
// order: a paragraph break past 70% of the window, the last line break, the
// last sentence end, the last whitespace, a hard cut. Empty text yields one
// empty page.
func Paginate(text string, size int) []Page {
	if size <= 0 {
		size = DefaultSize
	}

	var contents []string
	rest := trimLeftSpace([]rune(text))
	for len(rest) > size {
		cut := splitPoint(rest[:size])
		page := strings.TrimRightFunc(string(rest[:cut]), unicode.IsSpace)
		contents = append(contents, page)
		rest = trimLeftSpace(rest[cut:])
	}
	if len(rest) > 0 || len(contents) == 0 {
		contents = append(contents, strings.TrimRightFunc(string(rest), unicode.IsSpace))
	}

	pages := make([]Page, len(contents))
	for i, c := range contents {
		pages[i] = Page{Index: i, Content: c, Total: len(contents)}
	}
	return pages
}

// At returns page i of text, clamped to the valid range
func At(text string, size, i int) Page {
	pages := Paginate(text, size)
	return pages[Clamp(i, len(pages))]
}

// Clamp bounds a 0-based page index to [0, total-1]
func Clamp(i, total int) int {
	if i >= total {
		i = total - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// splitPoint returns the number of runes of window to keep on this page
func splitPoint(window []rune) int {
	s := string(window)
	floor := int(float64(len(window)) * paragraphThreshold)

	if i := strings.LastIndex(s, "\n\n"); i >= 0 {
		if n := runeCount(s[:i]); n > floor {
			return n
		}
	}
	if i := strings.LastIndex(s, "\n"); i > 0 {
		return runeCount(s[:i])
	}
	best := -1
	for _, end := range []string{". ", "! ", "? "} {
		if i := strings.LastIndex(s, end); i >= 0 && i+1 > best {
			best = i + 1
		}
	}
	if best > 0 {
		return runeCount(s[:best])
	}
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return len(window)
}

func trimLeftSpace(r []rune) []rune {
	for len(r) > 0 && unicode.IsSpace(r[0]) {
		r = r[1:]
	}
	return r
}

func runeCount(s string) int {
	return len([]rune(s))
}
