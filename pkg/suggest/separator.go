package suggest

import (
	"strings"
	"unicode"
)

// asciiSeparators are the punctuation runes that start a new word in a
// suggestion value, in addition to whitespace.
const asciiSeparators = "/_-.()[],:;&'\""

// quoteAndDashSeparators lists the typographic quotes and dashes that
// commonly show up in user-entered locations and names.
var quoteAndDashSeparators = map[rune]struct{}{
	'\u2018': {}, '\u2019': {}, '\u201A': {}, '\u201B': {}, // single quotes
	'\u201C': {}, '\u201D': {}, '\u201E': {}, '\u201F': {}, // double quotes
	'\u2039': {}, '\u203A': {}, '\u00AB': {}, '\u00BB': {}, // guillemets
	'\u2010': {}, '\u2011': {}, '\u2012': {}, '\u2013': {},
	'\u2014': {}, '\u2015': {}, '\u2212': {},
}

// IsSeparator reports whether r separates words for word-start matching.
// A query matches a value when it occurs at position 0 or directly after
// a rune for which IsSeparator is true.
func IsSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	if r < unicode.MaxASCII {
		return strings.ContainsRune(asciiSeparators, r)
	}
	_, ok := quoteAndDashSeparators[r]
	return ok
}

// wordStarts returns the byte offsets in s at which a word starts.
func wordStarts(s string) []int {
	starts := make([]int, 0, 4)
	prevSep := true
	for i, r := range s {
		if prevSep {
			starts = append(starts, i)
		}
		prevSep = IsSeparator(r)
	}
	return starts
}
