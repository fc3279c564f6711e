package irc

import (
	"strings"
	"unicode"
)

// allowedSymbols is the punctuation that survives Sanitize next to letters and digits.
const allowedSymbols = " .,!?-_:;@#()[]{}'\"/+=%&*"

// Sanitize keeps printable letters, digits and allowedSymbols, then trims the
// result. Sanitizing an already clean string returns it unchanged.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if !unicode.IsPrint(r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(allowedSymbols, r) {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// Truncate cuts text to at most limit runes.
func Truncate(text string, limit int) string {
	if limit < 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit])
}
