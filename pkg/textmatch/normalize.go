// Package textmatch provides the pure text comparison kernel used by the
// answer scorers: normalization, Levenshtein distance, Soundex phonetic
// coding and word-level matching helpers. All functions are stateless and
// deterministic for identical input.
package textmatch

import "strings"

const punctuation = `.,!?;:'"()-`

// Normalize lowercases the text, strips the fixed punctuation set, collapses
// whitespace runs into single spaces and trims the result. It is idempotent.
func Normalize(text string) string {
	return collapseWhitespace(stripPunct(strings.ToLower(text)))
}

// StripPunctuation is the case-preserving variant of Normalize used when a
// caller asked for case-sensitive comparison.
func StripPunctuation(text string) string {
	return collapseWhitespace(stripPunct(text))
}

// Words splits normalized text into its whitespace-delimited words. Empty
// input yields an empty slice, never nil slices with empty words.
func Words(text string) []string {
	return strings.Fields(text)
}

func stripPunct(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(punctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
