package textmatch

import (
	"strings"
	"unicode"
)

// soundexTable maps consonants to their sound class digit. Vowels, H and W
// produce no digit and therefore break adjacent-duplicate suppression.
var soundexTable = map[rune]byte{
	'B': '1', 'F': '1', 'P': '1', 'V': '1',
	'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
	'D': '3', 'T': '3',
	'L': '4',
	'M': '5', 'N': '5',
	'R': '6',
}

// SoundexCode returns the 4-character Soundex phonetic code for a word, or
// an empty string when the input contains no letters. The first letter is
// kept verbatim; following letters map through the sound class table, with
// adjacent duplicate digits emitted only once; the code is zero-padded or
// truncated to exactly 4 characters.
func SoundexCode(word string) string {
	var letters []rune
	for _, r := range strings.ToUpper(word) {
		if unicode.IsLetter(r) && r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteRune(letters[0])

	prev := soundexTable[letters[0]]
	for _, r := range letters[1:] {
		code, ok := soundexTable[r]
		if !ok {
			// Vowel/H/W: emits nothing but resets suppression.
			prev = 0
			continue
		}
		if code != prev {
			b.WriteByte(code)
		}
		prev = code
	}

	code := b.String()
	if len(code) > 4 {
		return code[:4]
	}
	return code + strings.Repeat("0", 4-len(code))
}

// PhoneticSimilarity scores two words by their Soundex codes: 100 for
// identical codes, otherwise 100 * matching positions / 4. Words without a
// code score 0.
func PhoneticSimilarity(word1, word2 string) int {
	c1 := SoundexCode(word1)
	c2 := SoundexCode(word2)
	if c1 == "" || c2 == "" {
		return 0
	}
	if c1 == c2 {
		return 100
	}
	matches := 0
	for i := 0; i < 4; i++ {
		if c1[i] == c2[i] {
			matches++
		}
	}
	return 100 * matches / 4
}
