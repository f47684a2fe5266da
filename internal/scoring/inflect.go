package scoring

import (
	"regexp"
	"strings"
)

// WordVariants expands a vocabulary word into its regular English
// inflections: plural, -ing, -ed, third person -s, comparative -er and
// superlative -est, applying the standard spelling-change rules
// (consonant+y -> ies, sibilant endings -> es, f/fe -> ves, e-drop before
// -ing/-ed). The base word itself is included.
func WordVariants(word string) []string {
	base := strings.ToLower(strings.TrimSpace(word))
	if base == "" {
		return nil
	}

	variants := map[string]struct{}{base: {}}
	add := func(forms ...string) {
		for _, f := range forms {
			if f != "" {
				variants[f] = struct{}{}
			}
		}
	}

	switch {
	case endsWithConsonantY(base):
		stem := base[:len(base)-1]
		add(stem+"ies", stem+"ied", stem+"ier", stem+"iest", base+"ing")
	case hasSibilantEnding(base):
		add(base+"es", base+"ed", base+"ing")
	case strings.HasSuffix(base, "fe"):
		add(base[:len(base)-2]+"ves", base+"d", base[:len(base)-1]+"ing")
	case strings.HasSuffix(base, "f"):
		add(base[:len(base)-1]+"ves", base+"ed", base+"ing")
	case strings.HasSuffix(base, "e"):
		stem := base[:len(base)-1]
		add(base+"s", base+"d", stem+"ing", base+"r", base+"st")
	default:
		add(base+"s", base+"ed", base+"ing", base+"er", base+"est")
	}

	out := make([]string, 0, len(variants))
	for v := range variants {
		out = append(out, v)
	}
	return out
}

// ContainsVocabularyWord reports whether the translation contains the
// required word, any of its regular inflections, or any inflection of its
// word-family members, matched case-insensitively on word boundaries.
func ContainsVocabularyWord(translation, word string, family []string) bool {
	if strings.TrimSpace(translation) == "" {
		return false
	}
	candidates := WordVariants(word)
	for _, member := range family {
		candidates = append(candidates, WordVariants(member)...)
	}
	for _, candidate := range candidates {
		if containsWholeWord(translation, candidate) {
			return true
		}
	}
	return false
}

func containsWholeWord(text, word string) bool {
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return pattern.MatchString(text)
}

func endsWithConsonantY(word string) bool {
	if len(word) < 2 || !strings.HasSuffix(word, "y") {
		return false
	}
	return !strings.ContainsRune("aeiou", rune(word[len(word)-2]))
}

func hasSibilantEnding(word string) bool {
	for _, suffix := range []string{"ch", "sh", "s", "x", "z"} {
		if strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}
