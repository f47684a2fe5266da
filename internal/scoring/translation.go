package scoring

import (
	"math"

	"github.com/eslsoft/vocadrill/pkg/textmatch"
)

// Coverage and length-ratio weights of the translation similarity score.
const (
	coverageWeight = 80
	lengthWeight   = 20
)

// Verdict classifies a translation attempt.
type Verdict string

const (
	VerdictPass    Verdict = "pass"
	VerdictPartial Verdict = "partial"
	VerdictFail    Verdict = "fail"
)

// Verdict thresholds on the coverage similarity score.
const (
	passSimilarity    = 70
	partialSimilarity = 40
)

// TranslationResult combines the local translation signals.
type TranslationResult struct {
	HasVocabularyWord bool    `json:"has_vocabulary_word"`
	SimilarityScore   int     `json:"similarity_score"`
	Verdict           Verdict `json:"verdict"`
}

// EvaluateTranslation scores the user's translation against the reference
// sentence: the required vocabulary word (or an inflection of it or of a
// word-family member) must be present, and the coverage similarity decides
// between pass, partial and fail.
func EvaluateTranslation(translation, reference, word string, family []string) TranslationResult {
	result := TranslationResult{
		HasVocabularyWord: ContainsVocabularyWord(translation, word, family),
		SimilarityScore:   SimilarityScore(translation, reference),
	}
	switch {
	case result.HasVocabularyWord && result.SimilarityScore >= passSimilarity:
		result.Verdict = VerdictPass
	case result.HasVocabularyWord || result.SimilarityScore >= partialSimilarity:
		result.Verdict = VerdictPartial
	default:
		result.Verdict = VerdictFail
	}
	return result
}

// SimilarityScore compares the user's text against a reference by word
// coverage (fraction of the reference's unique words reproduced anywhere in
// the user's text) combined with a length-ratio penalty. Returns 0 when
// either side has no words; the result is clamped to [0,100].
func SimilarityScore(userText, reference string) int {
	userWords := textmatch.Words(textmatch.Normalize(userText))
	referenceWords := textmatch.Words(textmatch.Normalize(reference))
	if len(userWords) == 0 || len(referenceWords) == 0 {
		return 0
	}

	coverage := textmatch.Coverage(userWords, referenceWords)

	shorter, longer := len(userWords), len(referenceWords)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	lengthRatio := float64(shorter) / float64(longer)

	score := int(math.Round(coverage*coverageWeight + lengthRatio*lengthWeight))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
