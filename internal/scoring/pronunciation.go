// Package scoring implements the answer evaluators: a weighted
// pronunciation scorer over recognized speech transcripts and a translation
// scorer combining vocabulary presence with coverage similarity.
package scoring

import (
	"math"

	"github.com/eslsoft/vocadrill/pkg/textmatch"
)

// Weights of the three pronunciation signals.
const (
	wordMatchWeight    = 0.4
	phoneticWeight     = 0.3
	editDistanceWeight = 0.3
)

// DefaultPassingThreshold is the overall score required to pass when the
// caller does not override it.
const DefaultPassingThreshold = 70

// PronunciationOptions tune the pronunciation evaluation.
type PronunciationOptions struct {
	PassingThreshold int
	CaseSensitive    bool
}

func (o PronunciationOptions) threshold() int {
	if o.PassingThreshold <= 0 {
		return DefaultPassingThreshold
	}
	return o.PassingThreshold
}

// PronunciationResult carries the overall judgment plus the per-signal
// scores and word lists the UI shows as feedback.
type PronunciationResult struct {
	OverallScore      int      `json:"overall_score"`
	IsPassing         bool     `json:"is_passing"`
	IsExactMatch      bool     `json:"is_exact_match"`
	WordMatchScore    int      `json:"word_match_score"`
	PhoneticScore     int      `json:"phonetic_score"`
	EditDistanceScore int      `json:"edit_distance_score"`
	RecognizedWords   []string `json:"recognized_words"`
	ExpectedWords     []string `json:"expected_words"`
	MatchedWords      int      `json:"matched_words"`
}

// EvaluatePronunciation scores a recognized transcript against the expected
// text. An empty transcript ("no speech detected") is a valid, failing
// input and never an error.
func EvaluatePronunciation(recognized, expected string, opts PronunciationOptions) PronunciationResult {
	normalize := textmatch.Normalize
	if opts.CaseSensitive {
		normalize = textmatch.StripPunctuation
	}

	recognizedNorm := normalize(recognized)
	expectedNorm := normalize(expected)

	recognizedWords := textmatch.Words(recognizedNorm)
	expectedWords := textmatch.Words(expectedNorm)

	matched := textmatch.MatchWords(recognizedWords, expectedWords)

	result := PronunciationResult{
		IsExactMatch:      recognizedNorm == expectedNorm,
		WordMatchScore:    wordMatchScore(matched, len(expectedWords), len(recognizedWords)),
		PhoneticScore:     phoneticScore(recognizedWords, expectedWords),
		EditDistanceScore: textmatch.Score(recognizedNorm, expectedNorm),
		RecognizedWords:   recognizedWords,
		ExpectedWords:     expectedWords,
		MatchedWords:      matched,
	}

	overall := wordMatchWeight*float64(result.WordMatchScore) +
		phoneticWeight*float64(result.PhoneticScore) +
		editDistanceWeight*float64(result.EditDistanceScore)
	result.OverallScore = int(math.Round(overall))
	result.IsPassing = result.OverallScore >= opts.threshold()

	return result
}

// FindBestAlternative evaluates every candidate transcript independently
// and returns the highest scoring one; ties keep the earliest candidate.
// An empty candidate list yields an empty transcript with a zero result.
func FindBestAlternative(alternatives []string, expected string, opts PronunciationOptions) (string, PronunciationResult) {
	var (
		best       string
		bestResult PronunciationResult
		have       bool
	)
	for _, alt := range alternatives {
		result := EvaluatePronunciation(alt, expected, opts)
		if !have || result.OverallScore > bestResult.OverallScore {
			best = alt
			bestResult = result
			have = true
		}
	}
	return best, bestResult
}

func wordMatchScore(matched, expectedCount, recognizedCount int) int {
	if expectedCount == 0 {
		return 100
	}
	if recognizedCount == 0 {
		return 0
	}
	return int(math.Round(100 * float64(matched) / float64(expectedCount)))
}

// phoneticScore pairs every expected word greedily with the unused
// recognized word of highest phonetic similarity and averages over the
// expected word count.
func phoneticScore(recognizedWords, expectedWords []string) int {
	if len(expectedWords) == 0 {
		return 100
	}
	if len(recognizedWords) == 0 {
		return 0
	}

	used := make([]bool, len(recognizedWords))
	total := 0
	for _, expected := range expectedWords {
		bestIdx := -1
		bestSim := -1
		for i, recognized := range recognizedWords {
			if used[i] {
				continue
			}
			if sim := textmatch.PhoneticSimilarity(expected, recognized); sim > bestSim {
				bestIdx = i
				bestSim = sim
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			total += bestSim
		}
	}
	return int(math.Round(float64(total) / float64(len(expectedWords))))
}
