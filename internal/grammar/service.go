package grammar

import (
	"context"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocadrill/internal/scoring"
	"github.com/eslsoft/vocadrill/pkg/textmatch"
)

const defaultMaxAttempts = 3

// Overlap thresholds of the post-processing pass: near-identical phrasing
// must never be penalised by an imperfect judge.
const (
	strongOverlap = 90
	goodOverlap   = 80
)

// Service wraps a Checker with the reliability policy: bounded retries
// while the returned reference translation fails validity checks, a neutral
// fallback on total failure, and a correction pass over the judgment.
type Service struct {
	checker     Checker
	maxAttempts int
	logger      *logrus.Logger
}

// NewService builds the evaluation service around a backend.
func NewService(checker Checker, maxAttempts int, logger *logrus.Logger) *Service {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{checker: checker, maxAttempts: maxAttempts, logger: logger}
}

// Evaluate judges the translation. It never returns an error: when the
// backend cannot produce a usable judgment the result degrades to the
// neutral unavailable fallback so a broken checker cannot block progress.
func (s *Service) Evaluate(ctx context.Context, source, translation, word string, family []string) *Result {
	var last *Result

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err := s.checker.Check(ctx, source, translation, word)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"backend": s.checker.Name(),
				"attempt": attempt,
			}).Warn("grammar check failed")
			continue
		}
		last = result
		if s.referenceValid(result.ReferenceTranslation, source, word, family) {
			break
		}
		s.logger.WithFields(logrus.Fields{
			"backend": s.checker.Name(),
			"attempt": attempt,
		}).Debug("reference translation failed validation, retrying")
	}

	if last == nil {
		return Unavailable()
	}

	// A reference that is still invalid after all retries is discarded so
	// cross-language output never reaches the user; the rest of the
	// judgment is kept as-is.
	if !s.referenceValid(last.ReferenceTranslation, source, word, family) {
		last.ReferenceTranslation = ""
	}

	s.correct(last, translation)
	return last
}

// referenceValid rejects empty references, references that do not use the
// required word, and references that look like an echo of the source
// sentence rather than a translation.
func (s *Service) referenceValid(reference, source, word string, family []string) bool {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return false
	}
	if !scoring.ContainsVocabularyWord(reference, word, family) {
		return false
	}
	if looksLikeSource(reference, source) {
		return false
	}
	return true
}

// correct applies the two post-processing rules: drop feedback contradicted
// by the user's own text, and boost near-identical phrasing.
func (s *Service) correct(result *Result, translation string) {
	removed := 0
	result.Suggestions, removed = dropContradicted(result.Suggestions, translation, removed)
	result.GrammarErrors, removed = dropContradicted(result.GrammarErrors, translation, removed)
	if removed > 0 && result.Score >= 0 {
		result.Score = clampScore(result.Score + removed*5)
	}
	if len(result.GrammarErrors) == 0 {
		result.GrammarCorrect = true
	}

	if result.ReferenceTranslation == "" || result.Score < 0 {
		return
	}
	overlap := textmatch.Score(textmatch.Normalize(translation), textmatch.Normalize(result.ReferenceTranslation))
	switch {
	case overlap >= strongOverlap:
		if result.Score < 95 {
			result.Score = 95
		}
		result.GrammarErrors = nil
		result.Suggestions = nil
		result.GrammarCorrect = true
		result.IsCorrect = true
	case overlap >= goodOverlap:
		if result.Score < 85 {
			result.Score = 85
		}
		if len(result.Suggestions) > 1 {
			result.Suggestions = result.Suggestions[:1]
		}
	}
}

var quotedTerm = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// dropContradicted removes entries quoting a term the user's text already
// contains, counting how many were dropped.
func dropContradicted(entries []string, translation string, removed int) ([]string, int) {
	if len(entries) == 0 {
		return entries, removed
	}
	kept := entries[:0]
	for _, entry := range entries {
		if quotesPresentTerm(entry, translation) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	return kept, removed
}

func quotesPresentTerm(entry, translation string) bool {
	for _, match := range quotedTerm.FindAllStringSubmatch(entry, -1) {
		term := match[1]
		if term == "" {
			term = match[2]
		}
		term = textmatch.Normalize(term)
		if term == "" {
			continue
		}
		if strings.Contains(" "+textmatch.Normalize(translation)+" ", " "+term+" ") {
			return true
		}
	}
	return false
}

// looksLikeSource treats a reference as untranslated when most of its words
// already appear in the source sentence.
func looksLikeSource(reference, source string) bool {
	refWords := textmatch.Words(textmatch.Normalize(reference))
	srcWords := textmatch.Words(textmatch.Normalize(source))
	if len(refWords) == 0 || len(srcWords) == 0 {
		return false
	}
	return textmatch.Coverage(srcWords, refWords) >= 0.7
}

func clampScore(score int) int {
	if score > 100 {
		return 100
	}
	return score
}
