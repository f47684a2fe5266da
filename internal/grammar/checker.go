// Package grammar integrates the external grammar/LLM translation judge.
// The judge is a replaceable capability with two interchangeable backends
// (a self-hosted Ollama instance and the OpenAI API) selected by
// configuration. It is treated as unreliable enrichment: every failure mode
// degrades to a neutral, non-blocking result.
package grammar

import (
	"context"
	"fmt"
	"time"
)

// Result is the judge's verdict on a user translation. Score is 0-100, or
// -1 when the judge was unavailable.
type Result struct {
	GrammarCorrect       bool     `json:"grammar_correct"`
	GrammarErrors        []string `json:"grammar_errors"`
	IsCorrect            bool     `json:"is_correct"`
	Score                int      `json:"score"`
	Feedback             string   `json:"feedback"`
	Suggestions          []string `json:"suggestions"`
	ReferenceTranslation string   `json:"reference_translation"`
}

// Unavailable returns the neutral fallback used when the judge cannot be
// reached: never blocks the learner's progress.
func Unavailable() *Result {
	return &Result{
		GrammarCorrect: true,
		IsCorrect:      true,
		Score:          -1,
		Feedback:       "Grammar check unavailable",
	}
}

// Checker is the backend capability contract.
type Checker interface {
	// Check asks the backend to judge the translation of source that must
	// use the required vocabulary word.
	Check(ctx context.Context, source, translation, word string) (*Result, error)

	// Available probes whether the backend is reachable.
	Available(ctx context.Context) bool

	// Name identifies the backend in logs.
	Name() string
}

// Config selects and parameterises the backend.
type Config struct {
	Provider      string // "ollama" or "openai"
	OllamaBaseURL string
	OllamaModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	Timeout       time.Duration
}

// NewChecker constructs the configured backend.
func NewChecker(cfg Config) (Checker, error) {
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaChecker(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.Timeout), nil
	case "openai":
		return NewOpenAIChecker(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unsupported grammar provider: %s", cfg.Provider)
	}
}
