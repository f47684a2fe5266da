package grammar

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are an English teacher grading a Vietnamese learner's English translation. Respond with a single JSON object and nothing else, using exactly these keys: grammar_correct (bool), grammar_errors (array of strings), is_correct (bool), score (integer 0-100), feedback (string), suggestions (array of strings), reference_translation (string, your own natural English translation of the source sentence).`

func buildPrompt(source, translation, word string) string {
	return fmt.Sprintf(
		"Source sentence (Vietnamese): %s\nLearner translation (English): %s\nThe translation must use the vocabulary word %q or one of its forms.\nGrade the translation.",
		source, translation, word,
	)
}

// parseResult decodes the model output into a Result, tolerating prose or
// code fences around the JSON object.
func parseResult(raw string) (*Result, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	if result.Score > 100 {
		result.Score = 100
	}
	if result.Score < 0 {
		result.Score = 0
	}
	return &result, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
