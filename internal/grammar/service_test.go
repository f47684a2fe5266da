package grammar

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeChecker struct {
	results []*Result
	errs    []error
	calls   int
}

func (f *fakeChecker) Check(ctx context.Context, source, translation, word string) (*Result, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	if idx < 0 {
		return nil, errors.New("no scripted response")
	}
	return f.results[idx], f.errs[idx]
}

func (f *fakeChecker) Available(ctx context.Context) bool { return true }
func (f *fakeChecker) Name() string                       { return "fake" }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func validResult() *Result {
	return &Result{
		GrammarCorrect:       true,
		IsCorrect:            true,
		Score:                90,
		ReferenceTranslation: "I bought two portions of rice",
	}
}

func TestEvaluateAcceptsValidReference(t *testing.T) {
	fake := &fakeChecker{results: []*Result{validResult()}, errs: []error{nil}}
	svc := NewService(fake, 3, quietLogger())

	result := svc.Evaluate(context.Background(), "Tôi đã mua hai phần cơm", "I bought two portions", "portion", nil)
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on valid reference)", fake.calls)
	}
	if result.ReferenceTranslation == "" {
		t.Error("valid reference must be kept")
	}
}

func TestEvaluateRetriesOnInvalidReference(t *testing.T) {
	invalid := validResult()
	invalid.ReferenceTranslation = "" // empty reference fails validation
	fake := &fakeChecker{
		results: []*Result{invalid, validResult()},
		errs:    []error{nil, nil},
	}
	svc := NewService(fake, 3, quietLogger())

	result := svc.Evaluate(context.Background(), "Tôi đã mua hai phần cơm", "I bought two portions", "portion", nil)
	if fake.calls != 2 {
		t.Errorf("calls = %d, want 2", fake.calls)
	}
	if result.ReferenceTranslation != "I bought two portions of rice" {
		t.Errorf("reference = %q, want the retried valid one", result.ReferenceTranslation)
	}
}

func TestEvaluateDiscardsStillInvalidReferenceButKeepsJudgment(t *testing.T) {
	invalid := &Result{
		GrammarCorrect:       false,
		GrammarErrors:        []string{"missing article before noun"},
		IsCorrect:            false,
		Score:                60,
		ReferenceTranslation: "Tôi đã mua hai phần cơm", // still source language
	}
	fake := &fakeChecker{results: []*Result{invalid}, errs: []error{nil}}
	svc := NewService(fake, 2, quietLogger())

	result := svc.Evaluate(context.Background(), "Tôi đã mua hai phần cơm", "bought two portion", "portion", nil)
	if fake.calls != 2 {
		t.Errorf("calls = %d, want every retry used", fake.calls)
	}
	if result.ReferenceTranslation != "" {
		t.Errorf("invalid reference must be discarded, got %q", result.ReferenceTranslation)
	}
	if result.Score != 60 {
		t.Errorf("score = %d, want the last judgment kept", result.Score)
	}
}

func TestEvaluateFallsBackWhenBackendDown(t *testing.T) {
	fake := &fakeChecker{
		results: []*Result{nil},
		errs:    []error{errors.New("connection refused")},
	}
	svc := NewService(fake, 2, quietLogger())

	result := svc.Evaluate(context.Background(), "source", "translation", "word", nil)
	if result.Score != -1 {
		t.Errorf("score = %d, want -1 (unavailable)", result.Score)
	}
	if !result.IsCorrect {
		t.Error("fallback must be non-blocking (isCorrect true)")
	}
}

func TestCorrectDropsContradictedFeedback(t *testing.T) {
	result := &Result{
		Score:                70,
		IsCorrect:            false,
		GrammarErrors:        []string{`the sentence should use "portions"`},
		Suggestions:          []string{`add the word "bought"`, "consider a shorter sentence"},
		ReferenceTranslation: "a completely different reference sentence here",
	}
	svc := NewService(&fakeChecker{}, 1, quietLogger())
	svc.correct(result, "I bought two portions yesterday")

	if len(result.GrammarErrors) != 0 {
		t.Errorf("contradicted grammar error kept: %v", result.GrammarErrors)
	}
	if len(result.Suggestions) != 1 || result.Suggestions[0] != "consider a shorter sentence" {
		t.Errorf("suggestions = %v", result.Suggestions)
	}
	if result.Score <= 70 {
		t.Errorf("score = %d, want a boost for removed feedback", result.Score)
	}
	if !result.GrammarCorrect {
		t.Error("no remaining errors means grammar is correct")
	}
}

func TestCorrectStrongOverlapForcesPass(t *testing.T) {
	result := &Result{
		Score:                55,
		IsCorrect:            false,
		GrammarErrors:        []string{"awkward phrasing"},
		Suggestions:          []string{"rewrite the sentence"},
		ReferenceTranslation: "I bought two portions of rice",
	}
	svc := NewService(&fakeChecker{}, 1, quietLogger())
	svc.correct(result, "I bought two portions of rice!")

	if result.Score < 95 {
		t.Errorf("score = %d, want >= 95 on near-identical phrasing", result.Score)
	}
	if len(result.GrammarErrors) != 0 || len(result.Suggestions) != 0 {
		t.Error("near-identical phrasing must clear all feedback")
	}
	if !result.IsCorrect {
		t.Error("near-identical phrasing must be correct")
	}
}

func TestCorrectGoodOverlapTrimsSuggestions(t *testing.T) {
	result := &Result{
		Score:                60,
		IsCorrect:            false,
		Suggestions:          []string{"first", "second", "third"},
		ReferenceTranslation: "She walks to school every single day",
	}
	svc := NewService(&fakeChecker{}, 1, quietLogger())
	svc.correct(result, "She walks to school every day")

	if result.Score < 85 {
		t.Errorf("score = %d, want >= 85", result.Score)
	}
	if len(result.Suggestions) > 1 {
		t.Errorf("suggestions = %v, want at most one", result.Suggestions)
	}
}
