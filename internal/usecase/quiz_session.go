package usecase

import (
	"math/rand"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/vocadrill/internal/entity"
)

// QuizPhase names one step of the per-item answer pipeline.
type QuizPhase string

const (
	PhaseSpelling      QuizPhase = "spelling"
	PhasePronunciation QuizPhase = "pronunciation"
	PhaseTranslation   QuizPhase = "translation"
)

// PhaseAnswer preserves one phase's sub-result for an item, even though
// only the composite correctness is recorded in the session results.
type PhaseAnswer struct {
	Phase  QuizPhase `json:"phase"`
	Answer string    `json:"answer"`
	Passed bool      `json:"passed"`
}

// QuizSession walks a shuffled item sequence through answer recording until
// completion. It is a pure in-memory state machine: persistence and the
// completion side effect belong to the caller.
type QuizSession struct {
	ID      string
	TopicID string

	items     []entity.VocabularyItem
	index     int
	results   []entity.AnswerRecord
	phaseLog  [][]PhaseAnswer
	pending   []PhaseAnswer
	startedAt time.Time
	finished  bool
}

// NewQuizSession shuffles the topic's items into a fresh session.
func NewQuizSession(id string, topic *entity.Topic, now time.Time) (*QuizSession, error) {
	if len(topic.Items) == 0 {
		return nil, entity.ErrEmptyTopic
	}
	s := &QuizSession{
		ID:      id,
		TopicID: topic.ID,
	}
	s.reset(topic.Items, now)
	return s, nil
}

// RestoreQuizSession rebuilds a session from a saved position. The saved
// shuffle, index and partial results are adopted verbatim if every
// referenced item id still resolves; otherwise the stale state is discarded
// and a fresh shuffled session is returned instead.
func RestoreQuizSession(id string, topic *entity.Topic, saved *entity.ActiveQuizPosition, now time.Time) (*QuizSession, error) {
	if saved == nil {
		return NewQuizSession(id, topic, now)
	}

	byID := lo.KeyBy(topic.Items, func(item entity.VocabularyItem) string { return item.ID })
	restored := make([]entity.VocabularyItem, 0, len(saved.ItemIDs))
	for _, itemID := range saved.ItemIDs {
		item, ok := byID[itemID]
		if !ok {
			// Data integrity: the stored shuffle references an item that
			// no longer exists. Discard the fragment and start over.
			return NewQuizSession(id, topic, now)
		}
		restored = append(restored, item)
	}
	if len(restored) != len(topic.Items) || saved.CurrentIndex < 0 || saved.CurrentIndex > len(restored) {
		return NewQuizSession(id, topic, now)
	}

	s := &QuizSession{
		ID:        id,
		TopicID:   topic.ID,
		items:     restored,
		index:     saved.CurrentIndex,
		results:   append([]entity.AnswerRecord(nil), saved.Results...),
		phaseLog:  make([][]PhaseAnswer, len(saved.Results)),
		startedAt: saved.StartedAt,
	}
	return s, nil
}

// CurrentItem returns the item at the session cursor, or nil when complete.
func (s *QuizSession) CurrentItem() *entity.VocabularyItem {
	if s.IsComplete() {
		return nil
	}
	return &s.items[s.index]
}

// RecordPhase stores one phase sub-result for the current item.
func (s *QuizSession) RecordPhase(phase QuizPhase, answer string, passed bool) {
	s.pending = append(s.pending, PhaseAnswer{Phase: phase, Answer: answer, Passed: passed})
}

// RecordAnswer appends the composite result for the current item without
// advancing the cursor. When phase sub-results were recorded, the item only
// counts as correct if every phase passed.
func (s *QuizSession) RecordAnswer(userAnswer string, isCorrect bool) error {
	if s.IsComplete() {
		return entity.ErrSessionComplete
	}
	for _, phase := range s.pending {
		if !phase.Passed {
			isCorrect = false
		}
	}
	s.results = append(s.results, entity.AnswerRecord{
		ItemID:     s.items[s.index].ID,
		UserAnswer: userAnswer,
		IsCorrect:  isCorrect,
	})
	s.phaseLog = append(s.phaseLog, s.pending)
	s.pending = nil
	return nil
}

// NextQuestion advances the cursor by one; at the item count the session is
// complete.
func (s *QuizSession) NextQuestion() {
	if s.index < len(s.items) {
		s.index++
	}
}

// IsComplete is a pure function of the cursor against the item count.
func (s *QuizSession) IsComplete() bool {
	return s.index >= len(s.items)
}

// Score recomputes the result counts; it is never cached across a reset.
func (s *QuizSession) Score() entity.QuizAttempt {
	correct := lo.CountBy(s.results, func(r entity.AnswerRecord) bool { return r.IsCorrect })
	return entity.QuizAttempt{Correct: correct, Total: len(s.items)}
}

// PhaseResults exposes the preserved sub-results for answered items.
func (s *QuizSession) PhaseResults() [][]PhaseAnswer {
	return s.phaseLog
}

// Results returns the recorded answers so far.
func (s *QuizSession) Results() []entity.AnswerRecord {
	return append([]entity.AnswerRecord(nil), s.results...)
}

// Reset reshuffles the items and clears all results, the cursor and the
// start timestamp, regardless of any previously saved position.
func (s *QuizSession) Reset(now time.Time) {
	s.reset(s.items, now)
}

// FinishOnce reports true exactly once after the session completes, so the
// completion side effect cannot fire twice even if the completion condition
// is observed repeatedly.
func (s *QuizSession) FinishOnce() bool {
	if !s.IsComplete() || s.finished {
		return false
	}
	s.finished = true
	return true
}

// Position snapshots the session for resumable persistence.
func (s *QuizSession) Position() entity.ActiveQuizPosition {
	return entity.ActiveQuizPosition{
		CurrentIndex: s.index,
		ItemIDs:      lo.Map(s.items, func(item entity.VocabularyItem, _ int) string { return item.ID }),
		Results:      append([]entity.AnswerRecord(nil), s.results...),
		StartedAt:    s.startedAt,
	}
}

func (s *QuizSession) reset(items []entity.VocabularyItem, now time.Time) {
	shuffled := append([]entity.VocabularyItem(nil), items...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.items = shuffled
	s.index = 0
	s.results = nil
	s.phaseLog = nil
	s.pending = nil
	s.startedAt = now
	s.finished = false
}
