package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProgressSchemaVersion guards the persisted aggregate shape. Payloads with
// a different version are rejected and the loader falls back to the next
// storage tier.
const ProgressSchemaVersion = 1

// ReviewType names one of the two review slots of a schedule.
type ReviewType string

const (
	ReviewOneDay  ReviewType = "oneDay"
	ReviewOneWeek ReviewType = "oneWeek"
)

// TopicStatus is derived from progress, never stored.
type TopicStatus string

const (
	StatusNotStarted TopicStatus = "not-started"
	StatusReviewDue  TopicStatus = "review-due"
	StatusCompleted  TopicStatus = "completed"
)

// QuizAttempt records one finished quiz run. Attempts are append-only.
type QuizAttempt struct {
	Date    time.Time `json:"date"`
	Score   int       `json:"score"`
	Correct int       `json:"correct"`
	Total   int       `json:"total"`
}

// ReviewSlot is one scheduled review with its completion flag.
type ReviewSlot struct {
	DueDate   time.Time `json:"due_date"`
	Completed bool      `json:"completed"`
}

// ReviewSchedule holds the two spaced-repetition slots created from the
// first quiz completion of a topic. The oneWeek slot only becomes "next"
// once oneDay is completed; due-checking prefers oneDay.
type ReviewSchedule struct {
	OneDay  ReviewSlot `json:"one_day"`
	OneWeek ReviewSlot `json:"one_week"`
}

// Slot returns a pointer into the schedule for the named review type.
func (s *ReviewSchedule) Slot(rt ReviewType) *ReviewSlot {
	switch rt {
	case ReviewOneDay:
		return &s.OneDay
	case ReviewOneWeek:
		return &s.OneWeek
	default:
		return nil
	}
}

// AnswerRecord preserves a single answered item inside a resumable session.
type AnswerRecord struct {
	ItemID     string `json:"item_id"`
	UserAnswer string `json:"user_answer"`
	IsCorrect  bool   `json:"is_correct"`
}

// ActiveQuizPosition is a resumable snapshot of an in-progress quiz: the
// shuffle order, how far the user got and what they answered so far.
type ActiveQuizPosition struct {
	CurrentIndex int            `json:"current_index"`
	ItemIDs      []string       `json:"item_ids"`
	Results      []AnswerRecord `json:"results"`
	StartedAt    time.Time      `json:"started_at"`
}

// ActiveReviewPosition is an ActiveQuizPosition tagged with the review slot
// it belongs to; a stored position must not resume a different slot.
type ActiveReviewPosition struct {
	ActiveQuizPosition
	ReviewType ReviewType `json:"review_type"`
}

// TopicProgress is the per-topic learning record.
type TopicProgress struct {
	TopicID      string                `json:"topic_id"`
	Attempts     []QuizAttempt         `json:"attempts"`
	BestScore    *int                  `json:"best_score,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	Review       *ReviewSchedule       `json:"review,omitempty"`
	ActiveQuiz   *ActiveQuizPosition   `json:"active_quiz,omitempty"`
	ActiveReview *ActiveReviewPosition `json:"active_review,omitempty"`
}

// LearningProgress is the whole-aggregate persistence unit. Every mutation
// stamps LastUpdated.
type LearningProgress struct {
	SchemaVersion   int                       `json:"schema_version"`
	Topics          map[string]*TopicProgress `json:"topics"`
	LastUpdated     time.Time                 `json:"last_updated"`
	DismissedAlerts map[string]bool           `json:"dismissed_alerts,omitempty"`
}

// NewLearningProgress returns an empty aggregate at the current schema.
func NewLearningProgress() *LearningProgress {
	return &LearningProgress{
		SchemaVersion:   ProgressSchemaVersion,
		Topics:          make(map[string]*TopicProgress),
		DismissedAlerts: make(map[string]bool),
	}
}

// Valid reports whether a loaded payload can be adopted.
func (p *LearningProgress) Valid() bool {
	return p != nil && p.SchemaVersion == ProgressSchemaVersion
}

// Normalize ensures maps exist after decoding a sparse payload.
func (p *LearningProgress) Normalize() {
	if p.Topics == nil {
		p.Topics = make(map[string]*TopicProgress)
	}
	if p.DismissedAlerts == nil {
		p.DismissedAlerts = make(map[string]bool)
	}
}

// Clone returns a deep copy of the aggregate. The aggregate is plain
// JSON-serialisable data, so a round-trip is the simplest faithful copy.
func (p *LearningProgress) Clone() *LearningProgress {
	if p == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return NewLearningProgress()
	}
	clone := &LearningProgress{}
	if err := json.Unmarshal(raw, clone); err != nil {
		return NewLearningProgress()
	}
	clone.Normalize()
	return clone
}

// AlertKey formats the dismissal key for a topic's review slot.
func AlertKey(topicID string, rt ReviewType) string {
	return fmt.Sprintf("%s-%s", topicID, rt)
}

// DueReview is one currently due, not yet completed review slot.
type DueReview struct {
	TopicID    string     `json:"topic_id"`
	ReviewType ReviewType `json:"review_type"`
	DueDate    time.Time  `json:"due_date"`
}
