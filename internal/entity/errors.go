package entity

import "errors"

// Domain errors for topics, progress and quiz sessions.
var (
	ErrTopicNotFound      = errors.New("topic not found")
	ErrItemNotFound       = errors.New("vocabulary item not found")
	ErrInvalidTopicID     = errors.New("invalid topic ID")
	ErrInvalidProgress    = errors.New("invalid progress payload")
	ErrInvalidReviewType  = errors.New("invalid review type")
	ErrNoReviewSchedule   = errors.New("topic has no review schedule")
	ErrSessionNotFound    = errors.New("quiz session not found")
	ErrSessionComplete    = errors.New("quiz session already complete")
	ErrEmptyTopic         = errors.New("topic has no vocabulary items")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ParseReviewType converts a wire string into a ReviewType.
func ParseReviewType(s string) (ReviewType, error) {
	switch ReviewType(s) {
	case ReviewOneDay:
		return ReviewOneDay, nil
	case ReviewOneWeek:
		return ReviewOneWeek, nil
	default:
		return "", ErrInvalidReviewType
	}
}
