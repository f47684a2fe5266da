// Package review implements the spaced-repetition schedule: two fixed
// review slots (one day and one week after the first quiz completion),
// due-state evaluation and topic status derivation.
package review

import (
	"time"

	"github.com/eslsoft/vocadrill/internal/entity"
)

// CreateSchedule builds a fresh schedule from a completion timestamp. The
// oneDay slot falls due at local midnight of the next calendar day, the
// oneWeek slot at local midnight seven calendar days later.
func CreateSchedule(completedAt time.Time) *entity.ReviewSchedule {
	return &entity.ReviewSchedule{
		OneDay:  entity.ReviewSlot{DueDate: startOfDay(completedAt.AddDate(0, 0, 1))},
		OneWeek: entity.ReviewSlot{DueDate: startOfDay(completedAt.AddDate(0, 0, 7))},
	}
}

// DueState reports which slots of a schedule are currently due.
type DueState struct {
	OneDay  bool
	OneWeek bool
}

// AnyDue reports whether at least one slot is due.
func (d DueState) AnyDue() bool { return d.OneDay || d.OneWeek }

// IsDue evaluates both slots against now. A slot is due iff it is not
// completed and its due date has passed.
func IsDue(schedule *entity.ReviewSchedule, now time.Time) DueState {
	if schedule == nil {
		return DueState{}
	}
	return DueState{
		OneDay:  slotDue(schedule.OneDay, now),
		OneWeek: slotDue(schedule.OneWeek, now),
	}
}

// NextDueSlot returns the review type to act on when any slot is due,
// preferring oneDay over oneWeek.
func NextDueSlot(schedule *entity.ReviewSchedule, now time.Time) (entity.ReviewType, bool) {
	due := IsDue(schedule, now)
	switch {
	case due.OneDay:
		return entity.ReviewOneDay, true
	case due.OneWeek:
		return entity.ReviewOneWeek, true
	default:
		return "", false
	}
}

// MarkCompleted sets the named slot's completed flag. It never creates new
// slots; re-entering the cycle requires an explicit reschedule.
func MarkCompleted(schedule *entity.ReviewSchedule, rt entity.ReviewType) {
	if schedule == nil {
		return
	}
	if slot := schedule.Slot(rt); slot != nil {
		slot.Completed = true
	}
}

// StatusFor derives the topic status from its progress record: not-started
// without attempts, review-due when an uncompleted slot's due date has
// passed, completed otherwise.
func StatusFor(progress *entity.TopicProgress, now time.Time) entity.TopicStatus {
	if progress == nil || len(progress.Attempts) == 0 {
		return entity.StatusNotStarted
	}
	if IsDue(progress.Review, now).AnyDue() {
		return entity.StatusReviewDue
	}
	return entity.StatusCompleted
}

func slotDue(slot entity.ReviewSlot, now time.Time) bool {
	return !slot.Completed && !now.Before(slot.DueDate)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
