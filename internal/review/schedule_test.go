package review

import (
	"testing"
	"time"

	"github.com/eslsoft/vocadrill/internal/entity"
)

func TestCreateSchedule(t *testing.T) {
	completed := time.Date(2025, 3, 14, 15, 30, 45, 0, time.Local)
	schedule := CreateSchedule(completed)

	wantOneDay := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)
	wantOneWeek := time.Date(2025, 3, 21, 0, 0, 0, 0, time.Local)

	if !schedule.OneDay.DueDate.Equal(wantOneDay) {
		t.Errorf("oneDay due = %v, want %v", schedule.OneDay.DueDate, wantOneDay)
	}
	if !schedule.OneWeek.DueDate.Equal(wantOneWeek) {
		t.Errorf("oneWeek due = %v, want %v", schedule.OneWeek.DueDate, wantOneWeek)
	}
	if schedule.OneDay.Completed || schedule.OneWeek.Completed {
		t.Error("new schedule must start with both slots incomplete")
	}
}

func TestCreateScheduleLateEvening(t *testing.T) {
	// Completing just before midnight still schedules the very next day.
	completed := time.Date(2025, 3, 14, 23, 59, 0, 0, time.Local)
	schedule := CreateSchedule(completed)
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)
	if !schedule.OneDay.DueDate.Equal(want) {
		t.Errorf("oneDay due = %v, want %v", schedule.OneDay.DueDate, want)
	}
}

func TestIsDue(t *testing.T) {
	completed := time.Date(2025, 3, 14, 12, 0, 0, 0, time.Local)
	schedule := CreateSchedule(completed)

	beforeOneDay := time.Date(2025, 3, 14, 18, 0, 0, 0, time.Local)
	afterOneDay := time.Date(2025, 3, 15, 8, 0, 0, 0, time.Local)
	afterOneWeek := time.Date(2025, 3, 22, 8, 0, 0, 0, time.Local)

	if due := IsDue(schedule, beforeOneDay); due.AnyDue() {
		t.Errorf("nothing should be due at %v: %+v", beforeOneDay, due)
	}
	if due := IsDue(schedule, afterOneDay); !due.OneDay || due.OneWeek {
		t.Errorf("only oneDay should be due at %v: %+v", afterOneDay, due)
	}
	if due := IsDue(schedule, afterOneWeek); !due.OneDay || !due.OneWeek {
		t.Errorf("both slots should be due at %v: %+v", afterOneWeek, due)
	}

	MarkCompleted(schedule, entity.ReviewOneDay)
	if due := IsDue(schedule, afterOneDay); due.OneDay {
		t.Error("completed oneDay slot must not be due")
	}
}

func TestIsDueExactBoundary(t *testing.T) {
	schedule := CreateSchedule(time.Date(2025, 3, 14, 12, 0, 0, 0, time.Local))
	// Due exactly at midnight, not a moment before.
	if !IsDue(schedule, schedule.OneDay.DueDate).OneDay {
		t.Error("slot must be due exactly at its due date")
	}
	if IsDue(schedule, schedule.OneDay.DueDate.Add(-time.Second)).OneDay {
		t.Error("slot must not be due before its due date")
	}
}

func TestNextDueSlotPriority(t *testing.T) {
	schedule := CreateSchedule(time.Date(2025, 3, 14, 12, 0, 0, 0, time.Local))
	afterOneWeek := time.Date(2025, 3, 23, 0, 0, 0, 0, time.Local)

	rt, ok := NextDueSlot(schedule, afterOneWeek)
	if !ok || rt != entity.ReviewOneDay {
		t.Fatalf("NextDueSlot = %v/%v, want oneDay first", rt, ok)
	}

	MarkCompleted(schedule, entity.ReviewOneDay)
	rt, ok = NextDueSlot(schedule, afterOneWeek)
	if !ok || rt != entity.ReviewOneWeek {
		t.Fatalf("NextDueSlot = %v/%v, want oneWeek after oneDay done", rt, ok)
	}

	MarkCompleted(schedule, entity.ReviewOneWeek)
	if _, ok := NextDueSlot(schedule, afterOneWeek); ok {
		t.Fatal("no slot should be due once both are completed")
	}
}

func TestStatusFor(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.Local)

	if got := StatusFor(nil, now); got != entity.StatusNotStarted {
		t.Errorf("nil progress: got %v", got)
	}
	if got := StatusFor(&entity.TopicProgress{TopicID: "t1"}, now); got != entity.StatusNotStarted {
		t.Errorf("no attempts: got %v", got)
	}

	progress := &entity.TopicProgress{
		TopicID:  "t1",
		Attempts: []entity.QuizAttempt{{Score: 80, Correct: 4, Total: 5}},
		Review:   CreateSchedule(time.Date(2025, 3, 14, 12, 0, 0, 0, time.Local)),
	}
	if got := StatusFor(progress, now); got != entity.StatusReviewDue {
		t.Errorf("overdue oneDay: got %v, want review-due", got)
	}

	MarkCompleted(progress.Review, entity.ReviewOneDay)
	if got := StatusFor(progress, now); got != entity.StatusCompleted {
		t.Errorf("before oneWeek: got %v, want completed", got)
	}
}
