package reminder

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocadrill/internal/entity"
	"github.com/eslsoft/vocadrill/internal/usecase"
)

type fakeProgress struct {
	usecase.ProgressUsecase
	due       []entity.DueReview
	dismissed map[string]bool
}

func (f *fakeProgress) DueReviews() []entity.DueReview { return f.due }

func (f *fakeProgress) IsReviewAlertDismissed(topicID string, rt entity.ReviewType) bool {
	return f.dismissed[entity.AlertKey(topicID, rt)]
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(message string) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, message)
	return nil
}

func newTestScheduler(progress usecase.ProgressUsecase, notifier Notifier, hour int) *Scheduler {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	s := NewScheduler(progress, notifier, logger, Options{WakingStart: 8, WakingEnd: 22})
	s.clock = func() time.Time {
		return time.Date(2025, 3, 14, hour, 0, 0, 0, time.Local)
	}
	return s
}

func TestScanNotifiesDueReviews(t *testing.T) {
	progress := &fakeProgress{
		due: []entity.DueReview{
			{TopicID: "food", ReviewType: entity.ReviewOneDay},
			{TopicID: "travel", ReviewType: entity.ReviewOneWeek},
		},
		dismissed: map[string]bool{},
	}
	notifier := &recordingNotifier{}
	s := newTestScheduler(progress, notifier, 10)

	s.scan()
	if len(notifier.messages) != 2 {
		t.Fatalf("messages = %v, want 2", notifier.messages)
	}

	// A second scan must not repeat delivery for the same slots.
	s.scan()
	if len(notifier.messages) != 2 {
		t.Fatalf("repeat scan re-notified: %v", notifier.messages)
	}
}

func TestScanSkipsDismissedAlerts(t *testing.T) {
	progress := &fakeProgress{
		due: []entity.DueReview{
			{TopicID: "food", ReviewType: entity.ReviewOneDay},
		},
		dismissed: map[string]bool{
			entity.AlertKey("food", entity.ReviewOneDay): true,
		},
	}
	notifier := &recordingNotifier{}
	s := newTestScheduler(progress, notifier, 10)

	s.scan()
	if len(notifier.messages) != 0 {
		t.Fatalf("dismissed alert was delivered: %v", notifier.messages)
	}
}

func TestScanRespectsWakingHours(t *testing.T) {
	progress := &fakeProgress{
		due:       []entity.DueReview{{TopicID: "food", ReviewType: entity.ReviewOneDay}},
		dismissed: map[string]bool{},
	}
	notifier := &recordingNotifier{}
	s := newTestScheduler(progress, notifier, 3)

	s.scan()
	if len(notifier.messages) != 0 {
		t.Fatalf("reminder delivered outside waking hours: %v", notifier.messages)
	}
}
