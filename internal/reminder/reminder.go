// Package reminder periodically scans for due reviews and delivers
// notifications through a pluggable notifier.
package reminder

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocadrill/internal/entity"
	"github.com/eslsoft/vocadrill/internal/usecase"
)

// Notifier delivers one reminder message to the user.
type Notifier interface {
	Notify(message string) error
}

// Options tune the scan cadence and the waking-hours window outside of
// which no reminders are sent.
type Options struct {
	Interval    time.Duration
	WakingStart int
	WakingEnd   int
}

func (o Options) normalized() Options {
	if o.Interval <= 0 {
		o.Interval = time.Hour
	}
	if o.WakingStart <= 0 {
		o.WakingStart = 8
	}
	if o.WakingEnd <= 0 || o.WakingEnd > 23 {
		o.WakingEnd = 22
	}
	return o
}

// Scheduler runs the periodic due-review scan.
type Scheduler struct {
	scheduler *gocron.Scheduler
	progress  usecase.ProgressUsecase
	notifier  Notifier
	logger    *logrus.Logger
	opts      Options
	clock     func() time.Time

	// notified suppresses repeat delivery for a slot within one process
	// lifetime; dismissals persisted in progress suppress across restarts.
	notified map[string]bool
}

// NewScheduler builds the reminder scheduler.
func NewScheduler(progress usecase.ProgressUsecase, notifier Notifier, logger *logrus.Logger, opts Options) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		progress:  progress,
		notifier:  notifier,
		logger:    logger,
		opts:      opts.normalized(),
		clock:     time.Now,
		notified:  make(map[string]bool),
	}
}

// Start begins the periodic scan without blocking.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.opts.Interval).Do(s.scan); err != nil {
		return fmt.Errorf("schedule reminder scan: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates the scan loop.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// scan sends one notification per due, undismissed review slot.
func (s *Scheduler) scan() {
	hour := s.clock().Hour()
	if hour < s.opts.WakingStart || hour > s.opts.WakingEnd {
		s.logger.WithField("hour", hour).Debug("outside waking hours, skipping reminders")
		return
	}

	for _, due := range s.progress.DueReviews() {
		if s.progress.IsReviewAlertDismissed(due.TopicID, due.ReviewType) {
			continue
		}
		key := entity.AlertKey(due.TopicID, due.ReviewType)
		if s.notified[key] {
			continue
		}
		if err := s.notifier.Notify(reminderMessage(due)); err != nil {
			s.logger.WithError(err).WithField("topic", due.TopicID).Warn("send reminder")
			continue
		}
		s.notified[key] = true
	}
}

func reminderMessage(due entity.DueReview) string {
	when := "yesterday's quiz"
	if due.ReviewType == entity.ReviewOneWeek {
		when = "last week's quiz"
	}
	return fmt.Sprintf("Review time! Vocabulary from %s (topic %s) is due.", when, due.TopicID)
}
