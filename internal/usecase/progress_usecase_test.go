package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocadrill/internal/entity"
)

type fakeProgressCache struct {
	mu      sync.Mutex
	stored  *entity.LearningProgress
	loadErr error
	saveErr error
	saves   int
}

func (c *fakeProgressCache) Load(ctx context.Context) (*entity.LearningProgress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return c.stored.Clone(), nil
}

func (c *fakeProgressCache) Save(ctx context.Context, progress *entity.LearningProgress) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	if c.saveErr != nil {
		return c.saveErr
	}
	c.stored = progress.Clone()
	return nil
}

type fakeProgressMirror struct {
	mu       sync.Mutex
	stored   *entity.LearningProgress
	fetchErr error
	pushErr  error
	pushes   int
}

func (m *fakeProgressMirror) Fetch(ctx context.Context) (*entity.LearningProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.stored.Clone(), nil
}

func (m *fakeProgressMirror) Push(ctx context.Context, progress *entity.LearningProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes++
	if m.pushErr != nil {
		return m.pushErr
	}
	m.stored = progress.Clone()
	return nil
}

func (m *fakeProgressMirror) pushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushes
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestUsecase(cache *fakeProgressCache, mirror *fakeProgressMirror) (*progressUsecase, *time.Time) {
	var u ProgressUsecase
	if mirror == nil {
		u = NewProgressUsecase(cache, nil, testLogger(), 50*time.Millisecond)
	} else {
		u = NewProgressUsecase(cache, mirror, testLogger(), 50*time.Millisecond)
	}
	impl := u.(*progressUsecase)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.Local)
	clock := &now
	impl.clock = func() time.Time { return *clock }
	return impl, clock
}

func TestLoadPrefersRemote(t *testing.T) {
	remote := entity.NewLearningProgress()
	remote.Topics["t1"] = &entity.TopicProgress{TopicID: "t1"}
	cache := &fakeProgressCache{}
	mirror := &fakeProgressMirror{stored: remote}

	u, _ := newTestUsecase(cache, mirror)
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if u.Snapshot().Topics["t1"] == nil {
		t.Fatal("remote aggregate not adopted")
	}
	if cache.stored == nil || cache.stored.Topics["t1"] == nil {
		t.Fatal("remote aggregate not mirrored into local cache")
	}
}

func TestLoadFallsBackToCache(t *testing.T) {
	cached := entity.NewLearningProgress()
	cached.Topics["t2"] = &entity.TopicProgress{TopicID: "t2"}
	cache := &fakeProgressCache{stored: cached}
	mirror := &fakeProgressMirror{fetchErr: errors.New("network down")}

	u, _ := newTestUsecase(cache, mirror)
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if u.Snapshot().Topics["t2"] == nil {
		t.Fatal("cached aggregate not adopted on remote failure")
	}
}

func TestLoadRejectsWrongSchema(t *testing.T) {
	stale := entity.NewLearningProgress()
	stale.SchemaVersion = 99
	cache := &fakeProgressCache{}
	mirror := &fakeProgressMirror{stored: stale}

	u, _ := newTestUsecase(cache, mirror)
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snapshot := u.Snapshot()
	if snapshot.SchemaVersion != entity.ProgressSchemaVersion || len(snapshot.Topics) != 0 {
		t.Fatalf("wrong-schema payload adopted: %+v", snapshot)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := &fakeProgressCache{}
	u, _ := newTestUsecase(cache, nil)
	if _, err := u.RecordQuizAttempt(context.Background(), "t1", 4, 5); err != nil {
		t.Fatalf("RecordQuizAttempt: %v", err)
	}

	// A second store loading the same cache with no remote reproduces the
	// aggregate.
	u2, _ := newTestUsecase(cache, nil)
	if err := u2.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	topic := u2.Snapshot().Topics["t1"]
	if topic == nil || len(topic.Attempts) != 1 || topic.Attempts[0].Score != 80 {
		t.Fatalf("round-trip lost data: %+v", topic)
	}
}

func TestRecordQuizAttempt(t *testing.T) {
	u, clock := newTestUsecase(&fakeProgressCache{}, nil)
	ctx := context.Background()

	topic, err := u.RecordQuizAttempt(ctx, "t1", 3, 5)
	if err != nil {
		t.Fatalf("RecordQuizAttempt: %v", err)
	}
	if topic.BestScore == nil || *topic.BestScore != 60 {
		t.Fatalf("BestScore = %v, want 60", topic.BestScore)
	}
	if topic.CompletedAt == nil || !topic.CompletedAt.Equal(*clock) {
		t.Fatalf("CompletedAt = %v, want first attempt time", topic.CompletedAt)
	}
	if topic.Review == nil {
		t.Fatal("first completion must create the review schedule")
	}
	firstSchedule := *topic.Review

	// Second, better attempt: best score rises, completion time and
	// schedule stay from the first attempt.
	*clock = clock.Add(time.Hour)
	topic, err = u.RecordQuizAttempt(ctx, "t1", 5, 5)
	if err != nil {
		t.Fatalf("RecordQuizAttempt: %v", err)
	}
	if *topic.BestScore != 100 {
		t.Fatalf("BestScore = %d, want 100", *topic.BestScore)
	}
	if len(topic.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(topic.Attempts))
	}
	if !topic.Review.OneDay.DueDate.Equal(firstSchedule.OneDay.DueDate) {
		t.Fatal("second attempt must not recreate the review schedule")
	}

	// Worse attempt: best score untouched.
	topic, _ = u.RecordQuizAttempt(ctx, "t1", 1, 5)
	if *topic.BestScore != 100 {
		t.Fatalf("BestScore = %d, want 100 kept", *topic.BestScore)
	}
}

func TestTopicStatusLifecycle(t *testing.T) {
	u, clock := newTestUsecase(&fakeProgressCache{}, nil)
	ctx := context.Background()

	if got := u.TopicStatus("t1"); got != entity.StatusNotStarted {
		t.Fatalf("status = %v, want not-started", got)
	}

	if _, err := u.RecordQuizAttempt(ctx, "t1", 5, 5); err != nil {
		t.Fatalf("RecordQuizAttempt: %v", err)
	}
	if got := u.TopicStatus("t1"); got != entity.StatusCompleted {
		t.Fatalf("status = %v, want completed", got)
	}

	// Past the oneDay due date the topic shows as review-due.
	*clock = time.Date(2025, 3, 15, 8, 0, 0, 0, time.Local)
	if got := u.TopicStatus("t1"); got != entity.StatusReviewDue {
		t.Fatalf("status = %v, want review-due", got)
	}

	if err := u.MarkReviewCompleted(ctx, "t1", entity.ReviewOneDay); err != nil {
		t.Fatalf("MarkReviewCompleted: %v", err)
	}
	if got := u.TopicStatus("t1"); got != entity.StatusCompleted {
		t.Fatalf("status = %v, want completed before oneWeek is due", got)
	}
}

func TestDueReviewsPriority(t *testing.T) {
	u, clock := newTestUsecase(&fakeProgressCache{}, nil)
	ctx := context.Background()
	if _, err := u.RecordQuizAttempt(ctx, "t1", 5, 5); err != nil {
		t.Fatalf("RecordQuizAttempt: %v", err)
	}

	*clock = time.Date(2025, 3, 22, 8, 0, 0, 0, time.Local) // both slots overdue
	due := u.DueReviews()
	if len(due) != 2 {
		t.Fatalf("due = %v, want both slots", due)
	}
	if due[0].ReviewType != entity.ReviewOneDay || due[1].ReviewType != entity.ReviewOneWeek {
		t.Fatalf("due order = %v, want oneDay before oneWeek", due)
	}
}

func TestReviewPositionSlotTag(t *testing.T) {
	u, _ := newTestUsecase(&fakeProgressCache{}, nil)
	ctx := context.Background()

	pos := entity.ActiveReviewPosition{
		ActiveQuizPosition: entity.ActiveQuizPosition{CurrentIndex: 2, ItemIDs: []string{"a", "b", "c"}},
		ReviewType:         entity.ReviewOneDay,
	}
	if err := u.SaveReviewPosition(ctx, "t1", pos); err != nil {
		t.Fatalf("SaveReviewPosition: %v", err)
	}

	if got := u.ReviewPosition("t1", entity.ReviewOneWeek); got != nil {
		t.Fatal("stale cross-slot position must not resume")
	}
	if got := u.ReviewPosition("t1", entity.ReviewOneDay); got == nil || got.CurrentIndex != 2 {
		t.Fatalf("matching slot position = %+v", got)
	}
}

func TestScheduleReviewClearsDismissals(t *testing.T) {
	u, _ := newTestUsecase(&fakeProgressCache{}, nil)
	ctx := context.Background()

	if err := u.DismissReviewAlert(ctx, "t1", entity.ReviewOneDay); err != nil {
		t.Fatalf("DismissReviewAlert: %v", err)
	}
	if !u.IsReviewAlertDismissed("t1", entity.ReviewOneDay) {
		t.Fatal("alert should be dismissed")
	}

	if err := u.ScheduleReview(ctx, "t1"); err != nil {
		t.Fatalf("ScheduleReview: %v", err)
	}
	if u.IsReviewAlertDismissed("t1", entity.ReviewOneDay) {
		t.Fatal("re-scheduling must clear stale dismissals")
	}
	if u.Snapshot().Topics["t1"].Review == nil {
		t.Fatal("re-scheduling must create a fresh schedule")
	}
}

func TestDebouncedPushCoalesces(t *testing.T) {
	cache := &fakeProgressCache{}
	mirror := &fakeProgressMirror{}
	u, _ := newTestUsecase(cache, mirror)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := u.RecordQuizAttempt(ctx, "t1", i, 5); err != nil {
			t.Fatalf("RecordQuizAttempt: %v", err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for mirror.pushCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := mirror.pushCount(); got != 1 {
		t.Fatalf("pushes = %d, want the burst coalesced into 1", got)
	}
	if len(mirror.stored.Topics["t1"].Attempts) != 5 {
		t.Fatal("push must carry the final aggregate state")
	}
}

func TestRemotePushFailureIsSilent(t *testing.T) {
	cache := &fakeProgressCache{}
	mirror := &fakeProgressMirror{pushErr: errors.New("remote down")}
	u, _ := newTestUsecase(cache, mirror)

	if _, err := u.RecordQuizAttempt(context.Background(), "t1", 5, 5); err != nil {
		t.Fatalf("mutation must not fail on remote problems: %v", err)
	}
	u.Flush(context.Background())
	if cache.stored == nil {
		t.Fatal("local cache must still hold the aggregate")
	}
}

func TestClosedStoreRejectsMutations(t *testing.T) {
	u, _ := newTestUsecase(&fakeProgressCache{}, nil)
	u.Close()
	if _, err := u.RecordQuizAttempt(context.Background(), "t1", 5, 5); err == nil {
		t.Fatal("mutation after Close must fail")
	}
}
