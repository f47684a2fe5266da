package usecase

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocadrill/internal/entity"
	"github.com/eslsoft/vocadrill/internal/repository"
	"github.com/eslsoft/vocadrill/internal/review"
)

// DefaultSyncDebounce is the quiet window after the last mutation before
// the aggregate is pushed to the remote mirror.
const DefaultSyncDebounce = 2 * time.Second

// ProgressUsecase owns the learning progress aggregate: a single-writer
// state cell whose mutations are pure previous-state to next-state
// functions, with synchronous local cache writes and a debounced,
// best-effort remote mirror push.
type ProgressUsecase interface {
	Load(ctx context.Context) error
	Snapshot() *entity.LearningProgress
	Replace(ctx context.Context, progress *entity.LearningProgress) error

	RecordQuizAttempt(ctx context.Context, topicID string, correct, total int) (*entity.TopicProgress, error)
	MarkReviewCompleted(ctx context.Context, topicID string, rt entity.ReviewType) error
	ScheduleReview(ctx context.Context, topicID string) error

	SaveQuizPosition(ctx context.Context, topicID string, pos entity.ActiveQuizPosition) error
	QuizPosition(topicID string) *entity.ActiveQuizPosition
	ClearQuizPosition(ctx context.Context, topicID string) error
	SaveReviewPosition(ctx context.Context, topicID string, pos entity.ActiveReviewPosition) error
	ReviewPosition(topicID string, rt entity.ReviewType) *entity.ActiveReviewPosition
	ClearReviewPosition(ctx context.Context, topicID string) error

	DismissReviewAlert(ctx context.Context, topicID string, rt entity.ReviewType) error
	IsReviewAlertDismissed(topicID string, rt entity.ReviewType) bool

	DueReviews() []entity.DueReview
	TopicStatus(topicID string) entity.TopicStatus

	Flush(ctx context.Context)
	Close()
}

// NewProgressUsecase wires the two persistence tiers. The mirror may be nil
// when no remote endpoint is configured.
func NewProgressUsecase(cache repository.ProgressCache, mirror repository.ProgressMirror, logger *logrus.Logger, debounce time.Duration) ProgressUsecase {
	if logger == nil {
		logger = logrus.New()
	}
	if debounce <= 0 {
		debounce = DefaultSyncDebounce
	}
	return &progressUsecase{
		cache:    cache,
		mirror:   mirror,
		logger:   logger,
		debounce: debounce,
		clock:    time.Now,
		state:    entity.NewLearningProgress(),
	}
}

type progressUsecase struct {
	cache    repository.ProgressCache
	mirror   repository.ProgressMirror
	logger   *logrus.Logger
	debounce time.Duration
	clock    func() time.Time

	mu        sync.Mutex
	state     *entity.LearningProgress
	syncTimer *time.Timer
	closed    bool
}

// Load initialises the state cell: remote first, local cache as fallback,
// empty aggregate as last resort. A response arriving after Close is
// discarded rather than applied.
func (u *progressUsecase) Load(ctx context.Context) error {
	loaded := u.loadRemote(ctx)
	fromRemote := loaded != nil
	if loaded == nil {
		loaded = u.loadCache(ctx)
	}
	if loaded == nil {
		loaded = entity.NewLearningProgress()
	}
	loaded.Normalize()

	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return nil
	}
	u.state = loaded
	u.mu.Unlock()

	// Adopt the remote copy locally so the cache survives going offline.
	if fromRemote {
		if err := u.cache.Save(ctx, loaded.Clone()); err != nil {
			u.logger.WithError(err).Warn("mirror remote progress into cache")
		}
	}
	return nil
}

func (u *progressUsecase) loadRemote(ctx context.Context) *entity.LearningProgress {
	if u.mirror == nil {
		return nil
	}
	remote, err := u.mirror.Fetch(ctx)
	if err != nil {
		u.logger.WithError(err).Warn("fetch remote progress, falling back to cache")
		return nil
	}
	if remote == nil {
		return nil
	}
	if !remote.Valid() {
		u.logger.WithField("schema_version", remote.SchemaVersion).Warn("remote progress has unexpected schema, falling back to cache")
		return nil
	}
	return remote
}

func (u *progressUsecase) loadCache(ctx context.Context) *entity.LearningProgress {
	cached, err := u.cache.Load(ctx)
	if err != nil {
		u.logger.WithError(err).Warn("load cached progress, starting empty")
		return nil
	}
	if cached == nil || !cached.Valid() {
		return nil
	}
	return cached
}

// Snapshot returns a deep copy of the current aggregate.
func (u *progressUsecase) Snapshot() *entity.LearningProgress {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.Clone()
}

// Replace adopts a whole aggregate, e.g. one POSTed by a syncing client.
func (u *progressUsecase) Replace(ctx context.Context, progress *entity.LearningProgress) error {
	if !progress.Valid() {
		return entity.ErrInvalidProgress
	}
	replacement := progress.Clone()
	return u.apply(ctx, func(state *entity.LearningProgress) error {
		*state = *replacement
		return nil
	})
}

// RecordQuizAttempt appends an attempt, tracks the best score, stamps the
// first-ever completion and creates the review schedule on that first
// completion only.
func (u *progressUsecase) RecordQuizAttempt(ctx context.Context, topicID string, correct, total int) (*entity.TopicProgress, error) {
	if topicID == "" {
		return nil, entity.ErrInvalidTopicID
	}
	var updated *entity.TopicProgress
	err := u.apply(ctx, func(state *entity.LearningProgress) error {
		now := u.clock()
		topic := ensureTopic(state, topicID)

		score := 0
		if total > 0 {
			score = int(math.Round(100 * float64(correct) / float64(total)))
		}
		topic.Attempts = append(topic.Attempts, entity.QuizAttempt{
			Date:    now,
			Score:   score,
			Correct: correct,
			Total:   total,
		})
		if topic.BestScore == nil || score > *topic.BestScore {
			topic.BestScore = &score
		}
		if topic.CompletedAt == nil {
			completedAt := now
			topic.CompletedAt = &completedAt
			topic.Review = review.CreateSchedule(now)
		}
		updated = topic
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkReviewCompleted completes one slot; it never creates new slots.
func (u *progressUsecase) MarkReviewCompleted(ctx context.Context, topicID string, rt entity.ReviewType) error {
	return u.apply(ctx, func(state *entity.LearningProgress) error {
		topic := state.Topics[topicID]
		if topic == nil || topic.Review == nil {
			return entity.ErrNoReviewSchedule
		}
		review.MarkCompleted(topic.Review, rt)
		return nil
	})
}

// ScheduleReview recomputes a brand-new schedule from now (explicit re-add
// to review) and clears stale alert dismissals so the new cycle can alert.
func (u *progressUsecase) ScheduleReview(ctx context.Context, topicID string) error {
	return u.apply(ctx, func(state *entity.LearningProgress) error {
		topic := ensureTopic(state, topicID)
		topic.Review = review.CreateSchedule(u.clock())
		delete(state.DismissedAlerts, entity.AlertKey(topicID, entity.ReviewOneDay))
		delete(state.DismissedAlerts, entity.AlertKey(topicID, entity.ReviewOneWeek))
		return nil
	})
}

func (u *progressUsecase) SaveQuizPosition(ctx context.Context, topicID string, pos entity.ActiveQuizPosition) error {
	return u.apply(ctx, func(state *entity.LearningProgress) error {
		ensureTopic(state, topicID).ActiveQuiz = &pos
		return nil
	})
}

func (u *progressUsecase) QuizPosition(topicID string) *entity.ActiveQuizPosition {
	u.mu.Lock()
	defer u.mu.Unlock()
	topic := u.state.Topics[topicID]
	if topic == nil || topic.ActiveQuiz == nil {
		return nil
	}
	clone := *topic.ActiveQuiz
	return &clone
}

func (u *progressUsecase) ClearQuizPosition(ctx context.Context, topicID string) error {
	return u.apply(ctx, func(state *entity.LearningProgress) error {
		if topic := state.Topics[topicID]; topic != nil {
			topic.ActiveQuiz = nil
		}
		return nil
	})
}

func (u *progressUsecase) SaveReviewPosition(ctx context.Context, topicID string, pos entity.ActiveReviewPosition) error {
	return u.apply(ctx, func(state *entity.LearningProgress) error {
		ensureTopic(state, topicID).ActiveReview = &pos
		return nil
	})
}

// ReviewPosition returns the stored position only when its slot tag matches
// the slot being resumed; stale cross-slot data must not resume.
func (u *progressUsecase) ReviewPosition(topicID string, rt entity.ReviewType) *entity.ActiveReviewPosition {
	u.mu.Lock()
	defer u.mu.Unlock()
	topic := u.state.Topics[topicID]
	if topic == nil || topic.ActiveReview == nil || topic.ActiveReview.ReviewType != rt {
		return nil
	}
	clone := *topic.ActiveReview
	return &clone
}

func (u *progressUsecase) ClearReviewPosition(ctx context.Context, topicID string) error {
	return u.apply(ctx, func(state *entity.LearningProgress) error {
		if topic := state.Topics[topicID]; topic != nil {
			topic.ActiveReview = nil
		}
		return nil
	})
}

func (u *progressUsecase) DismissReviewAlert(ctx context.Context, topicID string, rt entity.ReviewType) error {
	return u.apply(ctx, func(state *entity.LearningProgress) error {
		state.DismissedAlerts[entity.AlertKey(topicID, rt)] = true
		return nil
	})
}

func (u *progressUsecase) IsReviewAlertDismissed(topicID string, rt entity.ReviewType) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.DismissedAlerts[entity.AlertKey(topicID, rt)]
}

// DueReviews scans every topic and returns one entry per currently due,
// not yet completed slot, oneDay before oneWeek within a topic.
func (u *progressUsecase) DueReviews() []entity.DueReview {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.clock()
	topicIDs := lo.Keys(u.state.Topics)
	sort.Strings(topicIDs)

	var due []entity.DueReview
	for _, topicID := range topicIDs {
		topic := u.state.Topics[topicID]
		if topic.Review == nil {
			continue
		}
		state := review.IsDue(topic.Review, now)
		if state.OneDay {
			due = append(due, entity.DueReview{TopicID: topicID, ReviewType: entity.ReviewOneDay, DueDate: topic.Review.OneDay.DueDate})
		}
		if state.OneWeek {
			due = append(due, entity.DueReview{TopicID: topicID, ReviewType: entity.ReviewOneWeek, DueDate: topic.Review.OneWeek.DueDate})
		}
	}
	return due
}

func (u *progressUsecase) TopicStatus(topicID string) entity.TopicStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	return review.StatusFor(u.state.Topics[topicID], u.clock())
}

// Flush pushes the current aggregate to the mirror immediately.
func (u *progressUsecase) Flush(ctx context.Context) {
	u.mu.Lock()
	if u.syncTimer != nil {
		u.syncTimer.Stop()
		u.syncTimer = nil
	}
	snapshot := u.state.Clone()
	u.mu.Unlock()
	u.push(ctx, snapshot)
}

// Close stops the debounce timer; later async completions become no-ops.
func (u *progressUsecase) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed = true
	if u.syncTimer != nil {
		u.syncTimer.Stop()
		u.syncTimer = nil
	}
}

// apply runs one reducer over a clone of the current state, commits the
// result, writes the cache synchronously and schedules the debounced
// remote push. Serialised by the single mutex, so concurrent mutation
// requests commute safely.
func (u *progressUsecase) apply(ctx context.Context, reduce func(*entity.LearningProgress) error) error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return entity.ErrStorageUnavailable
	}
	next := u.state.Clone()
	if err := reduce(next); err != nil {
		u.mu.Unlock()
		return err
	}
	next.LastUpdated = u.clock()
	u.state = next
	snapshot := next.Clone()
	u.scheduleSyncLocked()
	u.mu.Unlock()

	// Local cache is the durable tier for the running session; failures
	// are logged, never fatal.
	if err := u.cache.Save(ctx, snapshot); err != nil {
		u.logger.WithError(err).Warn("save progress to local cache")
	}
	return nil
}

// scheduleSyncLocked resets the trailing-debounce timer: only the final
// aggregate state within a quiet window is pushed remotely.
func (u *progressUsecase) scheduleSyncLocked() {
	if u.mirror == nil {
		return
	}
	if u.syncTimer != nil {
		u.syncTimer.Stop()
	}
	u.syncTimer = time.AfterFunc(u.debounce, func() {
		u.mu.Lock()
		if u.closed {
			u.mu.Unlock()
			return
		}
		snapshot := u.state.Clone()
		u.mu.Unlock()
		u.push(context.Background(), snapshot)
	})
}

func (u *progressUsecase) push(ctx context.Context, snapshot *entity.LearningProgress) {
	if u.mirror == nil {
		return
	}
	if err := u.mirror.Push(ctx, snapshot); err != nil {
		u.logger.WithError(err).Debug("push progress to remote mirror")
	}
}

func ensureTopic(state *entity.LearningProgress, topicID string) *entity.TopicProgress {
	topic := state.Topics[topicID]
	if topic == nil {
		topic = &entity.TopicProgress{TopicID: topicID}
		state.Topics[topicID] = topic
	}
	return topic
}
