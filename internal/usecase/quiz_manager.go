package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocadrill/internal/entity"
	"github.com/eslsoft/vocadrill/internal/repository"
)

// QuizManager serves quiz sessions to the HTTP adapter: one active session
// per session id, with the progress store side effects (position saving,
// attempt recording) applied at the right transitions.
type QuizManager struct {
	topics   repository.TopicRepository
	progress ProgressUsecase
	logger   *logrus.Logger
	clock    func() time.Time

	mu       sync.Mutex
	sessions map[string]*QuizSession
	// reviews tags sessions opened for a review slot; their persistence
	// side effects target the review position and schedule instead of the
	// quiz position and attempt history.
	reviews map[string]entity.ReviewType
}

// NewQuizManager builds the session registry.
func NewQuizManager(topics repository.TopicRepository, progress ProgressUsecase, logger *logrus.Logger) *QuizManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &QuizManager{
		topics:   topics,
		progress: progress,
		logger:   logger,
		clock:    time.Now,
		sessions: make(map[string]*QuizSession),
		reviews:  make(map[string]entity.ReviewType),
	}
}

// Start opens a session for a topic, resuming the saved quiz position when
// one exists and still resolves against the topic's items.
func (m *QuizManager) Start(ctx context.Context, topicID string) (*QuizSession, error) {
	topic, err := m.topics.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	saved := m.progress.QuizPosition(topicID)
	session, err := RestoreQuizSession(uuid.NewString(), topic, saved, m.clock())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session, nil
}

// StartReview opens a session that runs a due review slot. A saved review
// position resumes only when its stored slot tag matches the slot being
// started; completing the session marks the slot completed instead of
// recording a quiz attempt.
func (m *QuizManager) StartReview(ctx context.Context, topicID string, rt entity.ReviewType) (*QuizSession, error) {
	topic, err := m.topics.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if tp := m.progress.Snapshot().Topics[topicID]; tp == nil || tp.Review == nil {
		return nil, entity.ErrNoReviewSchedule
	}

	var saved *entity.ActiveQuizPosition
	if pos := m.progress.ReviewPosition(topicID, rt); pos != nil {
		saved = &pos.ActiveQuizPosition
	}
	session, err := RestoreQuizSession(uuid.NewString(), topic, saved, m.clock())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.reviews[session.ID] = rt
	m.mu.Unlock()
	return session, nil
}

// Get looks up an open session.
func (m *QuizManager) Get(sessionID string) (*QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return session, nil
}

// Answer records a composite answer for the session's current item and
// saves the resumable position.
func (m *QuizManager) Answer(ctx context.Context, sessionID, userAnswer string, isCorrect bool, phases []PhaseAnswer) (*QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	for _, phase := range phases {
		session.RecordPhase(phase.Phase, phase.Answer, phase.Passed)
	}
	if err := session.RecordAnswer(userAnswer, isCorrect); err != nil {
		return nil, err
	}
	m.savePositionLocked(ctx, session)
	return session, nil
}

// savePositionLocked persists the resumable position under the right key
// for the session kind. Callers hold m.mu.
func (m *QuizManager) savePositionLocked(ctx context.Context, session *QuizSession) {
	if rt, ok := m.reviews[session.ID]; ok {
		pos := entity.ActiveReviewPosition{ActiveQuizPosition: session.Position(), ReviewType: rt}
		if err := m.progress.SaveReviewPosition(ctx, session.TopicID, pos); err != nil {
			m.logger.WithError(err).Warn("save review position")
		}
		return
	}
	if err := m.progress.SaveQuizPosition(ctx, session.TopicID, session.Position()); err != nil {
		m.logger.WithError(err).Warn("save quiz position")
	}
}

// Next advances the session. On the transition into the complete state the
// attempt is recorded and the saved position cleared, exactly once.
func (m *QuizManager) Next(ctx context.Context, sessionID string) (*QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}

	session.NextQuestion()
	if session.FinishOnce() {
		m.finishLocked(ctx, session)
	} else if !session.IsComplete() {
		m.savePositionLocked(ctx, session)
	}
	return session, nil
}

// finishLocked applies the exactly-once completion side effect: reviews
// mark their slot completed, quizzes record an attempt. Callers hold m.mu.
func (m *QuizManager) finishLocked(ctx context.Context, session *QuizSession) {
	if rt, ok := m.reviews[session.ID]; ok {
		if err := m.progress.MarkReviewCompleted(ctx, session.TopicID, rt); err != nil {
			m.logger.WithError(err).Error("mark review completed")
		}
		if err := m.progress.ClearReviewPosition(ctx, session.TopicID); err != nil {
			m.logger.WithError(err).Warn("clear review position")
		}
		return
	}
	score := session.Score()
	if _, err := m.progress.RecordQuizAttempt(ctx, session.TopicID, score.Correct, score.Total); err != nil {
		m.logger.WithError(err).Error("record quiz attempt")
	}
	if err := m.progress.ClearQuizPosition(ctx, session.TopicID); err != nil {
		m.logger.WithError(err).Warn("clear quiz position")
	}
}

// Reset restarts the session with a fresh shuffle and drops any saved
// position.
func (m *QuizManager) Reset(ctx context.Context, sessionID string) (*QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	session.Reset(m.clock())
	if _, ok := m.reviews[session.ID]; ok {
		if err := m.progress.ClearReviewPosition(ctx, session.TopicID); err != nil {
			m.logger.WithError(err).Warn("clear review position")
		}
	} else if err := m.progress.ClearQuizPosition(ctx, session.TopicID); err != nil {
		m.logger.WithError(err).Warn("clear quiz position")
	}
	return session, nil
}
