// Package httpapi exposes the learning engine over a JSON HTTP API: topic
// content, progress persistence, review scheduling, answer scoring and quiz
// sessions.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocadrill/internal/entity"
	"github.com/eslsoft/vocadrill/internal/grammar"
	"github.com/eslsoft/vocadrill/internal/repository"
	"github.com/eslsoft/vocadrill/internal/scoring"
	"github.com/eslsoft/vocadrill/internal/usecase"
)

// Handler bundles the API dependencies behind a gorilla/mux router.
type Handler struct {
	topics   repository.TopicRepository
	progress usecase.ProgressUsecase
	quizzes  *usecase.QuizManager
	grammar  *grammar.Service
	logger   *logrus.Logger
}

// NewHandler wires the API surface. The grammar service may be nil, in
// which case translation scoring returns local signals only.
func NewHandler(
	topics repository.TopicRepository,
	progress usecase.ProgressUsecase,
	quizzes *usecase.QuizManager,
	grammarSvc *grammar.Service,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		topics:   topics,
		progress: progress,
		quizzes:  quizzes,
		grammar:  grammarSvc,
		logger:   logger,
	}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/topics", h.listTopics).Methods(http.MethodGet)
	api.HandleFunc("/topics/{id}/words", h.topicWords).Methods(http.MethodGet)

	api.HandleFunc("/progress", h.getProgress).Methods(http.MethodGet)
	api.HandleFunc("/progress", h.putProgress).Methods(http.MethodPost)

	api.HandleFunc("/reviews/due", h.dueReviews).Methods(http.MethodGet)
	api.HandleFunc("/reviews/{topicID}/{reviewType}/complete", h.completeReview).Methods(http.MethodPost)
	api.HandleFunc("/reviews/{topicID}/schedule", h.scheduleReview).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{topicID}/{reviewType}/dismiss", h.dismissAlert).Methods(http.MethodPost)

	api.HandleFunc("/score/pronunciation", h.scorePronunciation).Methods(http.MethodPost)
	api.HandleFunc("/score/translation", h.scoreTranslation).Methods(http.MethodPost)

	api.HandleFunc("/topics/{id}/quiz", h.startQuiz).Methods(http.MethodPost)
	api.HandleFunc("/topics/{id}/review/{reviewType}", h.startReview).Methods(http.MethodPost)
	api.HandleFunc("/quiz/sessions/{sid}", h.getQuiz).Methods(http.MethodGet)
	api.HandleFunc("/quiz/sessions/{sid}/answer", h.answerQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quiz/sessions/{sid}/next", h.nextQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quiz/sessions/{sid}/reset", h.resetQuiz).Methods(http.MethodPost)

	return r
}

type topicSummary struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	WordCount int                `json:"word_count"`
	Status    entity.TopicStatus `json:"status"`
	BestScore *int               `json:"best_score,omitempty"`
}

func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topics.ListTopics(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	snapshot := h.progress.Snapshot()
	summaries := make([]topicSummary, 0, len(topics))
	for _, topic := range topics {
		summary := topicSummary{
			ID:        topic.ID,
			Name:      topic.Name,
			WordCount: len(topic.Items),
			Status:    h.progress.TopicStatus(topic.ID),
		}
		if tp := snapshot.Topics[topic.ID]; tp != nil {
			summary.BestScore = tp.BestScore
		}
		summaries = append(summaries, summary)
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) topicWords(w http.ResponseWriter, r *http.Request) {
	topic, err := h.topics.GetTopic(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, topic.Items)
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.progress.Snapshot())
}

func (h *Handler) putProgress(w http.ResponseWriter, r *http.Request) {
	var progress entity.LearningProgress
	if err := json.NewDecoder(r.Body).Decode(&progress); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody("invalid progress payload"))
		return
	}
	if err := h.progress.Replace(r.Context(), &progress); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dueReviews(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.progress.DueReviews())
}

func (h *Handler) completeReview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rt, err := entity.ParseReviewType(vars["reviewType"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.progress.MarkReviewCompleted(r.Context(), vars["topicID"], rt); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scheduleReview(w http.ResponseWriter, r *http.Request) {
	if err := h.progress.ScheduleReview(r.Context(), mux.Vars(r)["topicID"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dismissAlert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rt, err := entity.ParseReviewType(vars["reviewType"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.progress.DismissReviewAlert(r.Context(), vars["topicID"], rt); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pronunciationRequest normalizes the two speech-recognition integration
// paths: a single transcript, or a list of alternative transcripts of which
// the best scoring one wins. ErrorKind marks recognizer-side failures such
// as "no-speech"; they score as a failing empty transcript, never an error.
type pronunciationRequest struct {
	Expected         string   `json:"expected"`
	Transcript       string   `json:"transcript"`
	Alternatives     []string `json:"alternatives"`
	ErrorKind        string   `json:"error_kind"`
	CaseSensitive    bool     `json:"case_sensitive"`
	PassingThreshold int      `json:"passing_threshold"`
}

type pronunciationResponse struct {
	Transcript string                      `json:"transcript"`
	ErrorKind  string                      `json:"error_kind,omitempty"`
	Result     scoring.PronunciationResult `json:"result"`
}

func (h *Handler) scorePronunciation(w http.ResponseWriter, r *http.Request) {
	var req pronunciationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody("invalid request payload"))
		return
	}
	if req.Expected == "" {
		h.writeJSON(w, http.StatusBadRequest, errorBody("expected text is required"))
		return
	}

	opts := scoring.PronunciationOptions{
		PassingThreshold: req.PassingThreshold,
		CaseSensitive:    req.CaseSensitive,
	}

	resp := pronunciationResponse{ErrorKind: req.ErrorKind}
	switch {
	case req.ErrorKind != "":
		resp.Result = scoring.EvaluatePronunciation("", req.Expected, opts)
	case len(req.Alternatives) > 0:
		resp.Transcript, resp.Result = scoring.FindBestAlternative(req.Alternatives, req.Expected, opts)
	default:
		resp.Transcript = req.Transcript
		resp.Result = scoring.EvaluatePronunciation(req.Transcript, req.Expected, opts)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// translationRequest scores one translation attempt. When the item is
// identified by topic and item id, the vocabulary word and its word family
// are resolved from content instead of being trusted from the client.
type translationRequest struct {
	TopicID     string   `json:"topic_id"`
	ItemID      string   `json:"item_id"`
	Source      string   `json:"source"`
	Translation string   `json:"translation"`
	Reference   string   `json:"reference"`
	Word        string   `json:"word"`
	Family      []string `json:"family"`
	SkipGrammar bool     `json:"skip_grammar"`
}

type translationResponse struct {
	Local   scoring.TranslationResult `json:"local"`
	Grammar *grammar.Result           `json:"grammar,omitempty"`
}

func (h *Handler) scoreTranslation(w http.ResponseWriter, r *http.Request) {
	var req translationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody("invalid request payload"))
		return
	}
	if req.TopicID != "" && req.ItemID != "" {
		if err := h.resolveVocabulary(r.Context(), &req); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.Translation == "" || req.Word == "" {
		h.writeJSON(w, http.StatusBadRequest, errorBody("translation and word are required"))
		return
	}

	resp := translationResponse{
		Local: scoring.EvaluateTranslation(req.Translation, req.Reference, req.Word, req.Family),
	}
	if h.grammar != nil && !req.SkipGrammar && req.Source != "" {
		resp.Grammar = h.grammar.Evaluate(r.Context(), req.Source, req.Translation, req.Word, req.Family)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// resolveVocabulary fills the word and word family from the identified
// content item.
func (h *Handler) resolveVocabulary(ctx context.Context, req *translationRequest) error {
	topic, err := h.topics.GetTopic(ctx, req.TopicID)
	if err != nil {
		return err
	}
	for i := range topic.Items {
		if topic.Items[i].ID == req.ItemID {
			req.Word = topic.Items[i].Word
			req.Family = topic.Items[i].FamilyWords()
			return nil
		}
	}
	return entity.ErrItemNotFound
}

type quizAnswerRequest struct {
	Answer    string                `json:"answer"`
	IsCorrect bool                  `json:"is_correct"`
	Phases    []usecase.PhaseAnswer `json:"phases"`
}

type quizSessionView struct {
	ID          string                 `json:"id"`
	TopicID     string                 `json:"topic_id"`
	Index       int                    `json:"index"`
	Total       int                    `json:"total"`
	Complete    bool                   `json:"complete"`
	CurrentItem *entity.VocabularyItem `json:"current_item,omitempty"`
	Score       *entity.QuizAttempt    `json:"score,omitempty"`
}

func viewSession(s *usecase.QuizSession) quizSessionView {
	pos := s.Position()
	view := quizSessionView{
		ID:       s.ID,
		TopicID:  s.TopicID,
		Index:    pos.CurrentIndex,
		Total:    len(pos.ItemIDs),
		Complete: s.IsComplete(),
	}
	if item := s.CurrentItem(); item != nil {
		view.CurrentItem = item
	}
	if s.IsComplete() {
		score := s.Score()
		view.Score = &score
	}
	return view
}

func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := h.quizzes.Start(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, viewSession(session))
}

func (h *Handler) startReview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rt, err := entity.ParseReviewType(vars["reviewType"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	session, err := h.quizzes.StartReview(r.Context(), vars["id"], rt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, viewSession(session))
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := h.quizzes.Get(mux.Vars(r)["sid"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) answerQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody("invalid request payload"))
		return
	}
	session, err := h.quizzes.Answer(r.Context(), mux.Vars(r)["sid"], req.Answer, req.IsCorrect, req.Phases)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) nextQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := h.quizzes.Next(r.Context(), mux.Vars(r)["sid"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) resetQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := h.quizzes.Reset(r.Context(), mux.Vars(r)["sid"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewSession(session))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrTopicNotFound),
		errors.Is(err, entity.ErrItemNotFound),
		errors.Is(err, entity.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidReviewType),
		errors.Is(err, entity.ErrInvalidProgress),
		errors.Is(err, entity.ErrInvalidTopicID),
		errors.Is(err, entity.ErrEmptyTopic):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrSessionComplete):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrNoReviewSchedule):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	h.writeJSON(w, status, errorBody(err.Error()))
}
