package app

import (
	"context"
	"errors"
	"time"

	"quiz-score-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventQuizSubmitted is published after every stored submission.
const EventQuizSubmitted = "quiz.submitted"

// SubmitRequest is the input of one submission.
type SubmitRequest struct {
	SessionID string
	Answers   []domain.AnswerSubmission
	TimeTaken int
}

// SubmissionResult is what the caller gets back. Warnings hold the non-fatal
// step failures that happened after the score was stored.
type SubmissionResult struct {
	ScoreID        string            `json:"scoreId"`
	SessionID      string            `json:"sessionId"`
	Score          int               `json:"score"`
	CorrectAnswers int               `json:"correctAnswers"`
	TotalQuestions int               `json:"totalQuestions"`
	PointsEarned   int               `json:"pointsEarned"`
	Streak         int               `json:"streak"`
	TimeTaken      int               `json:"timeTaken"`
	UserStats      *domain.UserStats `json:"userStats,omitempty"`
	Warnings       []*StepError      `json:"-"`
}

// SubmittedEvent is the payload of EventQuizSubmitted.
type SubmittedEvent struct {
	ScoreID        string    `json:"scoreId"`
	UserID         string    `json:"userId"`
	SessionID      string    `json:"sessionId"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	PointsEarned   int       `json:"pointsEarned"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// SubmissionService scores submissions and updates every affected record.
type SubmissionService struct {
	questions   QuestionRepository
	users       UserRepository
	scores      ScoreRepository
	sessions    SessionRepository
	leaderboard *LeaderboardService
	events      EventPublisher
	log         *zap.Logger
	now         func() time.Time
	newID       func() string
}

func NewSubmissionService(
	questions QuestionRepository,
	users UserRepository,
	scores ScoreRepository,
	sessions SessionRepository,
	leaderboard *LeaderboardService,
	events EventPublisher,
	log *zap.Logger,
) *SubmissionService {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionService{
		questions:   questions,
		users:       users,
		scores:      scores,
		sessions:    sessions,
		leaderboard: leaderboard,
		events:      events,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Submit scores the answers, stores a Score and then applies the user,
// question and leaderboard bookkeeping. Only validation, question loading and
// the Score write can fail the call; later failures become warnings.
func (s *SubmissionService) Submit(ctx context.Context, userID string, req SubmitRequest) (SubmissionResult, error) {
	if len(req.Answers) == 0 {
		return SubmissionResult{}, stepErr(StepValidate, KindValidation, domain.ErrEmptySubmission)
	}
	if req.TimeTaken < 0 {
		return SubmissionResult{}, stepErr(StepValidate, KindValidation, domain.ErrInvalidTimeTaken)
	}

	var warnings []*StepError
	warn := func(se *StepError) {
		warnings = append(warnings, se)
		s.log.Warn("submission step failed",
			zap.String("user_id", userID),
			zap.String("step", string(se.Step)),
			zap.String("kind", se.Kind.String()),
			zap.Error(se.Err),
		)
	}

	sessionID, known, serr := s.resolveSession(ctx, userID, req.SessionID)
	if serr != nil {
		if serr.Kind == KindValidation {
			return SubmissionResult{}, serr
		}
		warn(serr)
	}

	questions, err := s.loadQuestions(ctx, req.Answers)
	if err != nil {
		return SubmissionResult{}, stepErr(StepLoadQuestions, KindPersistence, err)
	}

	ev := evaluate(req.Answers, questions)
	record := domain.Score{
		ID:             s.newID(),
		UserID:         userID,
		SessionID:      sessionID,
		Score:          ev.score,
		TimeTaken:      req.TimeTaken,
		Answers:        ev.outcomes,
		TotalQuestions: ev.total,
		CorrectAnswers: ev.correct,
		BestStreak:     ev.maxStreak,
		PointsEarned:   ev.pointsEarned,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.scores.SaveScore(ctx, record); err != nil {
		return SubmissionResult{}, stepErr(StepSaveScore, KindPersistence, err)
	}
	if known {
		if _, _, err := s.sessions.Take(ctx, sessionID); err != nil {
			warn(stepErr(StepSession, KindPersistence, err))
		}
	}

	result := SubmissionResult{
		ScoreID:        record.ID,
		SessionID:      sessionID,
		Score:          record.Score,
		CorrectAnswers: record.CorrectAnswers,
		TotalQuestions: record.TotalQuestions,
		PointsEarned:   record.PointsEarned,
		Streak:         record.BestStreak,
		TimeTaken:      record.TimeTaken,
	}

	user, err := s.users.ApplyScore(ctx, userID, domain.UserDelta{
		Points:         ev.pointsEarned,
		CorrectAnswers: ev.correct,
		TotalAnswers:   ev.total,
		Streak:         ev.maxStreak,
		Score:          ev.score,
	})
	if err != nil {
		kind := KindPersistence
		if errors.Is(err, domain.ErrUserNotFound) {
			kind = KindNotFound
		}
		warn(stepErr(StepUpdateUser, kind, err))
	} else {
		stats := user.Stats()
		result.UserStats = &stats
		if s.leaderboard != nil {
			if err := s.leaderboard.Record(ctx, user); err != nil {
				warn(stepErr(StepLeaderboard, KindPersistence, err))
			}
		}
	}

	if len(ev.stats) > 0 {
		if err := s.questions.IncrementStats(ctx, ev.stats); err != nil {
			warn(stepErr(StepQuestionStats, KindPersistence, err))
		}
	}

	if err := s.events.Publish(ctx, EventQuizSubmitted, SubmittedEvent{
		ScoreID:        record.ID,
		UserID:         userID,
		SessionID:      sessionID,
		Score:          record.Score,
		CorrectAnswers: record.CorrectAnswers,
		TotalQuestions: record.TotalQuestions,
		PointsEarned:   record.PointsEarned,
		SubmittedAt:    record.CreatedAt,
	}); err != nil {
		warn(stepErr(StepPublishEvent, KindPersistence, err))
	}

	result.Warnings = warnings
	return result, nil
}

// resolveSession checks ownership without consuming the session; known
// reports whether it must be taken once the score is stored.
func (s *SubmissionService) resolveSession(ctx context.Context, userID, sessionID string) (id string, known bool, se *StepError) {
	if sessionID == "" {
		return s.newID(), false, nil
	}
	if s.sessions == nil {
		return sessionID, false, nil
	}
	session, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return sessionID, false, stepErr(StepSession, KindPersistence, err)
	}
	if ok && session.UserID != userID {
		return "", false, stepErr(StepSession, KindValidation, domain.ErrSessionNotFound)
	}
	return sessionID, ok, nil
}

// loadQuestions fetches each distinct question once. Unknown IDs are left out.
func (s *SubmissionService) loadQuestions(ctx context.Context, answers []domain.AnswerSubmission) (map[string]domain.Question, error) {
	questions := make(map[string]domain.Question, len(answers))
	missing := make(map[string]struct{})
	for _, a := range answers {
		if _, ok := questions[a.QuestionID]; ok {
			continue
		}
		if _, ok := missing[a.QuestionID]; ok {
			continue
		}
		q, err := s.questions.GetQuestion(ctx, a.QuestionID)
		if errors.Is(err, domain.ErrQuestionNotFound) {
			missing[a.QuestionID] = struct{}{}
			continue
		}
		if err != nil {
			return nil, err
		}
		questions[a.QuestionID] = q
	}
	return questions, nil
}
