package http

import (
	"net/http"
	"strconv"
	"time"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/domain"

	"github.com/gorilla/mux"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=2,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type answerRequest struct {
	QuestionID     string `json:"questionId" validate:"required"`
	SelectedAnswer string `json:"selectedAnswer"`
	TimeSpent      int    `json:"timeSpent"`
}

type submitRequest struct {
	Answers   []answerRequest `json:"answers" validate:"required,min=1,dive"`
	TimeTaken int             `json:"timeTaken" validate:"gte=0"`
	SessionID string          `json:"sessionId"`
}

type stepWarning struct {
	Step    string `json:"step"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type submitResponse struct {
	app.SubmissionResult
	Warnings []stepWarning `json:"warnings,omitempty"`
}

type questionRequest struct {
	Text         string   `json:"text" validate:"required"`
	Options      []string `json:"options" validate:"required,min=2"`
	CorrectIndex int      `json:"correctIndex" validate:"gte=0"`
	Category     string   `json:"category" validate:"required"`
	Difficulty   string   `json:"difficulty"`
	Points       int      `json:"points" validate:"gte=0"`
	Explanation  string   `json:"explanation"`
}

func (q questionRequest) input() app.QuestionInput {
	return app.QuestionInput{
		Text:         q.Text,
		Options:      q.Options,
		CorrectIndex: q.CorrectIndex,
		Category:     q.Category,
		Difficulty:   q.Difficulty,
		Points:       q.Points,
		Explanation:  q.Explanation,
	}
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.c.Auth.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	token, err := s.c.Auth.IssueToken(user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setTokenCookie(w, token, s.c.Auth.TokenTTL())
	writeJSON(w, http.StatusCreated, loginResponse{Token: token, User: user})
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, user, err := s.c.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setTokenCookie(w, token, s.c.Auth.TokenTTL())
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	s.setTokenCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *server) setTokenCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.c.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.c.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.c.Users.Profile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *server) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.c.Quiz.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *server) startQuiz(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	started, err := s.c.Quiz.Start(r.Context(), userIDFrom(r.Context()), category, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, started)
}

func (s *server) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := s.decode(r, &req); err != nil {
		s.c.Metrics.ObserveRejected()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	answers := make([]domain.AnswerSubmission, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = domain.AnswerSubmission{QuestionID: a.QuestionID, SelectedAnswer: a.SelectedAnswer, TimeSpent: a.TimeSpent}
	}
	res, err := s.c.Submissions.Submit(r.Context(), userIDFrom(r.Context()), app.SubmitRequest{
		SessionID: req.SessionID,
		Answers:   answers,
		TimeTaken: req.TimeTaken,
	})
	if err != nil {
		s.c.Metrics.ObserveRejected()
		s.fail(w, r, err)
		return
	}
	s.c.Metrics.ObserveSubmission(res.Score, len(res.Warnings) > 0)

	resp := submitResponse{SubmissionResult: res}
	for _, wrn := range res.Warnings {
		resp.Warnings = append(resp.Warnings, stepWarning{Step: string(wrn.Step), Kind: wrn.Kind.String(), Message: wrn.Err.Error()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	lb, err := s.c.Leaderboard.Top(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (s *server) myStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.c.Users.Stats(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) myScores(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	scores, err := s.c.Users.History(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *server) myAchievements(w http.ResponseWriter, r *http.Request) {
	ach, err := s.c.Users.Achievements(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ach)
}

func (s *server) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := s.c.Admin.CreateQuestion(r.Context(), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) getQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.c.Admin.GetQuestion(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := s.c.Admin.UpdateQuestion(r.Context(), mux.Vars(r)["id"], req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) deactivateQuestion(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, false)
}

func (s *server) activateQuestion(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, true)
}

func (s *server) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	q, err := s.c.Admin.SetActive(r.Context(), mux.Vars(r)["id"], active)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
