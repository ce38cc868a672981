package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/domain"
	"quiz-score-service/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds the dependencies of the router.
type Container struct {
	Auth        *app.AuthService
	Quiz        *app.QuizService
	Submissions *app.SubmissionService
	Admin       *app.AdminService
	Users       *app.UserService
	Leaderboard *app.LeaderboardService
	Metrics     *metrics.Metrics
	Log         *zap.Logger

	CookieName   string
	CookieSecure bool
	CORSOrigins  []string
	RateLimit    RateLimitConfig
}

type server struct {
	c        Container
	validate *validator.Validate
	log      *zap.Logger
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c Container) http.Handler {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.New()
	}
	if c.CookieName == "" {
		c.CookieName = "quiz_token"
	}
	s := &server{c: c, validate: validator.New(), log: c.Log}
	authMW := newAuthMiddleware(c.Auth, c.CookieName)

	r := mux.NewRouter()
	r.Use(corsMiddleware(c.CORSOrigins))
	r.Use(c.Metrics.Middleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", c.Metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws/leaderboard", newLeaderboardFeed(c.Leaderboard, c.Log).ServeWS).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.Use(newRateLimiter(c.RateLimit).Middleware)
	authRoutes.HandleFunc("/register", s.register).Methods(http.MethodPost, http.MethodOptions)
	authRoutes.HandleFunc("/login", s.login).Methods(http.MethodPost, http.MethodOptions)
	authRoutes.HandleFunc("/logout", s.logout).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/users/leaderboard", s.leaderboard).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/quiz/categories", s.categories).Methods(http.MethodGet, http.MethodOptions)

	// Authenticated routes
	user := api.NewRoute().Subrouter()
	user.Use(authMW.RequireUser)
	user.HandleFunc("/auth/me", s.me).Methods(http.MethodGet, http.MethodOptions)
	user.HandleFunc("/quiz/start", s.startQuiz).Methods(http.MethodGet, http.MethodOptions)
	user.HandleFunc("/quiz/submit", s.submit).Methods(http.MethodPost, http.MethodOptions)
	user.HandleFunc("/users/me/stats", s.myStats).Methods(http.MethodGet, http.MethodOptions)
	user.HandleFunc("/users/me/scores", s.myScores).Methods(http.MethodGet, http.MethodOptions)
	user.HandleFunc("/users/me/achievements", s.myAchievements).Methods(http.MethodGet, http.MethodOptions)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMW.RequireUser, requireAdmin)
	admin.HandleFunc("/questions", s.createQuestion).Methods(http.MethodPost, http.MethodOptions)
	admin.HandleFunc("/questions/{id}", s.getQuestion).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/questions/{id}", s.updateQuestion).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/questions/{id}", s.deactivateQuestion).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/questions/{id}/activate", s.activateQuestion).Methods(http.MethodPost, http.MethodOptions)

	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// fail maps service errors onto HTTP statuses.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal error")
		return
	}
	var se *app.StepError
	if errors.As(err, &se) {
		writeError(w, status, se.Err.Error())
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case app.KindOf(err) == app.KindValidation:
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrEmptySubmission),
		errors.Is(err, domain.ErrInvalidTimeTaken),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCategoryEmpty):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst and runs struct validation.
func (s *server) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("invalid field " + verrs[0].Field() + ": " + verrs[0].Tag())
		}
		return err
	}
	return nil
}
