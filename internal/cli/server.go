package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/config"
	"quiz-score-service/internal/metrics"
	transport "quiz-score-service/internal/transport/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Auth.JWTSecret == "" || cfg.Auth.JWTSecret == "change-me" {
		log.Warn("jwt secret is not configured; set JWT_SECRET in production")
		if cfg.Auth.JWTSecret == "" {
			cfg.Auth.JWTSecret = "change-me"
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	leaderboard := app.NewLeaderboardService(d.leaderboard, cfg.Quiz.FeedSize, log)
	handler := transport.NewRouter(transport.Container{
		Auth: app.NewAuthService(d.users, cfg.Auth.JWTSecret,
			config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour), cfg.Auth.AdminEmails),
		Quiz:         app.NewQuizService(d.questions, d.catalog, d.sessions, cfg.Quiz.DefaultLimit),
		Submissions:  app.NewSubmissionService(d.questions, d.users, d.scores, d.sessions, leaderboard, d.events, log),
		Admin:        app.NewAdminService(d.questions, d.catalog, log),
		Users:        app.NewUserService(d.users, d.scores),
		Leaderboard:  leaderboard,
		Metrics:      metrics.New(),
		Log:          log,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
		CORSOrigins:  cfg.Server.CORSOrigins,
		RateLimit: transport.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   config.TTLDuration(cfg.RateLimit.Window, time.Minute),
		},
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting quiz service", zap.String("addr", server.Addr), zap.String("backend", cfg.Storage.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-serverErr:
		log.Error("server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
