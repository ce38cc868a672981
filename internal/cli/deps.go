package cli

import (
	"context"
	"fmt"
	"time"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/config"
	amqpevents "quiz-score-service/internal/infra/amqp"
	"quiz-score-service/internal/infra/memory"
	mongostore "quiz-score-service/internal/infra/mongo"
	pgstore "quiz-score-service/internal/infra/postgres"
	redisstore "quiz-score-service/internal/infra/redis"
	"quiz-score-service/internal/logger"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// deps is everything the services need, built once per process.
type deps struct {
	questions   app.QuestionRepository
	users       app.UserRepository
	scores      app.ScoreRepository
	sessions    app.SessionRepository
	catalog     app.QuestionCatalog
	leaderboard app.LeaderboardStore
	events      app.EventPublisher

	closers []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

// buildDeps connects the configured storage backend, the optional Redis cache
// and the optional event broker.
func buildDeps(ctx context.Context, cfg config.Config, log *zap.Logger) (*deps, error) {
	d := &deps{}
	if err := d.connectStorage(ctx, cfg, log); err != nil {
		d.Close()
		return nil, err
	}

	catalogTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	sessionTTL := config.TTLDuration(cfg.Quiz.SessionTTL, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			d.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		d.catalog = redisstore.NewQuestionCatalog(client, d.questions, catalogTTL)
		d.sessions = redisstore.NewSessionStore(client, sessionTTL)
		d.leaderboard = redisstore.NewLeaderboard(client, d.users)
		log.Info("redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		d.catalog = memory.NewQuestionCatalog(d.questions, catalogTTL)
		d.sessions = memory.NewSessionStore(sessionTTL)
		d.leaderboard = app.NewRepositoryLeaderboard(d.users)
	}

	if cfg.Events.AMQPURL != "" {
		publisher, err := amqpevents.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("amqp: %w", err)
		}
		d.closers = append(d.closers, publisher.Close)
		d.events = publisher
		log.Info("event publishing enabled", zap.String("exchange", cfg.Events.Exchange))
	} else {
		d.events = app.NopPublisher{}
	}
	return d, nil
}

func (d *deps) connectStorage(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		applied, err := pgstore.Migrate(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			log.Info("migrations applied", zap.Strings("migrations", applied))
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		d.questions = pgstore.NewQuestionRepository(pool)
		d.users = pgstore.NewUserRepository(pool)
		d.scores = pgstore.NewScoreRepository(pool)

	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		d.closers = append(d.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			return fmt.Errorf("mongo ping: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		d.questions = mongostore.NewQuestionRepository(db)
		d.users = mongostore.NewUserRepository(db)
		d.scores = mongostore.NewScoreRepository(db)

	case config.BackendMemory:
		d.questions = memory.NewQuestionRepository()
		d.users = memory.NewUserRepository()
		d.scores = memory.NewScoreRepository()

	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	log.Info("storage ready", zap.String("backend", cfg.Storage.Backend))
	return nil
}
