package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-score-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	questionsCollection = "questions"
	usersCollection     = "users"
	scoresCollection    = "scores"

	// applyScoreAttempts bounds the optimistic retry loop under contention.
	applyScoreAttempts = 20
)

// EnsureIndexes creates the indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "points", Value: -1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	_, err = db.Collection(questionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "active", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("question indexes: %w", err)
	}
	_, err = db.Collection(scoresCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("score indexes: %w", err)
	}
	return nil
}

// QuestionRepository stores questions as documents keyed by their string ID.
type QuestionRepository struct {
	collection *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{collection: db.Collection(questionsCollection)}
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var doc questionDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *QuestionRepository) ListByCategory(ctx context.Context, category string) ([]domain.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"category": category, "active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	var docs []questionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	out := make([]domain.Question, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *QuestionRepository) Categories(ctx context.Context) ([]domain.CategorySummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"active": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	var rows []struct {
		Name  string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.CategorySummary, len(rows))
	for i, row := range rows {
		out[i] = domain.CategorySummary{Name: row.Name, QuestionCount: row.Count}
	}
	return out, nil
}

func (r *QuestionRepository) CreateQuestion(ctx context.Context, q domain.Question) error {
	if _, err := r.collection.InsertOne(ctx, fromQuestion(q)); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// UpdateQuestion replaces content fields; counters and created_at are kept.
func (r *QuestionRepository) UpdateQuestion(ctx context.Context, q domain.Question) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": q.ID}, bson.M{"$set": bson.M{
		"text":          q.Text,
		"options":       q.Options,
		"correct_index": q.CorrectIndex,
		"category":      q.Category,
		"difficulty":    q.Difficulty,
		"points":        q.Points,
		"explanation":   q.Explanation,
		"active":        q.Active,
	}})
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": active}})
	if err != nil {
		return fmt.Errorf("set question active: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// IncrementStats applies all counter deltas in one unordered bulk write.
func (r *QuestionRepository) IncrementStats(ctx context.Context, deltas []domain.QuestionStatsDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(deltas))
	for _, d := range deltas {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": d.QuestionID}).
			SetUpdate(bson.M{"$inc": bson.M{"times_answered": d.Answered, "times_correct": d.Correct}}))
	}
	if _, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("increment question stats: %w", err)
	}
	return nil
}

// UserRepository stores user aggregates. ApplyScore uses the version field
// as an optimistic lock and retries on conflict.
type UserRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection), now: time.Now}
}

func (r *UserRepository) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.collection.InsertOne(ctx, fromUser(u))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) ApplyScore(ctx context.Context, id string, delta domain.UserDelta) (domain.User, error) {
	for attempt := 0; attempt < applyScoreAttempts; attempt++ {
		current, err := r.findOne(ctx, bson.M{"_id": id})
		if err != nil {
			return domain.User{}, err
		}

		updated := domain.ApplyDelta(current, delta)
		updated.UpdatedAt = r.now().UTC()
		res, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": id, "version": current.Version},
			bson.M{"$set": bson.M{
				"points":          updated.Points,
				"level":           updated.Level,
				"total_quizzes":   updated.TotalQuizzes,
				"correct_answers": updated.CorrectAnswers,
				"total_answers":   updated.TotalAnswers,
				"best_streak":     updated.BestStreak,
				"badges":          updated.Badges,
				"version":         updated.Version,
				"updated_at":      updated.UpdatedAt,
			}},
		)
		if err != nil {
			return domain.User{}, fmt.Errorf("apply score: %w", err)
		}
		if res.MatchedCount == 1 {
			return updated, nil
		}
		if err := ctx.Err(); err != nil {
			return domain.User{}, err
		}
	}
	return domain.User{}, domain.ErrVersionConflict
}

func (r *UserRepository) TopByPoints(ctx context.Context, limit int) ([]domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.User, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc userDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return doc.toDomain(), nil
}

// ScoreRepository appends submission records.
type ScoreRepository struct {
	collection *mongo.Collection
}

func NewScoreRepository(db *mongo.Database) *ScoreRepository {
	return &ScoreRepository{collection: db.Collection(scoresCollection)}
}

func (r *ScoreRepository) SaveScore(ctx context.Context, s domain.Score) error {
	if _, err := r.collection.InsertOne(ctx, fromScore(s)); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (r *ScoreRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Score, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	var docs []scoreDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Score, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}
