package ledger

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"reply-bot/models"
	"reply-bot/repositories"
)

type MongoActivitySink struct {
	repo *repositories.ActivityLogRepository
}

func NewMongoActivitySink(db *mongo.Database) *MongoActivitySink {
	return &MongoActivitySink{repo: repositories.NewActivityLogRepository(db)}
}

func (s *MongoActivitySink) AppendActivity(ctx context.Context, rec models.ActivityRecord) error {
	_, err := s.repo.Insert(ctx, rec)
	return err
}

type MongoMetricsSink struct {
	repo *repositories.RunMetricsRepository
}

func NewMongoMetricsSink(db *mongo.Database) *MongoMetricsSink {
	return &MongoMetricsSink{repo: repositories.NewRunMetricsRepository(db)}
}

func (s *MongoMetricsSink) AppendMetrics(ctx context.Context, m models.RunMetrics) error {
	_, err := s.repo.Insert(ctx, m)
	return err
}

func (s *MongoMetricsSink) Recent(ctx context.Context, limit int) ([]models.RunMetrics, error) {
	return s.repo.Recent(ctx, int64(limit))
}
