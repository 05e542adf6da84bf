package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reply-bot/models"
)

// ActivityLogRepository stores one document per confirmed reply.
// Collection: activity_logs
type ActivityLogRepository struct {
	col *mongo.Collection
}

func NewActivityLogRepository(db *mongo.Database) *ActivityLogRepository {
	return &ActivityLogRepository{col: db.Collection("activity_logs")}
}

func (r *ActivityLogRepository) Insert(ctx context.Context, rec models.ActivityRecord) (*mongo.InsertOneResult, error) {
	return r.col.InsertOne(ctx, rec)
}

// RunMetricsRepository stores one document per pipeline run.
// Collection: run_metrics
type RunMetricsRepository struct {
	col *mongo.Collection
}

func NewRunMetricsRepository(db *mongo.Database) *RunMetricsRepository {
	return &RunMetricsRepository{col: db.Collection("run_metrics")}
}

func (r *RunMetricsRepository) Insert(ctx context.Context, rec models.RunMetrics) (*mongo.InsertOneResult, error) {
	return r.col.InsertOne(ctx, rec)
}

// Recent returns the latest runs, newest first.
func (r *RunMetricsRepository) Recent(ctx context.Context, limit int64) ([]models.RunMetrics, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "run_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var out []models.RunMetrics
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
