package db

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"reply-bot/config"
	"reply-bot/logger"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init connects the global Mongo client and ensures indexes.
func Init(ctx context.Context, cfg config.MongoConfig) error {
	var initErr error
	clientOnce.Do(func() {
		if cfg.URI == "" {
			initErr = errors.New("mongo uri is not configured (mongo.uri or MONGO_URI)")
			return
		}
		dbName := cfg.Database
		if dbName == "" {
			dbName = "replybot"
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			initErr = err
			return
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(dbName)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		logger.Log.Infof("MongoDB connected (db=%s) and indexes ensured", dbName)
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Close disconnects the global client if it was initialized.
func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// author_contacts: one document per author
	if _, err := d.Collection("author_contacts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "author_id", Value: 1}},
		Options: options.Index().SetName("uniq_author_id").SetUnique(true),
	}); err != nil {
		return err
	}

	// contacted_posts: one document per post
	if _, err := d.Collection("contacted_posts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "post_id", Value: 1}},
		Options: options.Index().SetName("uniq_post_id").SetUnique(true),
	}); err != nil {
		return err
	}

	if _, err := d.Collection("activity_logs").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "replied_at", Value: -1}},
		Options: options.Index().SetName("idx_replied_at_desc"),
	}); err != nil {
		return err
	}

	if _, err := d.Collection("run_metrics").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_at", Value: -1}},
		Options: options.Index().SetName("idx_run_at_desc"),
	}); err != nil {
		return err
	}
	return nil
}
