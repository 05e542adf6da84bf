// Package app wires configuration into the pipeline and its collaborators.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"reply-bot/config"
	"reply-bot/db"
	"reply-bot/dedup"
	"reply-bot/drafter"
	"reply-bot/eventbus"
	"reply-bot/ledger"
	"reply-bot/logger"
	"reply-bot/pipeline"
	"reply-bot/twitterapi"
)

// App holds everything a long running bot or a one-off command needs.
type App struct {
	Config   config.AppConfig
	Pipeline *pipeline.Pipeline
	Store    dedup.Store
	History  *ledger.History
	Recorder *ledger.PromRecorder
	Metrics  ledger.MetricsReader

	closers []func()
}

// LogDir is where JSONL logs and raw dumps are written.
func LogDir(cfg config.AppConfig) string {
	return filepath.Join(cfg.Storage.DataDir, "logs")
}

// OpenStore opens the configured dedup store. The returned func releases it.
func OpenStore(ctx context.Context, cfg config.AppConfig) (dedup.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "mongo":
		if err := db.Init(ctx, cfg.Mongo); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Close(ctx); err != nil {
				logger.Log.Warnf("failed to disconnect MongoDB: %v", err)
			}
		}
		return dedup.NewMongoStore(db.Database()), closeFn, nil
	default:
		return dedup.NewFileStore(cfg.Storage.DataDir), func() {}, nil
	}
}

// New builds the full pipeline from cfg.
func New(ctx context.Context, cfg config.AppConfig) (*App, error) {
	a := &App{
		Config:   cfg,
		History:  ledger.NewHistory(100),
		Recorder: ledger.NewPromRecorder(),
	}

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	logDir := LogDir(cfg)
	fileMetrics := ledger.NewFileMetricsSink(logDir)
	activity := ledger.MultiActivity{ledger.NewFileActivitySink(logDir)}
	metrics := ledger.MultiMetrics{fileMetrics, a.Recorder}
	a.Metrics = fileMetrics

	if cfg.Storage.Backend == "mongo" {
		mongoMetrics := ledger.NewMongoMetricsSink(db.Database())
		activity = append(activity, ledger.NewMongoActivitySink(db.Database()))
		metrics = append(metrics, mongoMetrics)
		a.Metrics = mongoMetrics
	}

	if cfg.Kafka.Enabled {
		topic := eventbus.NewTopic(cfg.Kafka.Topic)
		if err := eventbus.EnsureTopics(cfg.Kafka.Brokers, 3, topic); err != nil {
			logger.Log.Errorf("failed to ensure kafka topics: %v", err)
		}
		bus, err := eventbus.NewKafkaEventBus(cfg.Kafka.Brokers)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, bus.Close)
		pub := ledger.NewEventPublisher(bus, topic)
		activity = append(activity, pub)
		metrics = append(metrics, pub)
	}

	gen, err := drafter.NewGeminiGenerator(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}
	d := drafter.New(gen, drafter.NewLimiter(cfg.LLM), cfg.Pipeline.EngagementFloor, cfg.LLM.LandingPage)

	client := twitterapi.New(twitterapi.Config{
		BaseURL:     cfg.Platform.BaseURL,
		APIKey:      cfg.Platform.APIKey,
		AuthSession: cfg.Platform.AuthSession,
		SessionFile: cfg.Platform.SessionFile,
		Proxy:       cfg.Platform.Proxy,
		Timeout:     time.Duration(cfg.Platform.TimeoutSeconds) * time.Second,
		MaxRetries:  cfg.Platform.MaxRetries,
	})

	a.Pipeline = pipeline.New(pipeline.ConfigFrom(cfg.Pipeline, logDir), pipeline.Deps{
		Fetcher:  client,
		Drafter:  d,
		Poster:   client,
		Store:    store,
		Activity: activity,
		Metrics:  metrics,
		History:  a.History,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
