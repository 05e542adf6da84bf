package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"reply-bot/api/router"
	"reply-bot/cmd/internal/app"
	"reply-bot/config"
	"reply-bot/logger"
	"reply-bot/pipeline"
	"reply-bot/replyscore"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Log.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Errorf("failed to start: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	runner, err := pipeline.NewRunner(a.Pipeline, cfg.Pipeline.QueryPhrases, time.Duration(cfg.Pipeline.IntervalMinutes)*time.Minute, nil)
	if err != nil {
		logger.Log.Errorf("failed to create runner: %v", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	var srv *http.Server
	if cfg.API.Enabled {
		gin.SetMode(gin.ReleaseMode)
		engine := router.New(router.Deps{
			History:      a.History,
			Metrics:      a.Metrics,
			Store:        a.Store,
			Recorder:     a.Recorder,
			Gate:         replyscore.Gate{MinScore: cfg.Pipeline.MinReplyScore},
			CooldownDays: cfg.Pipeline.CooldownDays,
		})
		srv = &http.Server{
			Addr:              cfg.API.Addr,
			Handler:           router.WithCORS(engine, cfg.API.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Log.Infof("status API listening on %s", cfg.API.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Errorf("status API stopped: %v", err)
			}
		}()
	}

	logger.InfoWithFields("reply bot started", logger.Fields{
		"phrases":          cfg.Pipeline.QueryPhrases,
		"interval_minutes": cfg.Pipeline.IntervalMinutes,
		"storage":          cfg.Storage.Backend,
		"kafka":            cfg.Kafka.Enabled,
	})

	if err := runner.Run(ctx); err != nil {
		logger.Log.Errorf("runner error: %v", err)
	}

	logger.Log.Info("received shutdown signal, shutting down")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warnf("status API shutdown: %v", err)
		}
		cancel()
	}
	wg.Wait()
	logger.Log.Info("reply bot stopped")
}
