// @title Signature Verification API
// @version 1.0
// @description Session-backed signature verification service with per-user history.
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/veriscribe/signature-api/docs"
	"github.com/veriscribe/signature-api/internal/api"
	"github.com/veriscribe/signature-api/internal/infrastructure/config"
	mongodb "github.com/veriscribe/signature-api/internal/infrastructure/db/mongo"
	redisdb "github.com/veriscribe/signature-api/internal/infrastructure/db/redis"
	"github.com/veriscribe/signature-api/internal/infrastructure/queue"
	"github.com/veriscribe/signature-api/internal/infrastructure/storage"
	"github.com/veriscribe/signature-api/internal/infrastructure/worker"
	"github.com/veriscribe/signature-api/pkg/logger"
)

const (
	shutdownTimeout    = 10 * time.Second
	healthPingInterval = 15 * time.Second
)

func main() {
	// Missing .env is fine; the environment may be set by the orchestrator.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.Production(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		MaxPool:  cfg.Mongo.MaxPool,
		MinPool:  cfg.Mongo.MinPool,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	if err := mongodb.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := mongodb.NewVerificationRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("verification index creation failed")
	}

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		// Rate limiting fails open, so a missing Redis degrades rather than
		// blocks startup.
		log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
	} else {
		defer redisClient.Close()
	}

	store, err := storage.NewStore(cfg.Upload.Dir, cfg.Upload.MaxUploadBytes(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("upload storage init failed")
	}

	runner := worker.NewRunner(cfg.Worker.Command, cfg.Worker.Script, cfg.Worker.ModelsDir, log)

	cleaner := queue.NewCleaner(0, store, log)
	cleaner.Start(ctx)

	health := mongodb.NewHealth(true)
	go health.Watch(ctx, mongoClient, healthPingInterval, log)

	e := api.NewRouter(api.Deps{
		Config:  cfg,
		Mongo:   mongoClient,
		DB:      db,
		Redis:   redisClient,
		Store:   store,
		Runner:  runner,
		Cleaner: cleaner,
		Health:  health,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
