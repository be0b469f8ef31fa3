package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/property360-2/richwell-potal-sub001/internal/config"
	"github.com/property360-2/richwell-potal-sub001/internal/db"
	"github.com/property360-2/richwell-potal-sub001/internal/grading"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"
	"github.com/property360-2/richwell-potal-sub001/internal/queue"
	"github.com/property360-2/richwell-potal-sub001/internal/storage"
	"github.com/property360-2/richwell-potal-sub001/internal/sweep"
	"github.com/property360-2/richwell-potal-sub001/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.App.Name+"-sweep-worker", cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting sweep worker")

	// Initialize database
	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	repo := db.NewRepository(database)

	// Initialize Redis client
	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	producer := queue.NewProducer(redisClient, cfg)

	store, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize report storage")
	}

	policy := grading.PolicyFromConfig(cfg.Grading)
	sweepService := sweep.NewService(repo, producer, policy, cfg.Workers.Sweep.BatchSize)

	sweepWorker := worker.NewSweepWorker(cfg, sweepService, store, redisClient)
	scheduleWorker := worker.NewScheduleWorker(cfg, sweepService, store)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sweepWorker.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("Sweep worker failed")
		}
	}()

	go func() {
		if err := scheduleWorker.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("Sweep scheduler failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down sweep worker...")

	cancel()
	sweepWorker.Stop()
	scheduleWorker.Stop()

	log.Info().Msg("Sweep worker exited")
}
