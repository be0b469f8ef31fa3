package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/property360-2/richwell-potal-sub001/internal/api"
	"github.com/property360-2/richwell-potal-sub001/internal/approval"
	"github.com/property360-2/richwell-potal-sub001/internal/campus"
	"github.com/property360-2/richwell-potal-sub001/internal/config"
	"github.com/property360-2/richwell-potal-sub001/internal/db"
	"github.com/property360-2/richwell-potal-sub001/internal/grading"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"
	"github.com/property360-2/richwell-potal-sub001/internal/queue"
	"github.com/property360-2/richwell-potal-sub001/internal/storage"
	"github.com/property360-2/richwell-potal-sub001/internal/sweep"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.App.Name, cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting registrar API server")

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

	// Wire services
	policy := grading.PolicyFromConfig(cfg.Grading)
	directory := campus.NewClient(cfg)
	gradingService := grading.NewService(repo, directory, producer, policy)
	approvalService := approval.NewService(repo, producer)
	sweepService := sweep.NewService(repo, producer, policy, cfg.Workers.Sweep.BatchSize)

	handler := api.NewHandler(gradingService, approvalService, sweepService, producer, store, cfg)

	// Setup Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(api.CORSMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.RecoveryMiddleware())

	api.SetupRoutes(router, handler, cfg.Auth.JWTSecret)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
