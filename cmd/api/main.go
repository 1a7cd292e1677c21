package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nahuelp/clipstack/internal/api"
	"github.com/nahuelp/clipstack/internal/classify"
	"github.com/nahuelp/clipstack/internal/config"
	"github.com/nahuelp/clipstack/internal/enrich"
	"github.com/nahuelp/clipstack/internal/jobs"
	"github.com/nahuelp/clipstack/internal/llm"
	"github.com/nahuelp/clipstack/internal/logger"
	"github.com/nahuelp/clipstack/internal/repository"
	"github.com/nahuelp/clipstack/internal/summarize"
	"github.com/nahuelp/clipstack/internal/transcript"
)

const sweepInterval = 10 * time.Minute

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewFromEnv(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	videoRepo := repository.NewVideoRepository(db)
	videoRepo.SetPageSize(cfg.Enrich.PageSize)
	taxonomyRepo := repository.NewTaxonomyRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the taxonomy once at startup; the classifier builds its
	// prompt catalog from it.
	areas, err := taxonomyRepo.ListAreas(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load areas")
	}
	topics, err := taxonomyRepo.ListTopics(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load topics")
	}
	appLogger.WithFields(logger.Fields{
		"areas":  len(areas),
		"topics": len(topics),
	}).Info("Taxonomy loaded")

	// Initialize enrichment collaborators
	model := llm.NewClient(&cfg.Ollama)
	acquirer := transcript.NewAcquirer(&cfg.Whisper, &cfg.Media)
	classifier := classify.NewClassifier(model, areas, topics)
	summarizer := summarize.NewSummarizer(model)
	pipeline := enrich.NewPipeline(videoRepo, acquirer, classifier, summarizer)

	registry, err := jobs.NewRegistry(&cfg.Enrich)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize job registry")
	}
	controller := enrich.NewController(registry, videoRepo, pipeline, model, acquirer, &cfg.Enrich)

	// Expire old finished jobs in the background
	go controller.SweepLoop(ctx, sweepInterval)

	// Setup router
	router := api.SetupRouter(db, controller, videoRepo, taxonomyRepo, model, acquirer, appLogger, &cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
