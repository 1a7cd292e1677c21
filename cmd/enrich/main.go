package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nahuelp/clipstack/internal/classify"
	"github.com/nahuelp/clipstack/internal/config"
	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/enrich"
	"github.com/nahuelp/clipstack/internal/jobs"
	"github.com/nahuelp/clipstack/internal/llm"
	"github.com/nahuelp/clipstack/internal/logger"
	"github.com/nahuelp/clipstack/internal/repository"
	"github.com/nahuelp/clipstack/internal/summarize"
	"github.com/nahuelp/clipstack/internal/transcript"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "clipstack-enrich",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	source := flag.String("source", "", "Only process videos from this source (youtube, instagram)")
	limit := flag.Int("limit", 0, "Maximum number of videos to process (0 = all)")
	model := flag.String("model", "", "Whisper model size override (tiny, base, small)")
	transcribe := flag.Bool("transcribe", true, "Acquire missing transcripts")
	categorize := flag.Bool("categorize", true, "Classify videos into areas and topics")
	summarize2 := flag.Bool("summarize", true, "Generate summaries and key points")
	skipProcessed := flag.Bool("skip-processed", true, "Skip videos already enriched")
	metadataOnly := flag.Bool("classify-without-transcript", false, "Classify from metadata when no transcript exists")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"source":         *source,
		"limit":          *limit,
		"transcribe":     *transcribe,
		"categorize":     *categorize,
		"summarize":      *summarize2,
		"skip_processed": *skipProcessed,
	}).Info("Starting enrichment run")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	videoRepo := repository.NewVideoRepository(db)
	videoRepo.SetPageSize(cfg.Enrich.PageSize)
	taxonomyRepo := repository.NewTaxonomyRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	areas, err := taxonomyRepo.ListAreas(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load areas")
	}
	topics, err := taxonomyRepo.ListTopics(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load topics")
	}

	gen := llm.NewClient(&cfg.Ollama)
	acquirer := transcript.NewAcquirer(&cfg.Whisper, &cfg.Media)
	pipeline := enrich.NewPipeline(
		videoRepo,
		acquirer,
		classify.NewClassifier(gen, areas, topics),
		summarize.NewSummarizer(gen),
	)

	registry, err := jobs.NewRegistry(&cfg.Enrich)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize job registry")
	}
	controller := enrich.NewController(registry, videoRepo, pipeline, gen, acquirer, &cfg.Enrich)

	job, err := controller.StartJob(ctx, enrich.Request{
		Source:                    domain.VideoSource(*source),
		Transcribe:                *transcribe,
		Categorize:                *categorize,
		Summarize:                 *summarize2,
		WhisperModel:              *model,
		Limit:                     *limit,
		SkipProcessed:             *skipProcessed,
		ClassifyWithoutTranscript: *metadataOnly,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to start enrichment job")
	}

	// Cancel the job on SIGINT/SIGTERM so the checkpoint is written
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, cancelling job...")
		if err := controller.Cancel(job.ID); err != nil {
			appLogger.WithError(err).Warn("Failed to cancel job")
		}
	}()

	// Poll until the job reaches a terminal state
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		status, err := controller.Status(job.ID)
		if err != nil {
			appLogger.WithError(err).Fatal("Job disappeared")
		}
		appLogger.WithFields(logger.Fields{
			"processed":   status.Processed,
			"total":       status.Total,
			"failed":      status.Failed,
			"eta_minutes": int(status.ETAMinutes),
		}).Info("Progress")
		if status.Status.Terminal() {
			appLogger.WithFields(logger.Fields{
				"status":      string(status.Status),
				"processed":   status.Processed,
				"transcribed": status.Transcribed,
				"categorized": status.Categorized,
				"summarized":  status.Summarized,
				"failed":      status.Failed,
			}).Info("Enrichment run finished")
			if status.Status != domain.JobStatusCompleted {
				os.Exit(1)
			}
			return
		}
	}
}
