package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"feedup_ingest/internal/config"
	"feedup_ingest/internal/dedup"
	"feedup_ingest/internal/domain"
	"feedup_ingest/internal/enrich"
	"feedup_ingest/internal/publisher"
	"feedup_ingest/internal/scheduler"
	"feedup_ingest/internal/service"
	"feedup_ingest/internal/source/devto"
	"feedup_ingest/internal/source/medium"
	"feedup_ingest/internal/source/scholar"
	"feedup_ingest/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	mode := flag.String("mode", "serve", "serve, cycle, fetch, summarize, promote, approve, reset or list")
	recordID := flag.Int64("id", 0, "staging record id for approve/reset")
	approved := flag.String("approved", "", "approval value for approve, or tri-state filter for list")
	processed := flag.String("processed", "", "tri-state processed filter for list")
	sourceName := flag.String("source", "", "source name filter for list")
	limit := flag.Uint64("limit", 50, "page size for list")
	offset := flag.Uint64("offset", 0, "page offset for list")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if cfg.Database.MigrationsDir != "" {
		if err := postgres.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// Publishing is optional; a promotion stands on its own without it.
	var announcer service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		announcer = rabbitMQ
	}

	// Initialize stores
	stagingStore := postgres.NewStagingStore(db)
	articleStore := postgres.NewArticleStore(db)
	syncStateStore := postgres.NewSyncStateStore(db)
	txManager := postgres.NewTransactionManager(db)

	sources := buildSources(cfg, logger)
	qualityFilter := dedup.NewFilter(dedup.Config{
		MinTitleLen:   cfg.Quality.MinTitleLen,
		MinContentLen: cfg.Quality.MinContentLen,
		SpamTokens:    cfg.Quality.SpamTokens,
	}, logger)

	ingestService := service.NewIngestService(sources, qualityFilter, stagingStore, syncStateStore, logger)

	// Enrichment is optional too; without a model the pipeline skips it.
	var enricher service.Enricher
	if cfg.LLM.Model != "" {
		summarizer, err := enrich.New(cfg.LLM, logger)
		if err != nil {
			logger.Error("failed to build summarizer", "error", err)
			os.Exit(1)
		}
		enricher = service.NewEnrichService(stagingStore, summarizer, cfg.LLM, logger)
	}

	promoteService := service.NewPromoteService(stagingStore, articleStore, txManager, announcer, logger)
	pipeline := service.NewPipeline(ingestService, enricher, promoteService, stagingStore, cfg.Pipeline, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	switch *mode {
	case "serve":
		logger.Info("starting ingest daemon",
			"sources", len(sources),
			"interval", cfg.Pipeline.Interval,
			"enrichment", enricher != nil,
			"publishing", announcer != nil,
		)
		sched := scheduler.NewScheduler(pipeline, cfg.Pipeline.Interval, cfg.Pipeline.RunTimeout, logger)
		if err := sched.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("scheduler error", "error", err)
			os.Exit(1)
		}

	case "cycle":
		if _, err := pipeline.RunCycle(ctx); err != nil {
			logger.Error("cycle failed", "error", err)
			os.Exit(1)
		}

	case "fetch":
		if _, err := ingestService.Ingest(ctx, uuid.NewString()); err != nil {
			logger.Error("fetch failed", "error", err)
			os.Exit(1)
		}

	case "summarize":
		if enricher == nil {
			logger.Error("summarize mode requires llm.model to be configured")
			os.Exit(1)
		}
		if _, err := enricher.SummarizeApproved(ctx); err != nil {
			logger.Error("summarize failed", "error", err)
			os.Exit(1)
		}

	case "promote":
		if _, err := promoteService.PromoteApproved(ctx); err != nil {
			logger.Error("promote failed", "error", err)
			os.Exit(1)
		}

	case "approve":
		if *recordID == 0 {
			logger.Error("approve mode requires -id")
			os.Exit(1)
		}
		approveValue := true
		if *approved != "" {
			parsed, err := strconv.ParseBool(*approved)
			if err != nil {
				logger.Error("invalid -approved value", "value", *approved, "error", err)
				os.Exit(1)
			}
			approveValue = parsed
		}
		if err := pipeline.Approve(ctx, *recordID, approveValue); err != nil {
			logger.Error("approve failed", "id", *recordID, "error", err)
			os.Exit(1)
		}

	case "reset":
		if *recordID == 0 {
			logger.Error("reset mode requires -id")
			os.Exit(1)
		}
		if err := pipeline.ResetProcessed(ctx, *recordID); err != nil {
			logger.Error("reset failed", "id", *recordID, "error", err)
			os.Exit(1)
		}

	case "list":
		approvedFilter, err := parseTriState(*approved)
		if err != nil {
			logger.Error("invalid -approved value", "value", *approved, "error", err)
			os.Exit(1)
		}
		processedFilter, err := parseTriState(*processed)
		if err != nil {
			logger.Error("invalid -processed value", "value", *processed, "error", err)
			os.Exit(1)
		}
		records, err := stagingStore.List(ctx, domain.StagingFilter{
			Approved:   approvedFilter,
			Processed:  processedFilter,
			SourceName: *sourceName,
			Limit:      *limit,
			Offset:     *offset,
		})
		if err != nil {
			logger.Error("list failed", "error", err)
			os.Exit(1)
		}
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			logger.Error("failed to encode records", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(out))

	default:
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}
}

func buildSources(cfg *config.Config, logger *slog.Logger) []service.Source {
	devtoSource := devto.New(devto.Config{
		BaseURL:        cfg.Sources.Devto.BaseURL,
		Tags:           cfg.Sources.Devto.Tags,
		PerTag:         cfg.Sources.Devto.PerTag,
		Timeout:        cfg.Sources.Timeout,
		MaxAttempts:    cfg.Sources.Retry.MaxAttempts,
		InitialBackoff: cfg.Sources.Retry.InitialBackoff,
		MaxBackoff:     cfg.Sources.Retry.MaxBackoff,
	}, logger)

	mediumSource := medium.New(medium.Config{
		Feeds:           cfg.Sources.Medium.Feeds,
		PerFeed:         cfg.Sources.Medium.PerFeed,
		MinContentWords: cfg.Sources.Medium.MinContentWords,
		Timeout:         cfg.Sources.Timeout,
		MaxAttempts:     cfg.Sources.Retry.MaxAttempts,
		InitialBackoff:  cfg.Sources.Retry.InitialBackoff,
		MaxBackoff:      cfg.Sources.Retry.MaxBackoff,
	}, logger)

	scholarSource := scholar.New(scholar.Config{
		BaseURL:        cfg.Sources.Scholar.BaseURL,
		MaxPapers:      cfg.Sources.Scholar.MaxPapers,
		MaxTerms:       cfg.Sources.Scholar.MaxTerms,
		Timeout:        cfg.Sources.Timeout,
		MaxAttempts:    cfg.Sources.Retry.MaxAttempts,
		InitialBackoff: cfg.Sources.Retry.InitialBackoff,
		MaxBackoff:     cfg.Sources.Retry.MaxBackoff,
	}, logger)

	return []service.Source{devtoSource, mediumSource, scholarSource}
}

// parseTriState turns an optional boolean flag into a filter value:
// empty string means "either".
func parseTriState(value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}

	return &parsed, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
