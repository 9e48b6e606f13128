package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feedup_ingest/internal/config"
	"feedup_ingest/internal/domain"
	"feedup_ingest/internal/retry"
)

// EnrichService annotates approved staging records with summaries from
// the summarization collaborator.
type EnrichService struct {
	staging    StagingStore
	summarizer Summarizer
	config     config.LLMConfig
	logger     *slog.Logger
}

func NewEnrichService(
	staging StagingStore,
	summarizer Summarizer,
	cfg config.LLMConfig,
	logger *slog.Logger,
) *EnrichService {
	return &EnrichService{
		staging:    staging,
		summarizer: summarizer,
		config:     cfg,
		logger:     logger.With("component", "enrich"),
	}
}

// SummarizeApproved walks the approved-but-unannotated records. Records
// too short to summarize are skipped and counted; a collaborator
// failure on one record never aborts the rest.
func (s *EnrichService) SummarizeApproved(ctx context.Context) (*domain.EnrichStats, error) {
	startTime := time.Now()

	candidates, err := s.staging.ListEnrichable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enrichable: %w", err)
	}

	stats := &domain.EnrichStats{Candidates: len(candidates)}

	s.logger.Info("starting enrichment", "candidates", len(candidates))

	for i := range candidates {
		record := &candidates[i]

		if err := ctx.Err(); err != nil {
			return stats, err
		}

		words := len(strings.Fields(record.RawContent))
		if words < s.config.MinContentWords {
			stats.SkippedShort++
			s.logger.Debug("skipping short record",
				"id", record.ID,
				"words", words,
				"min_words", s.config.MinContentWords,
			)
			continue
		}

		annotation, err := s.summarizeWithRetry(ctx, record.RawContent)
		if err != nil {
			stats.Failures = append(stats.Failures, domain.Failure{
				SourceURL: record.SourceURL,
				Stage:     "enrich",
				Reason:    err.Error(),
			})
			s.logger.Warn("summarization failed", "id", record.ID, "error", err)
			continue
		}

		if err := s.staging.SetAnnotation(ctx, record.ID, annotation.Summary, annotation.Prompts); err != nil {
			stats.Failures = append(stats.Failures, domain.Failure{
				SourceURL: record.SourceURL,
				Stage:     "enrich",
				Reason:    err.Error(),
			})
			s.logger.Warn("failed to store annotation", "id", record.ID, "error", err)
			continue
		}

		stats.Summarized++
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("enrichment completed",
		"candidates", stats.Candidates,
		"summarized", stats.Summarized,
		"skipped_short", stats.SkippedShort,
		"failures", len(stats.Failures),
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *EnrichService) summarizeWithRetry(ctx context.Context, content string) (domain.Annotation, error) {
	var lastErr error

	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		annotation, err := s.summarizer.Summarize(ctx, content)
		if err == nil {
			return annotation, nil
		}
		lastErr = err

		if attempt == s.config.MaxAttempts || !retry.Retriable(err) {
			break
		}

		backoff := retry.Backoff(attempt, s.config.InitialBackoff, s.config.MaxBackoff)
		s.logger.Warn("summarize attempt failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return domain.Annotation{}, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return domain.Annotation{}, lastErr
}
