package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"feedup_ingest/internal/config"
	"feedup_ingest/internal/domain"
)

// Pipeline chains the ingest, enrichment and promotion stages into one
// cycle and exposes the operator actions on staging records.
type Pipeline struct {
	ingest  Ingester
	enrich  Enricher
	promote Promoter
	staging StagingStore
	config  config.PipelineConfig
	logger  *slog.Logger
}

// NewPipeline wires the stages together. A nil enricher disables the
// enrichment stage, same as the skip_enrich config toggle.
func NewPipeline(
	ingest Ingester,
	enrich Enricher,
	promote Promoter,
	staging StagingStore,
	cfg config.PipelineConfig,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		ingest:  ingest,
		enrich:  enrich,
		promote: promote,
		staging: staging,
		config:  cfg,
		logger:  logger.With("component", "pipeline"),
	}
}

// RunCycle runs ingest, enrichment and promotion back to back under one
// run ID. Stage stats collected so far are returned even when a later
// stage fails.
func (p *Pipeline) RunCycle(ctx context.Context) (*domain.CycleStats, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	stats := &domain.CycleStats{RunID: runID}

	logger.Info("starting pipeline cycle")

	ingestStats, err := p.ingest.Ingest(ctx, runID)
	stats.Ingest = ingestStats
	if err != nil {
		return stats, fmt.Errorf("ingest: %w", err)
	}

	if p.enrich != nil && !p.config.SkipEnrich {
		enrichStats, err := p.enrich.SummarizeApproved(ctx)
		stats.Enrich = enrichStats
		if err != nil {
			return stats, fmt.Errorf("summarize: %w", err)
		}
	}

	if !p.config.SkipPromote {
		promoteStats, err := p.promote.PromoteApproved(ctx)
		stats.Promote = promoteStats
		if err != nil {
			return stats, fmt.Errorf("promote: %w", err)
		}
	}

	logger.Info("pipeline cycle completed",
		"staged", stats.Ingest.Created,
		"summarized", summarizedCount(stats),
		"promoted", promotedCount(stats),
	)

	return stats, nil
}

// Approve sets the operator approval flag on one staging record.
func (p *Pipeline) Approve(ctx context.Context, id int64, approved bool) error {
	if err := p.staging.SetApproved(ctx, id, approved); err != nil {
		return fmt.Errorf("set approved: %w", err)
	}

	p.logger.Info("staging record approval changed", "id", id, "approved", approved)
	return nil
}

// ResetProcessed clears the processed flag on one staging record, the
// only sanctioned way back once a record went through promotion.
func (p *Pipeline) ResetProcessed(ctx context.Context, id int64) error {
	if err := p.staging.ResetProcessed(ctx, id); err != nil {
		return fmt.Errorf("reset processed: %w", err)
	}

	p.logger.Info("staging record processed flag reset", "id", id)
	return nil
}

func summarizedCount(stats *domain.CycleStats) int {
	if stats.Enrich == nil {
		return 0
	}
	return stats.Enrich.Summarized
}

func promotedCount(stats *domain.CycleStats) int {
	if stats.Promote == nil {
		return 0
	}
	return stats.Promote.Promoted
}
