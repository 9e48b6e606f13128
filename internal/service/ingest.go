package service

import (
	"context"
	"log/slog"
	"time"

	"feedup_ingest/internal/dedup"
	"feedup_ingest/internal/domain"
)

// IngestService pulls fresh items from every configured source, drops
// duplicates and junk, and stages the survivors.
type IngestService struct {
	sources   []Source
	filter    *dedup.Filter
	staging   StagingStore
	syncState SyncStateStore
	logger    *slog.Logger
}

func NewIngestService(
	sources []Source,
	filter *dedup.Filter,
	staging StagingStore,
	syncState SyncStateStore,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		sources:   sources,
		filter:    filter,
		staging:   staging,
		syncState: syncState,
		logger:    logger.With("component", "ingest"),
	}
}

// sourceRun keeps per-source bookkeeping for one ingest pass.
type sourceRun struct {
	source  Source
	result  domain.FetchResult
	created int64
}

// Ingest runs one fetch-filter-stage pass over all sources. Sources
// never fail the run: an unreachable upstream degrades to its fallback
// items. Per-item staging failures are collected in the stats and do
// not stop the batch.
func (s *IngestService) Ingest(ctx context.Context, runID string) (*domain.IngestStats, error) {
	startTime := time.Now()
	logger := s.logger.With("run_id", runID)

	stats := &domain.IngestStats{RunID: runID}

	logger.Info("starting ingest", "sources", len(s.sources))

	runs := make([]*sourceRun, 0, len(s.sources))
	runByName := make(map[string]*sourceRun, len(s.sources))

	var merged []domain.RawItem
	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		run := &sourceRun{source: src, result: src.Fetch(ctx)}
		runs = append(runs, run)
		runByName[src.Name()] = run

		stats.Fetched += len(run.result.Items)
		if run.result.Fallback {
			stats.Fallbacks++
			logger.Warn("source degraded to fallback data",
				"source", src.ID(),
				"error", run.result.Err,
			)
		}

		merged = append(merged, run.result.Items...)

		logger.Debug("fetched source",
			"source", src.ID(),
			"items", len(run.result.Items),
			"fallback", run.result.Fallback,
		)
	}

	unique, report := s.filter.Run(merged)
	stats.Duplicates = report.Duplicates
	stats.LowQuality = report.LowQuality

	logger.Debug("filtered batch",
		"fetched", stats.Fetched,
		"unique", len(unique),
		"duplicates", report.Duplicates,
		"low_quality", report.LowQuality,
	)

	for i := range unique {
		item := &unique[i]

		if err := ctx.Err(); err != nil {
			return stats, err
		}

		_, created, err := s.staging.Upsert(ctx, *item)
		if err != nil {
			stats.Failures = append(stats.Failures, domain.Failure{
				SourceURL: item.SourceURL,
				Stage:     "staging",
				Reason:    err.Error(),
			})
			logger.Warn("staging upsert failed", "source_url", item.SourceURL, "error", err)
			continue
		}

		if created {
			stats.Created++
			if run, ok := runByName[item.SourceName]; ok {
				run.created++
			}
		} else {
			stats.Existing++
		}
	}

	fetchedAt := time.Now()
	for _, run := range runs {
		if err := s.updateSyncState(ctx, run, runID, fetchedAt); err != nil {
			stats.Failures = append(stats.Failures, domain.Failure{
				SourceURL: run.source.ID(),
				Stage:     "sync_state",
				Reason:    err.Error(),
			})
			logger.Error("failed to update sync state", "source", run.source.ID(), "error", err)
		}
	}

	stats.Duration = time.Since(startTime)

	logger.Info("ingest completed",
		"fetched", stats.Fetched,
		"fallbacks", stats.Fallbacks,
		"duplicates", stats.Duplicates,
		"low_quality", stats.LowQuality,
		"created", stats.Created,
		"existing", stats.Existing,
		"failures", len(stats.Failures),
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *IngestService) updateSyncState(ctx context.Context, run *sourceRun, runID string, fetchedAt time.Time) error {
	state, err := s.syncState.Get(ctx, run.source.ID())
	if err != nil {
		return err
	}

	state.SourceID = run.source.ID()
	state.LastFetchedAt = fetchedAt
	state.LastRunID = runID
	state.LastFallback = run.result.Fallback
	state.TotalIngested += run.created

	return s.syncState.Update(ctx, state)
}
