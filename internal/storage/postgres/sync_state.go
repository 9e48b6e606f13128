package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"feedup_ingest/internal/domain"
)

// SyncStateStore keeps one bookkeeping row per source: when it was last
// fetched, under which run, and whether it degraded to fallback data.
type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, sourceID string) (*domain.SourceSyncState, error) {
	var state domain.SourceSyncState
	query := `
		SELECT id, source_id, last_fetched_at, last_run_id, last_fallback, total_ingested
		FROM source_sync_state
		WHERE source_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, sourceID)
	if err == sql.ErrNoRows {
		// Return empty state for new sources
		return &domain.SourceSyncState{SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SourceSyncState) error {
	query := `
		INSERT INTO source_sync_state (source_id, last_fetched_at, last_run_id, last_fallback, total_ingested)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_id) DO UPDATE SET
			last_fetched_at = EXCLUDED.last_fetched_at,
			last_run_id = EXCLUDED.last_run_id,
			last_fallback = EXCLUDED.last_fallback,
			total_ingested = EXCLUDED.total_ingested`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.SourceID,
		state.LastFetchedAt,
		state.LastRunID,
		state.LastFallback,
		state.TotalIngested,
	)
	return err
}
