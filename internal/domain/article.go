package domain

import "time"

// RawItem is a single piece of content as a fetcher hands it over,
// before deduplication and staging.
type RawItem struct {
	Title       string
	SourceURL   string
	SourceName  string
	PublishedAt time.Time
	RawContent  string
	Tags        []string
	Authors     string // research papers only, feeds the fingerprint
}

// FetchResult is the outcome of one fetch pass over a source. A fetch
// never fails outright: when the upstream is unreachable the source
// returns its fallback items with Fallback set and the terminal error
// recorded in Err.
type FetchResult struct {
	Source   string
	Items    []RawItem
	Fallback bool
	Err      error
}

// StagingArticle is a fetched item held for review. Rows are created
// once per source_url; enrichment fills Summary/Prompts, an operator
// flips Approved, and the promotion pipeline flips Processed exactly
// once.
type StagingArticle struct {
	ID             int64
	Title          string
	SourceURL      string
	SourceName     string
	RawContent     string
	TagSuggestions []string
	Summary        string
	Prompts        []string
	AIGenerated    bool
	Approved       bool
	Processed      bool
	PublishedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Article is a published production record. Created exactly once per
// staging record, only by the promotion pipeline.
type Article struct {
	ID          int64
	Title       string
	SourceURL   string
	SourceName  string
	Summary     string
	Prompts     []string
	PublishedAt time.Time
	StagingID   *int64
	CreatedAt   time.Time
}

// Annotation is what the enrichment collaborator produces for one
// staging record.
type Annotation struct {
	Summary string
	Prompts []string
}

// StagingFilter narrows a staging browse query. Nil flag fields match
// either value.
type StagingFilter struct {
	Approved   *bool
	Processed  *bool
	SourceName string
	Limit      uint64
	Offset     uint64
}

// SourceSyncState tracks per-source ingest bookkeeping.
type SourceSyncState struct {
	ID            int64     `db:"id"`
	SourceID      string    `db:"source_id"`
	LastFetchedAt time.Time `db:"last_fetched_at"`
	LastRunID     string    `db:"last_run_id"`
	LastFallback  bool      `db:"last_fallback"`
	TotalIngested int64     `db:"total_ingested"`
}
