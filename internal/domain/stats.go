package domain

import "time"

// Failure records one item that a batch stage could not handle. Batch
// operations collect failures and keep going instead of aborting.
type Failure struct {
	SourceURL string
	Stage     string
	Reason    string
}

// IngestStats holds statistics about one ingest run.
type IngestStats struct {
	RunID      string
	Fetched    int
	Fallbacks  int
	Duplicates int
	LowQuality int
	Created    int
	Existing   int
	Failures   []Failure
	Duration   time.Duration
}

// EnrichStats holds statistics about one enrichment run.
type EnrichStats struct {
	Candidates   int
	Summarized   int
	SkippedShort int
	Failures     []Failure
	Duration     time.Duration
}

// PromoteStats holds statistics about one promotion run.
type PromoteStats struct {
	Candidates     int
	Promoted       int
	AlreadyExisted int
	Published      int
	Failures       []Failure
	Duration       time.Duration
}

// CycleStats aggregates the stage stats of one full pipeline cycle.
type CycleStats struct {
	RunID   string
	Ingest  *IngestStats
	Enrich  *EnrichStats
	Promote *PromoteStats
}
