package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"feedup_ingest/internal/domain"
)

type Source interface {
	ID() string
	Name() string
	Fetch(ctx context.Context) domain.FetchResult
}

type StagingStore interface {
	Upsert(ctx context.Context, item domain.RawItem) (*domain.StagingArticle, bool, error)
	GetByID(ctx context.Context, id int64) (*domain.StagingArticle, error)
	SetApproved(ctx context.Context, id int64, approved bool) error
	SetAnnotation(ctx context.Context, id int64, summary string, prompts []string) error
	MarkProcessed(ctx context.Context, id int64) error
	ResetProcessed(ctx context.Context, id int64) error
	ListEnrichable(ctx context.Context) ([]domain.StagingArticle, error)
	ListPromotable(ctx context.Context) ([]domain.StagingArticle, error)
	List(ctx context.Context, filter domain.StagingFilter) ([]domain.StagingArticle, error)
}

type ArticleStore interface {
	Create(ctx context.Context, article *domain.Article) (int64, error)
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SourceSyncState, error)
	Update(ctx context.Context, state *domain.SourceSyncState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishPromotion(ctx context.Context, article *domain.Article) error
	Close() error
}

type Summarizer interface {
	Summarize(ctx context.Context, content string) (domain.Annotation, error)
}

type Ingester interface {
	Ingest(ctx context.Context, runID string) (*domain.IngestStats, error)
}

type Enricher interface {
	SummarizeApproved(ctx context.Context) (*domain.EnrichStats, error)
}

type Promoter interface {
	PromoteApproved(ctx context.Context) (*domain.PromoteStats, error)
}
