package postgres

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feedup_ingest/internal/domain"
)

// ArticleStore writes the production articles table. Rows are created
// exactly once per staging record by the promotion pipeline and never
// updated afterwards.
type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Create inserts a production article. A source_url collision with a
// concurrent writer surfaces as domain.ErrAlreadyExists so the caller
// can fall back to the already-exists path.
func (s *ArticleStore) Create(ctx context.Context, article *domain.Article) (int64, error) {
	query := `
		INSERT INTO articles (
			title, source_url, source_name, summary, prompts, published_at, staging_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		article.Title,
		article.SourceURL,
		article.SourceName,
		article.Summary,
		textArray(article.Prompts),
		article.PublishedAt,
		article.StagingID,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, domain.ErrAlreadyExists
		}
		return 0, err
	}

	return id, nil
}

func (s *ArticleStore) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
		"SELECT EXISTS (SELECT 1 FROM articles WHERE source_url = $1)",
		sourceURL,
	)
	return exists, err
}
