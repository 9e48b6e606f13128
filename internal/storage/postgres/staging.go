package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feedup_ingest/internal/domain"
)

// StagingStore persists fetched items awaiting review, enrichment and
// promotion. source_url uniqueness makes repeated ingestion idempotent.
type StagingStore struct {
	db *sqlx.DB
}

func NewStagingStore(db *sqlx.DB) *StagingStore {
	return &StagingStore{db: db}
}

var stagingColumns = []string{
	"id", "title", "source_url", "source_name", "raw_content",
	"tag_suggestions", "summary", "prompts", "ai_generated",
	"approved", "processed", "published_at", "created_at", "updated_at",
}

var selectStaging = "SELECT " + strings.Join(stagingColumns, ", ") + " FROM staging_articles"

type stagingRow struct {
	ID             int64          `db:"id"`
	Title          string         `db:"title"`
	SourceURL      string         `db:"source_url"`
	SourceName     string         `db:"source_name"`
	RawContent     string         `db:"raw_content"`
	TagSuggestions pq.StringArray `db:"tag_suggestions"`
	Summary        string         `db:"summary"`
	Prompts        pq.StringArray `db:"prompts"`
	AIGenerated    bool           `db:"ai_generated"`
	Approved       bool           `db:"approved"`
	Processed      bool           `db:"processed"`
	PublishedAt    time.Time      `db:"published_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r *stagingRow) toDomain() *domain.StagingArticle {
	return &domain.StagingArticle{
		ID:             r.ID,
		Title:          r.Title,
		SourceURL:      r.SourceURL,
		SourceName:     r.SourceName,
		RawContent:     r.RawContent,
		TagSuggestions: []string(r.TagSuggestions),
		Summary:        r.Summary,
		Prompts:        []string(r.Prompts),
		AIGenerated:    r.AIGenerated,
		Approved:       r.Approved,
		Processed:      r.Processed,
		PublishedAt:    r.PublishedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toDomainList(rows []stagingRow) []domain.StagingArticle {
	records := make([]domain.StagingArticle, len(rows))
	for i := range rows {
		records[i] = *rows[i].toDomain()
	}
	return records
}

// textArray never encodes nil, which pq would send as NULL into a
// NOT NULL column.
func textArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}

// Upsert inserts the item once per source_url. When the row already
// exists it is returned unchanged with created=false; re-ingesting the
// same batch never overwrites review or enrichment state.
func (s *StagingStore) Upsert(ctx context.Context, item domain.RawItem) (*domain.StagingArticle, bool, error) {
	query := `
		INSERT INTO staging_articles (
			title, source_url, source_name, raw_content, tag_suggestions, published_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_url) DO NOTHING
		RETURNING ` + strings.Join(stagingColumns, ", ")

	var row stagingRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query,
		item.Title,
		item.SourceURL,
		item.SourceName,
		item.RawContent,
		textArray(item.Tags),
		item.PublishedAt,
	)

	if err == sql.ErrNoRows {
		existing, err := s.GetBySourceURL(ctx, item.SourceURL)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return row.toDomain(), true, nil
}

func (s *StagingStore) GetByID(ctx context.Context, id int64) (*domain.StagingArticle, error) {
	var row stagingRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row,
		selectStaging+" WHERE id = $1", id,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *StagingStore) GetBySourceURL(ctx context.Context, sourceURL string) (*domain.StagingArticle, error) {
	var row stagingRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row,
		selectStaging+" WHERE source_url = $1", sourceURL,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *StagingStore) SetApproved(ctx context.Context, id int64, approved bool) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE staging_articles SET approved = $2, updated_at = NOW() WHERE id = $1",
		id, approved,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// SetAnnotation stores the enrichment result and flags the record as
// machine-annotated so it drops out of the enrichable set.
func (s *StagingStore) SetAnnotation(ctx context.Context, id int64, summary string, prompts []string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE staging_articles
		SET summary = $2, prompts = $3, ai_generated = TRUE, updated_at = NOW()
		WHERE id = $1`,
		id, summary, textArray(prompts),
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// MarkProcessed flips the processed flag, refusing records without a
// summary: the production table never receives unsummarized content, so
// a record must not be considered done before enrichment filled it in.
func (s *StagingStore) MarkProcessed(ctx context.Context, id int64) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE staging_articles SET processed = TRUE, updated_at = NOW() WHERE id = $1 AND summary <> ''",
		id,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Zero rows: the record is either missing or unsummarized.
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrSummaryRequired
}

// ResetProcessed is the operator escape hatch to push a record through
// promotion again.
func (s *StagingStore) ResetProcessed(ctx context.Context, id int64) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE staging_articles SET processed = FALSE, updated_at = NOW() WHERE id = $1",
		id,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// ListEnrichable returns approved records still missing a machine
// annotation, oldest first.
func (s *StagingStore) ListEnrichable(ctx context.Context) ([]domain.StagingArticle, error) {
	var rows []stagingRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows,
		selectStaging+" WHERE approved AND NOT ai_generated ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// ListPromotable returns the promotion candidates: approved, not yet
// considered, and carrying a summary. Ascending id keeps promotion
// order stable across runs.
func (s *StagingStore) ListPromotable(ctx context.Context) ([]domain.StagingArticle, error) {
	var rows []stagingRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows,
		selectStaging+" WHERE approved AND NOT processed AND summary <> '' ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

// List is the operator browse query.
func (s *StagingStore) List(ctx context.Context, filter domain.StagingFilter) ([]domain.StagingArticle, error) {
	builder := sq.Select(stagingColumns...).
		From("staging_articles").
		OrderBy("id").
		PlaceholderFormat(sq.Dollar)

	if filter.Approved != nil {
		builder = builder.Where(sq.Eq{"approved": *filter.Approved})
	}
	if filter.Processed != nil {
		builder = builder.Where(sq.Eq{"processed": *filter.Processed})
	}
	if filter.SourceName != "" {
		builder = builder.Where(sq.Eq{"source_name": filter.SourceName})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []stagingRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, err
	}
	return toDomainList(rows), nil
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
