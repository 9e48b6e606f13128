package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedup_ingest/internal/domain"
)

// PromoteService moves approved, summarized staging records into the
// production articles table. It is the only writer that creates
// production rows or flips the processed flag, and it is safe to run
// repeatedly: a record is promoted at most once.
type PromoteService struct {
	staging   StagingStore
	articles  ArticleStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
}

func NewPromoteService(
	staging StagingStore,
	articles ArticleStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *PromoteService {
	return &PromoteService{
		staging:   staging,
		articles:  articles,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("component", "promote"),
	}
}

// PromoteApproved promotes every approved, unprocessed staging record
// that has a summary, each in its own transaction so one failure cannot
// roll back the others. Records whose URL already has a production
// article are marked processed and skipped. A publish failure is
// counted but never undoes a committed promotion.
func (s *PromoteService) PromoteApproved(ctx context.Context) (*domain.PromoteStats, error) {
	startTime := time.Now()

	candidates, err := s.staging.ListPromotable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list promotable: %w", err)
	}

	stats := &domain.PromoteStats{Candidates: len(candidates)}

	s.logger.Info("starting promotion", "candidates", len(candidates))

	for i := range candidates {
		record := &candidates[i]

		if err := ctx.Err(); err != nil {
			return stats, err
		}

		article, err := s.promoteOne(ctx, record)
		if errors.Is(err, domain.ErrAlreadyExists) {
			// A concurrent promoter created the article after our
			// existence check; mark the row considered and move on.
			if err := s.markExisting(ctx, record); err != nil {
				stats.Failures = append(stats.Failures, promoteFailure(record, err))
				s.logger.Warn("failed to mark existing record processed", "id", record.ID, "error", err)
				continue
			}
			stats.AlreadyExisted++
			continue
		}
		if err != nil {
			stats.Failures = append(stats.Failures, promoteFailure(record, err))
			s.logger.Warn("promotion failed",
				"id", record.ID,
				"source_url", record.SourceURL,
				"error", err,
			)
			continue
		}

		if article == nil {
			stats.AlreadyExisted++
			s.logger.Debug("article already exists, marked processed",
				"id", record.ID,
				"source_url", record.SourceURL,
			)
			continue
		}

		stats.Promoted++
		s.logger.Debug("promoted staging record", "id", record.ID, "article_id", article.ID)

		if s.publisher == nil {
			continue
		}
		if err := s.publisher.PublishPromotion(ctx, article); err != nil {
			stats.Failures = append(stats.Failures, domain.Failure{
				SourceURL: record.SourceURL,
				Stage:     "publish",
				Reason:    err.Error(),
			})
			s.logger.Warn("failed to publish promotion", "article_id", article.ID, "error", err)
		} else {
			stats.Published++
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("promotion completed",
		"candidates", stats.Candidates,
		"promoted", stats.Promoted,
		"already_existed", stats.AlreadyExisted,
		"published", stats.Published,
		"failures", len(stats.Failures),
		"duration", stats.Duration,
	)

	return stats, nil
}

// promoteOne handles one candidate inside a single transaction: check
// for an existing production article, create one if missing, flip
// processed. It returns nil when the article already existed and the
// staging row was only marked processed.
func (s *PromoteService) promoteOne(ctx context.Context, record *domain.StagingArticle) (*domain.Article, error) {
	var article *domain.Article

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		exists, err := s.articles.ExistsBySourceURL(txCtx, record.SourceURL)
		if err != nil {
			return fmt.Errorf("check existing article: %w", err)
		}

		if exists {
			return s.staging.MarkProcessed(txCtx, record.ID)
		}

		a := &domain.Article{
			Title:       record.Title,
			SourceURL:   record.SourceURL,
			SourceName:  record.SourceName,
			Summary:     record.Summary,
			Prompts:     record.Prompts,
			PublishedAt: record.PublishedAt,
			StagingID:   &record.ID,
		}

		id, err := s.articles.Create(txCtx, a)
		if err != nil {
			return fmt.Errorf("create article: %w", err)
		}
		a.ID = id

		if err := s.staging.MarkProcessed(txCtx, record.ID); err != nil {
			return fmt.Errorf("mark processed: %w", err)
		}

		article = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return article, nil
}

// markExisting flips processed after a lost creation race. It runs in a
// fresh transaction because the losing one was rolled back.
func (s *PromoteService) markExisting(ctx context.Context, record *domain.StagingArticle) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.staging.MarkProcessed(txCtx, record.ID)
	})
}

func promoteFailure(record *domain.StagingArticle, err error) domain.Failure {
	return domain.Failure{
		SourceURL: record.SourceURL,
		Stage:     "promote",
		Reason:    err.Error(),
	}
}
