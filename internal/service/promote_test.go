package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"feedup_ingest/internal/domain"
	"feedup_ingest/internal/service/mocks"
)

type PromoteServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	staging   *mocks.MockStagingStore
	articles  *mocks.MockArticleStore
	txManager *mocks.MockTransactionManager
	publisher *mocks.MockPublisher

	service *PromoteService
	logger  *slog.Logger
}

func (s *PromoteServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.staging = mocks.NewMockStagingStore(s.ctrl)
	s.articles = mocks.NewMockArticleStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewPromoteService(
		s.staging,
		s.articles,
		s.txManager,
		s.publisher,
		s.logger,
	)
}

func (s *PromoteServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestPromoteServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PromoteServiceTestSuite))
}

func (s *PromoteServiceTestSuite) candidate(id int64, url string) domain.StagingArticle {
	return domain.StagingArticle{
		ID:          id,
		Title:       "Understanding Goroutines",
		SourceURL:   url,
		SourceName:  "Dev.to",
		Summary:     "Goroutines are cheap runtime-managed threads.",
		Prompts:     []string{"Write a worker pool with goroutines."},
		Approved:    true,
		PublishedAt: time.Now(),
	}
}

func (s *PromoteServiceTestSuite) expectTransaction(ctx context.Context) {
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_PromotesAndPublishes() {
	ctx := context.Background()

	record := s.candidate(7, "https://dev.to/a/goroutines")

	s.staging.EXPECT().ListPromotable(ctx).Return([]domain.StagingArticle{record}, nil)
	s.expectTransaction(ctx)

	s.articles.EXPECT().ExistsBySourceURL(ctx, record.SourceURL).Return(false, nil)

	var created *domain.Article
	s.articles.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, article *domain.Article) (int64, error) {
			created = article
			return 100, nil
		},
	)

	s.staging.EXPECT().MarkProcessed(ctx, int64(7)).Return(nil)

	s.publisher.EXPECT().PublishPromotion(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, article *domain.Article) error {
			s.Equal(int64(100), article.ID)
			return nil
		},
	)

	stats, err := s.service.PromoteApproved(ctx)

	s.NoError(err)
	s.Equal(1, stats.Candidates)
	s.Equal(1, stats.Promoted)
	s.Equal(1, stats.Published)
	s.Equal(0, stats.AlreadyExisted)
	s.Empty(stats.Failures)

	s.Require().NotNil(created)
	s.Equal(record.Title, created.Title)
	s.Equal(record.SourceURL, created.SourceURL)
	s.Equal(record.Summary, created.Summary)
	s.Require().NotNil(created.StagingID)
	s.Equal(record.ID, *created.StagingID)
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_ExistingURLMarkedProcessed() {
	ctx := context.Background()

	record := s.candidate(7, "https://dev.to/a/goroutines")

	s.staging.EXPECT().ListPromotable(ctx).Return([]domain.StagingArticle{record}, nil)
	s.expectTransaction(ctx)

	s.articles.EXPECT().ExistsBySourceURL(ctx, record.SourceURL).Return(true, nil)
	s.staging.EXPECT().MarkProcessed(ctx, int64(7)).Return(nil)

	stats, err := s.service.PromoteApproved(ctx)

	s.NoError(err)
	s.Equal(0, stats.Promoted)
	s.Equal(1, stats.AlreadyExisted)
	s.Equal(0, stats.Published)
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_CreationRace() {
	ctx := context.Background()

	record := s.candidate(7, "https://dev.to/a/goroutines")

	s.staging.EXPECT().ListPromotable(ctx).Return([]domain.StagingArticle{record}, nil)

	// First transaction loses the insert race and rolls back, the
	// second one only marks the record processed.
	s.expectTransaction(ctx)
	s.expectTransaction(ctx)

	s.articles.EXPECT().ExistsBySourceURL(ctx, record.SourceURL).Return(false, nil)
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(int64(0), domain.ErrAlreadyExists)
	s.staging.EXPECT().MarkProcessed(ctx, int64(7)).Return(nil)

	stats, err := s.service.PromoteApproved(ctx)

	s.NoError(err)
	s.Equal(0, stats.Promoted)
	s.Equal(1, stats.AlreadyExisted)
	s.Empty(stats.Failures)
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_FailureContinues() {
	ctx := context.Background()

	failing := s.candidate(7, "https://dev.to/a/goroutines")
	healthy := s.candidate(8, "https://dev.to/a/channels")

	s.staging.EXPECT().ListPromotable(ctx).Return([]domain.StagingArticle{failing, healthy}, nil)
	s.expectTransaction(ctx)
	s.expectTransaction(ctx)

	s.articles.EXPECT().ExistsBySourceURL(ctx, failing.SourceURL).Return(false, errors.New("connection refused"))

	s.articles.EXPECT().ExistsBySourceURL(ctx, healthy.SourceURL).Return(false, nil)
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(int64(101), nil)
	s.staging.EXPECT().MarkProcessed(ctx, int64(8)).Return(nil)
	s.publisher.EXPECT().PublishPromotion(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.PromoteApproved(ctx)

	s.NoError(err)
	s.Equal(2, stats.Candidates)
	s.Equal(1, stats.Promoted)
	s.Require().Len(stats.Failures, 1)
	s.Equal("promote", stats.Failures[0].Stage)
	s.Equal(failing.SourceURL, stats.Failures[0].SourceURL)
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_SummaryGuardHolds() {
	ctx := context.Background()

	record := s.candidate(7, "https://dev.to/a/goroutines")

	s.staging.EXPECT().ListPromotable(ctx).Return([]domain.StagingArticle{record}, nil)
	s.expectTransaction(ctx)

	s.articles.EXPECT().ExistsBySourceURL(ctx, record.SourceURL).Return(false, nil)
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(int64(100), nil)

	// The record lost its summary between listing and the guarded
	// update; the whole unit rolls back instead of promoting it.
	s.staging.EXPECT().MarkProcessed(ctx, int64(7)).Return(domain.ErrSummaryRequired)

	stats, err := s.service.PromoteApproved(ctx)

	s.NoError(err)
	s.Equal(0, stats.Promoted)
	s.Equal(0, stats.Published)
	s.Require().Len(stats.Failures, 1)
	s.Equal("promote", stats.Failures[0].Stage)
	s.Contains(stats.Failures[0].Reason, "summary required")
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_PublishFailureKeepsPromotion() {
	ctx := context.Background()

	record := s.candidate(7, "https://dev.to/a/goroutines")

	s.staging.EXPECT().ListPromotable(ctx).Return([]domain.StagingArticle{record}, nil)
	s.expectTransaction(ctx)

	s.articles.EXPECT().ExistsBySourceURL(ctx, record.SourceURL).Return(false, nil)
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(int64(100), nil)
	s.staging.EXPECT().MarkProcessed(ctx, int64(7)).Return(nil)
	s.publisher.EXPECT().PublishPromotion(ctx, gomock.Any()).Return(errors.New("channel closed"))

	stats, err := s.service.PromoteApproved(ctx)

	s.NoError(err)
	s.Equal(1, stats.Promoted)
	s.Equal(0, stats.Published)
	s.Require().Len(stats.Failures, 1)
	s.Equal("publish", stats.Failures[0].Stage)
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_PublisherNil() {
	ctx := context.Background()

	service := NewPromoteService(
		s.staging,
		s.articles,
		s.txManager,
		nil,
		s.logger,
	)

	record := s.candidate(7, "https://dev.to/a/goroutines")

	s.staging.EXPECT().ListPromotable(ctx).Return([]domain.StagingArticle{record}, nil)
	s.expectTransaction(ctx)

	s.articles.EXPECT().ExistsBySourceURL(ctx, record.SourceURL).Return(false, nil)
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(int64(100), nil)
	s.staging.EXPECT().MarkProcessed(ctx, int64(7)).Return(nil)

	stats, err := service.PromoteApproved(ctx)

	s.NoError(err)
	s.Equal(1, stats.Promoted)
	s.Equal(0, stats.Published)
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_SecondRunPromotesNothing() {
	ctx := context.Background()

	s.staging.EXPECT().ListPromotable(ctx).Return(nil, nil)

	stats, err := s.service.PromoteApproved(ctx)

	s.NoError(err)
	s.Equal(0, stats.Candidates)
	s.Equal(0, stats.Promoted)
}

func (s *PromoteServiceTestSuite) TestPromoteApproved_ListError() {
	ctx := context.Background()

	s.staging.EXPECT().ListPromotable(ctx).Return(nil, errors.New("connection refused"))

	stats, err := s.service.PromoteApproved(ctx)

	s.Error(err)
	s.Nil(stats)
	s.Contains(err.Error(), "list promotable")
}
