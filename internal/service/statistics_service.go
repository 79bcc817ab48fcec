package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/internal/models"
	appErrors "github.com/noah-isme/sciclub-api/pkg/errors"
)

type statisticRepository interface {
	Record(ctx context.Context, pageURL string, at time.Time) error
	TopPages(ctx context.Context, since time.Time, limit int) ([]models.PageViewCount, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// StatisticsService records and summarises public page views.
type StatisticsService struct {
	repo    statisticRepository
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatisticsService constructs a StatisticsService.
func NewStatisticsService(repo statisticRepository, metrics *MetricsService, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{repo: repo, metrics: metrics, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Record stores one page view. Failures are logged, never returned.
func (s *StatisticsService) Record(ctx context.Context, pageURL string) {
	if err := s.repo.Record(ctx, pageURL, s.now()); err != nil {
		s.logger.Warn("failed to record page view", zap.String("page_url", pageURL), zap.Error(err))
		return
	}
	s.metrics.RecordPageView()
}

// Summary returns per-page counts for the last days days (default 30).
func (s *StatisticsService) Summary(ctx context.Context, days, limit int) (*models.StatisticsSummary, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)

	pages, err := s.repo.TopPages(ctx, since, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statistics")
	}
	total, err := s.repo.CountSince(ctx, since)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statistics")
	}
	if pages == nil {
		pages = []models.PageViewCount{}
	}
	return &models.StatisticsSummary{Since: since, TotalViews: total, Pages: pages}, nil
}
