package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sciclub-api/internal/models"
)

// StatisticRepository stores page-view statistics.
type StatisticRepository struct {
	db *sqlx.DB
}

// NewStatisticRepository creates a new instance of StatisticRepository.
func NewStatisticRepository(db *sqlx.DB) *StatisticRepository {
	return &StatisticRepository{db: db}
}

// Record inserts one page view.
func (r *StatisticRepository) Record(ctx context.Context, pageURL string, at time.Time) error {
	const query = `INSERT INTO statistics (id, page_url, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), pageURL, at); err != nil {
		return fmt.Errorf("record page view: %w", err)
	}
	return nil
}

// TopPages returns view counts per URL since the given time, busiest first.
func (r *StatisticRepository) TopPages(ctx context.Context, since time.Time, limit int) ([]models.PageViewCount, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT page_url, COUNT(*) AS views FROM statistics WHERE created_at >= $1 GROUP BY page_url ORDER BY views DESC, page_url ASC LIMIT %d`, limit)
	var rows []models.PageViewCount
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("aggregate page views: %w", err)
	}
	return rows, nil
}

// CountSince returns the total number of views since the given time.
func (r *StatisticRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM statistics WHERE created_at >= $1`, since); err != nil {
		return 0, fmt.Errorf("count page views: %w", err)
	}
	return total, nil
}
