package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kaitech/newspulse/pkg/domain"
)

// Analytics aggregates article counts: today's total, per-category and
// per-sentiment distributions over the last 24 hours, and the 24h breaking
// count
func (s *Store) Analytics(ctx context.Context) (*domain.Analytics, error) {
	now := time.Now().UTC()
	dayAgo := now.Add(-24 * time.Hour)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var total int64
	if err := s.conn.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM articles WHERE published_at >= ?`, startOfDay); err != nil {
		return nil, fmt.Errorf("count today articles: %w", err)
	}

	var categories []domain.CategoryCount
	if err := s.conn.SelectContext(ctx, &categories, `
		SELECT category, COUNT(*) as count FROM articles
		WHERE published_at > ?
		GROUP BY category
		ORDER BY count DESC
	`, dayAgo); err != nil {
		return nil, fmt.Errorf("count articles by category: %w", err)
	}

	sentiments, err := s.SentimentCounts(ctx, "", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	var breaking int64
	if err := s.conn.GetContext(ctx, &breaking,
		`SELECT COUNT(*) FROM articles WHERE is_breaking = 1 AND published_at > ?`, dayAgo); err != nil {
		return nil, fmt.Errorf("count breaking articles: %w", err)
	}

	return &domain.Analytics{
		TotalArticles:         total,
		CategoryCounts:        categories,
		SentimentDistribution: sentiments,
		BreakingCount:         breaking,
		LastUpdated:           now,
	}, nil
}

// SentimentCounts returns the sentiment distribution over the window,
// optionally limited to one category
func (s *Store) SentimentCounts(ctx context.Context, category string, window time.Duration) ([]domain.SentimentCount, error) {
	query := `
		SELECT sentiment, COUNT(*) as count FROM articles
		WHERE published_at > ?
	`
	args := []interface{}{time.Now().UTC().Add(-window)}

	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " GROUP BY sentiment"

	var counts []domain.SentimentCount
	if err := s.conn.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count articles by sentiment: %w", err)
	}
	return counts, nil
}

// CategoryTrends ranks categories over the window by volume times average
// engagement
func (s *Store) CategoryTrends(ctx context.Context, window time.Duration) ([]domain.CategoryTrend, error) {
	type row struct {
		Category      string  `db:"category"`
		ArticleCount  int64   `db:"article_count"`
		AvgEngagement float64 `db:"avg_engagement"`
		AvgFreshness  float64 `db:"avg_freshness"`
	}

	var rows []row
	query := `
		SELECT category,
		       COUNT(*) as article_count,
		       AVG(engagement_score) as avg_engagement,
		       AVG(freshness_score) as avg_freshness
		FROM articles
		WHERE published_at > ?
		GROUP BY category
		ORDER BY COUNT(*) * AVG(engagement_score) DESC
	`
	if err := s.conn.SelectContext(ctx, &rows, query, time.Now().UTC().Add(-window)); err != nil {
		return nil, fmt.Errorf("get category trends: %w", err)
	}

	trends := make([]domain.CategoryTrend, 0, len(rows))
	for _, r := range rows {
		trends = append(trends, domain.CategoryTrend{
			Topic:         r.Category,
			ArticleCount:  r.ArticleCount,
			AvgEngagement: r.AvgEngagement,
			AvgFreshness:  r.AvgFreshness,
			TrendScore:    float64(r.ArticleCount) * r.AvgEngagement,
		})
	}
	return trends, nil
}
