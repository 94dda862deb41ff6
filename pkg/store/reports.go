package store

import (
	"context"
	"math"
	"time"

	"github.com/kaitech/newspulse/pkg/domain"
)

// InsightsReport builds the insights view over analyzed articles: the most
// engaging analyzed articles in the window, optionally limited to one category.
// The timeframe label is echoed back as given by the caller.
func (s *Store) InsightsReport(ctx context.Context, category, timeframe string, window time.Duration, limit int) (*domain.InsightsReport, error) {
	articles, err := s.Analyzed(ctx, category, window, limit)
	if err != nil {
		return nil, err
	}

	insights := make([]domain.Insight, 0, len(articles))
	for _, a := range articles {
		insights = append(insights, domain.Insight{
			Title:           a.Title,
			Source:          a.Source,
			Category:        a.Category,
			PublishedAt:     a.PublishedAt,
			EngagementScore: a.EngagementScore,
			Sentiment:       a.Sentiment,
			Analysis:        a.Analysis,
		})
	}

	reportCategory := category
	if reportCategory == "" {
		reportCategory = "all"
	}

	return &domain.InsightsReport{
		Timeframe:     timeframe,
		Category:      reportCategory,
		TotalArticles: len(insights),
		Insights:      insights,
	}, nil
}

// SentimentReport builds the sentiment distribution with per-sentiment shares
// of the total, optionally limited to one category
func (s *Store) SentimentReport(ctx context.Context, category string, window time.Duration) (*domain.SentimentReport, error) {
	counts, err := s.SentimentCounts(ctx, category, window)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c.Count
	}

	dist := make([]domain.SentimentPercent, 0, len(counts))
	for _, c := range counts {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(c.Count)/float64(total)*1000) / 10
		}
		dist = append(dist, domain.SentimentPercent{Sentiment: c.Sentiment, Count: c.Count, Percentage: pct})
	}

	reportCategory := category
	if reportCategory == "" {
		reportCategory = "all"
	}

	return &domain.SentimentReport{
		Category:              reportCategory,
		TotalArticles:         total,
		SentimentDistribution: dist,
	}, nil
}
