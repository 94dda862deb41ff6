package domain

import "time"

// Analytics aggregates article counts over the last 24 hours
type Analytics struct {
	TotalArticles         int64            `json:"totalArticles"`
	CategoryCounts        []CategoryCount  `json:"categoryCounts"`
	SentimentDistribution []SentimentCount `json:"sentimentDistribution"`
	BreakingCount         int64            `json:"breakingCount"`
	LastUpdated           time.Time        `json:"lastUpdated"`
}

// CategoryCount is a per-category article count
type CategoryCount struct {
	Category string `json:"category" db:"category"`
	Count    int64  `json:"count" db:"count"`
}

// SentimentCount is a per-sentiment article count
type SentimentCount struct {
	Sentiment string `json:"sentiment" db:"sentiment"`
	Count     int64  `json:"count" db:"count"`
}

// TrendingTopic is a repeated phrase found in recent articles
type TrendingTopic struct {
	Topic    string `json:"topic"`
	Count    int    `json:"count"`
	Trending bool   `json:"trending"`
}

// TrendingReport is the cached trending-topics payload
type TrendingReport struct {
	Topics        []TrendingTopic `json:"trending_topics"`
	Timeframe     string          `json:"timeframe"`
	ArticlesTotal int             `json:"total_articles_analyzed"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// CategoryTrend ranks a category by volume and engagement
type CategoryTrend struct {
	Topic         string  `json:"topic"`
	ArticleCount  int64   `json:"article_count"`
	AvgEngagement float64 `json:"avg_engagement"`
	AvgFreshness  float64 `json:"avg_freshness"`
	TrendScore    float64 `json:"trend_score"`
}

// Insight is one entry of the insights report
type Insight struct {
	Title           string    `json:"title"`
	Source          string    `json:"source"`
	Category        string    `json:"category"`
	PublishedAt     time.Time `json:"published_at"`
	EngagementScore float64   `json:"engagement_score"`
	Sentiment       string    `json:"sentiment"`
	Analysis        *Analysis `json:"ai_insights,omitempty"`
}

// InsightsReport is the response of the insights endpoint
type InsightsReport struct {
	Timeframe     string    `json:"timeframe"`
	Category      string    `json:"category"`
	TotalArticles int       `json:"total_articles"`
	Insights      []Insight `json:"insights"`
}

// SentimentReport is the response of the sentiment endpoint
type SentimentReport struct {
	Category              string             `json:"category"`
	TotalArticles         int64              `json:"total_articles"`
	SentimentDistribution []SentimentPercent `json:"sentiment_distribution"`
}

// SentimentPercent is a sentiment count with its share of the total
type SentimentPercent struct {
	Sentiment  string  `json:"sentiment"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// BreakingPrediction is an article ranked by its breaking probability
type BreakingPrediction struct {
	Title               string    `json:"title"`
	Category            string    `json:"category"`
	Source              string    `json:"source"`
	PublishedAt         time.Time `json:"published_at"`
	BreakingProbability float64   `json:"breaking_probability"`
	EngagementScore     float64   `json:"engagement_score"`
	Confidence          float64   `json:"prediction_confidence"`
}

// DailyReport is the daily insight rollup cached once per day
type DailyReport struct {
	Date        string          `json:"date"`
	Insights    InsightsReport  `json:"insights"`
	Sentiment   SentimentReport `json:"sentiment"`
	Trending    []CategoryTrend `json:"trending"`
	GeneratedAt time.Time       `json:"generated_at"`
}
