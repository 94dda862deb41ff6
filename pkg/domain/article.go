package domain

import "time"

// Source describes a single news feed to crawl
type Source struct {
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	Type     string `yaml:"type" json:"type"` // "rss" or "html"
	Category string `yaml:"category" json:"category"`
}

// Article is a normalized news article, scored by the heuristic classifier
type Article struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	Content         string    `json:"content"`
	PublishedAt     time.Time `json:"published_at"`
	Source          string    `json:"source"`
	Category        string    `json:"category"`
	IsBreaking      bool      `json:"is_breaking"`
	Sentiment       string    `json:"sentiment"`
	EngagementScore float64   `json:"engagement_score"`
	FreshnessScore  float64   `json:"freshness_score"`

	Analysis   *Analysis  `json:"ai_analysis,omitempty"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty"`
}

// TrendingScore is the derived ranking value used by the trending endpoint
func (a *Article) TrendingScore() float64 {
	return a.EngagementScore * a.FreshnessScore
}
