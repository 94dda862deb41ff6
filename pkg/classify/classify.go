// Package classify implements the heuristic scoring pass over crawled
// articles: category normalization, breaking-news detection, keyword
// sentiment, engagement and freshness scores, plus the extended analysis
// used by the insights endpoints. All of it is keyword counting and fixed
// formulas; there is no model behind it.
package classify

import (
	"strings"
	"time"
)

// Classifier scores articles against a lexicon
type Classifier struct {
	lex Lexicon
}

// New creates a classifier with the given lexicon
func New(lex Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Scores holds the per-article fields computed on every crawl
type Scores struct {
	IsBreaking      bool
	Sentiment       string
	EngagementScore float64
	FreshnessScore  float64
}

// Classify computes the crawl-time scores for an article. It never fails:
// empty input yields neutral defaults.
func (c *Classifier) Classify(title, content string, published, now time.Time) Scores {
	return Scores{
		IsBreaking:      c.IsBreaking(title, content),
		Sentiment:       c.Sentiment(title, content),
		EngagementScore: c.EngagementScore(title, content),
		FreshnessScore:  FreshnessScore(published, now),
	}
}

// NormalizeCategory maps a raw feed category into the fixed vocabulary,
// defaulting to "world" for anything unrecognized
func (c *Classifier) NormalizeCategory(raw string) string {
	if mapped, ok := c.lex.CategoryMap[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return mapped
	}
	return "world"
}

// IsBreaking reports whether title+content contains any breaking keyword
func (c *Classifier) IsBreaking(title, content string) bool {
	text := strings.ToLower(title + " " + content)
	for _, kw := range c.lex.BreakingKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Sentiment takes a majority vote between positive and negative keyword
// hits, resolving ties to neutral
func (c *Classifier) Sentiment(title, content string) string {
	text := strings.ToLower(title + " " + content)

	var positive, negative int
	for _, w := range c.lex.PositiveWords {
		if strings.Contains(text, w) {
			positive++
		}
	}
	for _, w := range c.lex.NegativeWords {
		if strings.Contains(text, w) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return "positive"
	case negative > positive:
		return "negative"
	default:
		return "neutral"
	}
}

// EngagementScore estimates reader interest from title heuristics,
// starting at 0.5 and clamped to 1.0
func (c *Classifier) EngagementScore(title, content string) float64 {
	score := 0.5

	if c.IsBreaking(title, content) {
		score += 0.3
	}
	if strings.ContainsAny(title, "0123456789") {
		score += 0.1
	}
	if strings.Contains(title, "?") {
		score += 0.1
	}

	return clamp(score)
}

// FreshnessScore is a step function of article age: 1.0 under an hour,
// decaying to 0.2 past three days
func FreshnessScore(published, now time.Time) float64 {
	age := now.Sub(published).Hours()
	switch {
	case age < 1:
		return 1.0
	case age < 6:
		return 0.8
	case age < 24:
		return 0.6
	case age < 72:
		return 0.4
	default:
		return 0.2
	}
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
