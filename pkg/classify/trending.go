package classify

import (
	"sort"
	"strings"
	"time"

	"github.com/kaitech/newspulse/pkg/domain"
)

// trendingLimit caps the number of phrases returned
const trendingLimit = 20

// TrendingTopics counts two-word phrases across articles published within
// the window and returns the most frequent ones. Phrases shorter than six
// characters and filler phrases are skipped; a phrase is flagged trending
// once it shows up more than three times.
func (c *Classifier) TrendingTopics(articles []domain.Article, window time.Duration, now time.Time) []domain.TrendingTopic {
	common := make(map[string]struct{}, len(c.lex.CommonPhrases))
	for _, p := range c.lex.CommonPhrases {
		common[p] = struct{}{}
	}

	cutoff := now.Add(-window)
	counts := map[string]int{}

	for _, article := range articles {
		if article.PublishedAt.Before(cutoff) {
			continue
		}

		text := strings.ToLower(article.Title + " " + article.Content)
		words := strings.Fields(text)

		for i := 0; i+1 < len(words); i++ {
			phrase := words[i] + " " + words[i+1]
			if len(phrase) <= 5 {
				continue
			}
			if _, ok := common[phrase]; ok {
				continue
			}
			counts[phrase]++
		}
	}

	topics := make([]domain.TrendingTopic, 0, len(counts))
	for phrase, count := range counts {
		topics = append(topics, domain.TrendingTopic{Topic: phrase, Count: count, Trending: count > 3})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Topic < topics[j].Topic
	})

	if len(topics) > trendingLimit {
		topics = topics[:trendingLimit]
	}
	return topics
}
