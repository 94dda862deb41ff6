package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/kaitech/newspulse/pkg/domain"
)

// descriptions arrive with embedded markup from many feeds, strip it before
// the text heuristics see it
var sanitizer = bluemonday.StrictPolicy()

// parseRSS converts an RSS/Atom payload into article drafts. Items missing
// a title or link are skipped without failing the feed.
func parseRSS(r io.Reader, src domain.Source, fetchedAt time.Time) ([]domain.Article, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.Link) == "" {
			continue
		}

		published := fetchedAt
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		category := src.Category
		if len(item.Categories) > 0 && strings.TrimSpace(item.Categories[0]) != "" {
			category = item.Categories[0]
		}

		articles = append(articles, domain.Article{
			Title:       strings.TrimSpace(item.Title),
			URL:         strings.TrimSpace(item.Link),
			Content:     cleanText(item.Description),
			PublishedAt: published,
			Source:      src.Name,
			Category:    category,
		})
	}

	return articles, nil
}

// cleanText strips markup and collapses whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(sanitizer.Sanitize(s)), " ")
}
