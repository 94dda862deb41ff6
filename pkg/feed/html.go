package feed

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kaitech/newspulse/pkg/domain"
)

// headlineSelectors are tried in order; the first one yielding at least one
// anchor wins. They cover the common markup shapes of news landing pages.
var headlineSelectors = []string{
	"article h2 a, article h3 a",
	".news-item h2 a, .news-item h3 a",
	".story-headline a",
	"h2.headline a, h3.headline a",
}

// parseHTML scrapes headline anchors from a landing page. Articles get the
// fetch time as published_at since pages carry no reliable timestamp.
func parseHTML(r io.Reader, src domain.Source, fetchedAt time.Time) ([]domain.Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	var articles []domain.Article
	for _, selector := range headlineSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			title := strings.TrimSpace(sel.Text())
			href, ok := sel.Attr("href")
			if title == "" || !ok || strings.TrimSpace(href) == "" {
				return
			}

			link, err := base.Parse(strings.TrimSpace(href))
			if err != nil {
				return
			}

			articles = append(articles, domain.Article{
				Title:       title,
				URL:         link.String(),
				PublishedAt: fetchedAt,
				Source:      src.Name,
				Category:    src.Category,
			})
		})

		if len(articles) > 0 {
			break
		}
	}

	return articles, nil
}
