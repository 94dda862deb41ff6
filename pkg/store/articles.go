package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/kaitech/newspulse/pkg/domain"
)

// articleRow mirrors the articles table
type articleRow struct {
	ID              int64          `db:"id"`
	Title           string         `db:"title"`
	URL             string         `db:"url"`
	Content         string         `db:"content"`
	PublishedAt     time.Time      `db:"published_at"`
	Source          string         `db:"source"`
	Category        string         `db:"category"`
	IsBreaking      bool           `db:"is_breaking"`
	Sentiment       string         `db:"sentiment"`
	EngagementScore float64        `db:"engagement_score"`
	FreshnessScore  float64        `db:"freshness_score"`
	Analysis        sql.NullString `db:"ai_analysis"`
	AnalyzedAt      sql.NullTime   `db:"analyzed_at"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (r *articleRow) toDomain() (domain.Article, error) {
	article := domain.Article{
		ID:              r.ID,
		Title:           r.Title,
		URL:             r.URL,
		Content:         r.Content,
		PublishedAt:     r.PublishedAt,
		Source:          r.Source,
		Category:        r.Category,
		IsBreaking:      r.IsBreaking,
		Sentiment:       r.Sentiment,
		EngagementScore: r.EngagementScore,
		FreshnessScore:  r.FreshnessScore,
	}

	if r.Analysis.Valid && r.Analysis.String != "" {
		var analysis domain.Analysis
		if err := json.Unmarshal([]byte(r.Analysis.String), &analysis); err != nil {
			return article, fmt.Errorf("decode analysis for article %d: %w", r.ID, err)
		}
		article.Analysis = &analysis
	}
	if r.AnalyzedAt.Valid {
		t := r.AnalyzedAt.Time
		article.AnalyzedAt = &t
	}

	return article, nil
}

func toDomainList(rows []articleRow) ([]domain.Article, error) {
	articles := make([]domain.Article, 0, len(rows))
	for i := range rows {
		article, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// StoreArticles inserts a batch of articles in one transaction, skipping
// rows whose url already exists. The whole batch rolls back on any query
// error; lock contention retries the batch with backoff. Returns the newly
// inserted articles with their assigned ids.
func (s *Store) StoreArticles(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO articles (title, url, content, published_at, source, category,
			is_breaking, sentiment, engagement_score, freshness_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`

	var inserted []domain.Article
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		inserted = inserted[:0]
		err := s.InTransaction(ctx, func(tx *sqlx.Tx) error {
			now := time.Now().UTC()
			for _, a := range articles {
				result, err := tx.ExecContext(ctx, query,
					a.Title, a.URL, a.Content, a.PublishedAt.UTC(), a.Source, a.Category,
					a.IsBreaking, a.Sentiment, a.EngagementScore, a.FreshnessScore, now)
				if err != nil {
					return fmt.Errorf("insert article %s: %w", a.URL, err)
				}
				affected, err := result.RowsAffected()
				if err != nil {
					return fmt.Errorf("rows affected: %w", err)
				}
				if affected == 0 { // duplicate url, skipped
					continue
				}
				id, err := result.LastInsertId()
				if err != nil {
					return fmt.Errorf("last insert id: %w", err)
				}
				a.ID = id
				inserted = append(inserted, a)
			}
			return nil
		})
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: err}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store articles: %w", err)
	}

	return inserted, nil
}

// Count returns the total number of stored articles
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM articles`); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

// Breaking returns the most recent breaking articles
func (s *Store) Breaking(ctx context.Context, limit int) ([]domain.Article, error) {
	var rows []articleRow
	query := `
		SELECT * FROM articles
		WHERE is_breaking = 1
		ORDER BY published_at DESC
		LIMIT ?
	`
	if err := s.conn.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get breaking articles: %w", err)
	}
	return toDomainList(rows)
}

// ByCategory returns a paginated category listing, newest first
func (s *Store) ByCategory(ctx context.Context, category string, limit, offset int) ([]domain.Article, error) {
	var rows []articleRow
	query := `
		SELECT * FROM articles
		WHERE category = ?
		ORDER BY published_at DESC
		LIMIT ? OFFSET ?
	`
	if err := s.conn.SelectContext(ctx, &rows, query, category, limit, offset); err != nil {
		return nil, fmt.Errorf("get articles by category: %w", err)
	}
	return toDomainList(rows)
}

// Trending returns articles from the window ranked by engagement*freshness
func (s *Store) Trending(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error) {
	var rows []articleRow
	query := `
		SELECT * FROM articles
		WHERE published_at > ?
		ORDER BY engagement_score * freshness_score DESC, published_at DESC
		LIMIT ?
	`
	cutoff := time.Now().UTC().Add(-window)
	if err := s.conn.SelectContext(ctx, &rows, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("get trending articles: %w", err)
	}
	return toDomainList(rows)
}

// Recent returns all articles published within the window, newest first
func (s *Store) Recent(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error) {
	var rows []articleRow
	query := `
		SELECT * FROM articles
		WHERE published_at > ?
		ORDER BY published_at DESC
		LIMIT ?
	`
	cutoff := time.Now().UTC().Add(-window)
	if err := s.conn.SelectContext(ctx, &rows, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("get recent articles: %w", err)
	}
	return toDomainList(rows)
}

// Search runs full-text search over title and content, ranked by relevance
// then recency, with optional category and sentiment filters
func (s *Store) Search(ctx context.Context, q, category, sentiment string, limit int) ([]domain.Article, error) {
	match := ftsQuery(q)
	if match == "" {
		return []domain.Article{}, nil
	}

	query := `
		SELECT a.* FROM articles a
		JOIN articles_fts f ON a.id = f.rowid
		WHERE articles_fts MATCH ?
	`
	args := []interface{}{match}

	if category != "" {
		query += " AND a.category = ?"
		args = append(args, category)
	}
	if sentiment != "" {
		query += " AND a.sentiment = ?"
		args = append(args, sentiment)
	}

	query += " ORDER BY bm25(articles_fts), a.published_at DESC LIMIT ?"
	args = append(args, limit)

	var rows []articleRow
	if err := s.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	return toDomainList(rows)
}

// ftsQuery quotes each term so user input cannot inject FTS5 syntax
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, ``)+`"`)
	}
	return strings.Join(quoted, " ")
}

// Unanalyzed returns articles still waiting for the extended analysis pass,
// most recent first
func (s *Store) Unanalyzed(ctx context.Context, limit int) ([]domain.Article, error) {
	var rows []articleRow
	query := `
		SELECT * FROM articles
		WHERE ai_analysis IS NULL
		ORDER BY published_at DESC
		LIMIT ?
	`
	if err := s.conn.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get unanalyzed articles: %w", err)
	}
	return toDomainList(rows)
}

// UpdateAnalysis stores the analysis blob for an article
func (s *Store) UpdateAnalysis(ctx context.Context, articleID int64, analysis *domain.Analysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		_, err := s.conn.ExecContext(ctx,
			`UPDATE articles SET ai_analysis = ?, analyzed_at = ? WHERE id = ?`,
			string(data), analysis.AnalyzedAt.UTC(), articleID)
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("update analysis: %w", err)}
		}
		return nil
	})
}

// Analyzed returns analyzed articles in the window ranked by trending
// score, optionally filtered by category
func (s *Store) Analyzed(ctx context.Context, category string, window time.Duration, limit int) ([]domain.Article, error) {
	query := `
		SELECT * FROM articles
		WHERE published_at > ? AND ai_analysis IS NOT NULL
	`
	args := []interface{}{time.Now().UTC().Add(-window)}

	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	query += " ORDER BY engagement_score * freshness_score DESC LIMIT ?"
	args = append(args, limit)

	var rows []articleRow
	if err := s.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get analyzed articles: %w", err)
	}
	return toDomainList(rows)
}

// BreakingCandidates returns recently analyzed articles whose breaking
// probability exceeds the threshold, ranked by probability then recency
func (s *Store) BreakingCandidates(ctx context.Context, window time.Duration, minProbability float64, limit int) ([]domain.Article, error) {
	var rows []articleRow
	query := `
		SELECT * FROM articles
		WHERE published_at > ?
		  AND ai_analysis IS NOT NULL
		  AND CAST(json_extract(ai_analysis, '$.breaking_probability') AS REAL) > ?
		ORDER BY CAST(json_extract(ai_analysis, '$.breaking_probability') AS REAL) DESC, published_at DESC
		LIMIT ?
	`
	cutoff := time.Now().UTC().Add(-window)
	if err := s.conn.SelectContext(ctx, &rows, query, cutoff, minProbability, limit); err != nil {
		return nil, fmt.Errorf("get breaking candidates: %w", err)
	}
	return toDomainList(rows)
}
