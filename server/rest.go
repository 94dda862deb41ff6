package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/kaitech/newspulse/pkg/cache"
	"github.com/kaitech/newspulse/pkg/domain"
)

// breakingHandler returns recent breaking articles, cached for a minute
func (s *Server) breakingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var articles []domain.Article
	if s.cache.Get(ctx, "breaking-news", &articles) {
		RenderJSON(w, r, http.StatusOK, articles)
		return
	}

	articles, err := s.store.Breaking(ctx, 10)
	if err != nil {
		lgr.Printf("[ERROR] failed to get breaking news: %v", err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.cache.Set(ctx, "breaking-news", articles, cache.TTLBreaking)
	RenderJSON(w, r, http.StatusOK, articles)
}

// newsByCategoryHandler returns a paginated category listing
func (s *Server) newsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := r.PathValue("category")

	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	offset := queryInt(r, "offset", 0)

	key := fmt.Sprintf("news-%s-%d-%d", category, limit, offset)
	var articles []domain.Article
	if s.cache.Get(ctx, key, &articles) {
		RenderJSON(w, r, http.StatusOK, articles)
		return
	}

	articles, err := s.store.ByCategory(ctx, category, limit, offset)
	if err != nil {
		lgr.Printf("[ERROR] failed to get %s news: %v", category, err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.cache.Set(ctx, key, articles, cache.TTLCategory)
	RenderJSON(w, r, http.StatusOK, articles)
}

// trendingHandler returns the top articles over the last 24h ranked by
// engagement times freshness
func (s *Server) trendingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var articles []domain.Article
	if s.cache.Get(ctx, "trending-news", &articles) {
		RenderJSON(w, r, http.StatusOK, articles)
		return
	}

	articles, err := s.store.Trending(ctx, 24*time.Hour, 15)
	if err != nil {
		lgr.Printf("[ERROR] failed to get trending news: %v", err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.cache.Set(ctx, "trending-news", articles, cache.TTLTrending)
	RenderJSON(w, r, http.StatusOK, articles)
}

// analyticsHandler returns the aggregate counters
func (s *Server) analyticsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var analytics domain.Analytics
	if s.cache.Get(ctx, "news-analytics", &analytics) {
		RenderJSON(w, r, http.StatusOK, analytics)
		return
	}

	result, err := s.store.Analytics(ctx)
	if err != nil {
		lgr.Printf("[ERROR] failed to get analytics: %v", err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.cache.Set(ctx, "news-analytics", result, cache.TTLAnalytics)
	RenderJSON(w, r, http.StatusOK, result)
}

// searchHandler runs full-text search with optional category and sentiment
// filters
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query().Get("q")
	if q == "" {
		RenderError(w, r, fmt.Errorf("search query is required"), http.StatusBadRequest)
		return
	}

	category := r.URL.Query().Get("category")
	sentiment := r.URL.Query().Get("sentiment")
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	key := fmt.Sprintf("search-%s-%s-%s-%d", q, category, sentiment, limit)
	var articles []domain.Article
	if s.cache.Get(ctx, key, &articles) {
		RenderJSON(w, r, http.StatusOK, articles)
		return
	}

	articles, err := s.store.Search(ctx, q, category, sentiment, limit)
	if err != nil {
		lgr.Printf("[ERROR] search failed for %q: %v", q, err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.cache.Set(ctx, key, articles, cache.TTLCategory)
	RenderJSON(w, r, http.StatusOK, articles)
}

// trendingTopicsHandler serves the bigram report, usually prewarmed by the
// scheduler
func (s *Server) trendingTopicsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var report domain.TrendingReport
	if s.cache.Get(ctx, "trending-topics", &report) {
		RenderJSON(w, r, http.StatusOK, report)
		return
	}

	const window = 24 * time.Hour
	articles, err := s.store.Recent(ctx, window, 500)
	if err != nil {
		lgr.Printf("[ERROR] failed to get articles for trending topics: %v", err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	report = domain.TrendingReport{
		Topics:        s.classifier.TrendingTopics(articles, window, now),
		Timeframe:     "24h",
		ArticlesTotal: len(articles),
		LastUpdated:   now,
	}
	s.cache.Set(ctx, "trending-topics", report, cache.TTLTrendingTopics)
	RenderJSON(w, r, http.StatusOK, report)
}

// queryInt parses an integer query parameter, falling back to a default on
// absent or bad input
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
