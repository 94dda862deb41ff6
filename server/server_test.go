package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaitech/newspulse/pkg/classify"
	"github.com/kaitech/newspulse/pkg/domain"
)

// mockStore delegates to func fields, methods without a func return empty
type mockStore struct {
	BreakingFunc           func(ctx context.Context, limit int) ([]domain.Article, error)
	ByCategoryFunc         func(ctx context.Context, category string, limit, offset int) ([]domain.Article, error)
	TrendingFunc           func(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error)
	RecentFunc             func(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error)
	SearchFunc             func(ctx context.Context, q, category, sentiment string, limit int) ([]domain.Article, error)
	AnalyticsFunc          func(ctx context.Context) (*domain.Analytics, error)
	InsightsReportFunc     func(ctx context.Context, category, timeframe string, window time.Duration, limit int) (*domain.InsightsReport, error)
	SentimentReportFunc    func(ctx context.Context, category string, window time.Duration) (*domain.SentimentReport, error)
	BreakingCandidatesFunc func(ctx context.Context, window time.Duration, minProbability float64, limit int) ([]domain.Article, error)
}

func (m *mockStore) Breaking(ctx context.Context, limit int) ([]domain.Article, error) {
	if m.BreakingFunc != nil {
		return m.BreakingFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockStore) ByCategory(ctx context.Context, category string, limit, offset int) ([]domain.Article, error) {
	if m.ByCategoryFunc != nil {
		return m.ByCategoryFunc(ctx, category, limit, offset)
	}
	return nil, nil
}

func (m *mockStore) Trending(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error) {
	if m.TrendingFunc != nil {
		return m.TrendingFunc(ctx, window, limit)
	}
	return nil, nil
}

func (m *mockStore) Recent(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, window, limit)
	}
	return nil, nil
}

func (m *mockStore) Search(ctx context.Context, q, category, sentiment string, limit int) ([]domain.Article, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, q, category, sentiment, limit)
	}
	return nil, nil
}

func (m *mockStore) Analytics(ctx context.Context) (*domain.Analytics, error) {
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx)
	}
	return &domain.Analytics{}, nil
}

func (m *mockStore) InsightsReport(ctx context.Context, category, timeframe string, window time.Duration, limit int) (*domain.InsightsReport, error) {
	if m.InsightsReportFunc != nil {
		return m.InsightsReportFunc(ctx, category, timeframe, window, limit)
	}
	return &domain.InsightsReport{}, nil
}

func (m *mockStore) SentimentReport(ctx context.Context, category string, window time.Duration) (*domain.SentimentReport, error) {
	if m.SentimentReportFunc != nil {
		return m.SentimentReportFunc(ctx, category, window)
	}
	return &domain.SentimentReport{}, nil
}

func (m *mockStore) BreakingCandidates(ctx context.Context, window time.Duration, minProbability float64, limit int) ([]domain.Article, error) {
	if m.BreakingCandidatesFunc != nil {
		return m.BreakingCandidatesFunc(ctx, window, minProbability, limit)
	}
	return nil, nil
}

// memCache is a map-backed cache keeping values as marshaled JSON, close
// enough to the real thing for handler tests
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(payload, dest) == nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = payload
	c.ttls[key] = ttl
}

type stubConfig struct{}

func (stubConfig) GetServerConfig() (string, time.Duration) { return "127.0.0.1:0", 30 * time.Second }

// newTestServer wires a server with mocks behind an httptest listener
func newTestServer(t *testing.T, store *mockStore, c *memCache) *httptest.Server {
	t.Helper()
	if c == nil {
		c = newMemCache()
	}
	s := New(stubConfig{}, store, c, classify.New(classify.DefaultLexicon()), nil, "test", false)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, dest interface{}) int {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test url
	require.NoError(t, err)
	defer resp.Body.Close()
	if dest != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, &mockStore{}, nil)

	for _, path := range []string{"/health", "/api/health"} {
		t.Run(path, func(t *testing.T) {
			var body map[string]interface{}
			code := getJSON(t, srv.URL+path, &body)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "ok", body["status"])
			assert.Equal(t, "newspulse", body["service"])
		})
	}
}

func TestServer_Breaking(t *testing.T) {
	calls := 0
	store := &mockStore{
		BreakingFunc: func(_ context.Context, limit int) ([]domain.Article, error) {
			calls++
			assert.Equal(t, 10, limit)
			return []domain.Article{{ID: 1, Title: "Breaking: wildfire spreads", IsBreaking: true}}, nil
		},
	}
	c := newMemCache()
	srv := newTestServer(t, store, c)

	var articles []domain.Article
	code := getJSON(t, srv.URL+"/api/breaking-news", &articles)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, articles, 1)
	assert.True(t, articles[0].IsBreaking)

	// second request comes from cache
	code = getJSON(t, srv.URL+"/api/breaking-news", &articles)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 60*time.Second, c.ttls["breaking-news"])
}

func TestServer_NewsByCategory(t *testing.T) {
	var gotLimit, gotOffset int
	var gotCategory string
	store := &mockStore{
		ByCategoryFunc: func(_ context.Context, category string, limit, offset int) ([]domain.Article, error) {
			gotCategory, gotLimit, gotOffset = category, limit, offset
			return []domain.Article{{ID: 1, Category: category}}, nil
		},
	}
	srv := newTestServer(t, store, nil)

	t.Run("defaults", func(t *testing.T) {
		var articles []domain.Article
		code := getJSON(t, srv.URL+"/api/news/technology", &articles)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "technology", gotCategory)
		assert.Equal(t, 20, gotLimit)
		assert.Equal(t, 0, gotOffset)
	})

	t.Run("limit capped at 100", func(t *testing.T) {
		code := getJSON(t, srv.URL+"/api/news/sports?limit=500&offset=40", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 100, gotLimit)
		assert.Equal(t, 40, gotOffset)
	})

	t.Run("bad limit falls back to default", func(t *testing.T) {
		code := getJSON(t, srv.URL+"/api/news/sports?limit=nope", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 20, gotLimit)
	})
}

func TestServer_Trending(t *testing.T) {
	store := &mockStore{
		TrendingFunc: func(_ context.Context, window time.Duration, limit int) ([]domain.Article, error) {
			assert.Equal(t, 24*time.Hour, window)
			assert.Equal(t, 15, limit)
			return []domain.Article{{ID: 7, EngagementScore: 0.9, FreshnessScore: 1.0}}, nil
		},
	}
	c := newMemCache()
	srv := newTestServer(t, store, c)

	var articles []domain.Article
	code := getJSON(t, srv.URL+"/api/trending", &articles)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, articles, 1)
	assert.Equal(t, 2*time.Minute, c.ttls["trending-news"])
}

func TestServer_Analytics(t *testing.T) {
	store := &mockStore{
		AnalyticsFunc: func(_ context.Context) (*domain.Analytics, error) {
			return &domain.Analytics{TotalArticles: 42, BreakingCount: 3}, nil
		},
	}
	srv := newTestServer(t, store, nil)

	var analytics domain.Analytics
	code := getJSON(t, srv.URL+"/api/analytics", &analytics)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(42), analytics.TotalArticles)
	assert.Equal(t, int64(3), analytics.BreakingCount)
}

func TestServer_Search(t *testing.T) {
	store := &mockStore{
		SearchFunc: func(_ context.Context, q, category, sentiment string, limit int) ([]domain.Article, error) {
			assert.Equal(t, "quantum computing", q)
			assert.Equal(t, "technology", category)
			assert.Equal(t, "positive", sentiment)
			assert.Equal(t, 5, limit)
			return []domain.Article{{ID: 1, Title: "Quantum computing advances"}}, nil
		},
	}
	srv := newTestServer(t, store, nil)

	t.Run("missing q returns 400", func(t *testing.T) {
		var body map[string]string
		code := getJSON(t, srv.URL+"/api/search", &body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, body["error"], "required")
	})

	t.Run("filters passed through", func(t *testing.T) {
		var articles []domain.Article
		code := getJSON(t, srv.URL+"/api/search?q=quantum+computing&category=technology&sentiment=positive&limit=5", &articles)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, articles, 1)
	})
}

func TestServer_TrendingTopics(t *testing.T) {
	now := time.Now().UTC()
	recent := make([]domain.Article, 0, 5)
	for i := 0; i < 5; i++ {
		recent = append(recent, domain.Article{Title: "Quantum computing breakthrough announced", PublishedAt: now.Add(-time.Hour)})
	}
	store := &mockStore{
		RecentFunc: func(_ context.Context, window time.Duration, limit int) ([]domain.Article, error) {
			return recent, nil
		},
	}
	c := newMemCache()
	srv := newTestServer(t, store, c)

	var report domain.TrendingReport
	code := getJSON(t, srv.URL+"/api/trending-topics", &report)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "24h", report.Timeframe)
	assert.Equal(t, 5, report.ArticlesTotal)
	require.NotEmpty(t, report.Topics)
	assert.Equal(t, 5, report.Topics[0].Count)
	assert.Equal(t, 15*time.Minute, c.ttls["trending-topics"])

	t.Run("served from cache when prewarmed", func(t *testing.T) {
		warmed := newMemCache()
		warmed.Set(context.Background(), "trending-topics",
			domain.TrendingReport{Timeframe: "24h", ArticlesTotal: 99}, 15*time.Minute)
		srv2 := newTestServer(t, &mockStore{}, warmed)

		var cached domain.TrendingReport
		code := getJSON(t, srv2.URL+"/api/trending-topics", &cached)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 99, cached.ArticlesTotal)
	})
}

func TestServer_Insights(t *testing.T) {
	var gotCategory, gotTimeframe string
	var gotWindow time.Duration
	var gotLimit int
	store := &mockStore{
		InsightsReportFunc: func(_ context.Context, category, timeframe string, window time.Duration, limit int) (*domain.InsightsReport, error) {
			gotCategory, gotTimeframe, gotWindow, gotLimit = category, timeframe, window, limit
			return &domain.InsightsReport{Timeframe: timeframe, Category: "all"}, nil
		},
	}
	srv := newTestServer(t, store, nil)

	t.Run("defaults", func(t *testing.T) {
		code := getJSON(t, srv.URL+"/api/insights", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, gotCategory)
		assert.Equal(t, "24h", gotTimeframe)
		assert.Equal(t, 24*time.Hour, gotWindow)
		assert.Equal(t, 10, gotLimit)
	})

	t.Run("category and timeframe", func(t *testing.T) {
		code := getJSON(t, srv.URL+"/api/insights/technology?timeframe=7d&limit=3", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "technology", gotCategory)
		assert.Equal(t, "7d", gotTimeframe)
		assert.Equal(t, 7*24*time.Hour, gotWindow)
		assert.Equal(t, 3, gotLimit)
	})

	t.Run("unknown timeframe falls back to 24h", func(t *testing.T) {
		code := getJSON(t, srv.URL+"/api/insights?timeframe=1y", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "24h", gotTimeframe)
		assert.Equal(t, 24*time.Hour, gotWindow)
	})
}

func TestServer_Sentiment(t *testing.T) {
	store := &mockStore{
		SentimentReportFunc: func(_ context.Context, category string, window time.Duration) (*domain.SentimentReport, error) {
			assert.Equal(t, 24*time.Hour, window)
			name := category
			if name == "" {
				name = "all"
			}
			return &domain.SentimentReport{Category: name, TotalArticles: 10}, nil
		},
	}
	srv := newTestServer(t, store, nil)

	var report domain.SentimentReport
	code := getJSON(t, srv.URL+"/api/sentiment/sports", &report)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sports", report.Category)

	code = getJSON(t, srv.URL+"/api/sentiment", &report)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "all", report.Category)
}

func TestServer_Analyze(t *testing.T) {
	srv := newTestServer(t, &mockStore{}, nil)

	t.Run("empty input returns 400", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(`{"title":"","content":""}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad json returns 400", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(`{not json`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("analyzes supplied text", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/analyze", "application/json",
			strings.NewReader(`{"title":"Tech success story","content":"Great growth and a positive breakthrough for the market."}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var analysis domain.Analysis
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&analysis))
		assert.Equal(t, "positive", analysis.Sentiment.Label)
		assert.NotEmpty(t, analysis.Keywords)
	})
}

func TestServer_BreakingPredictions(t *testing.T) {
	now := time.Now().UTC()
	store := &mockStore{
		BreakingCandidatesFunc: func(_ context.Context, window time.Duration, minProbability float64, limit int) ([]domain.Article, error) {
			assert.Equal(t, 2*time.Hour, window)
			assert.InDelta(t, 0.3, minProbability, 0.001)
			assert.Equal(t, 20, limit)
			return []domain.Article{
				{Title: "likely breaking", Category: "world", PublishedAt: now,
					Analysis: &domain.Analysis{BreakingProbability: 0.5, EngagementScore: 0.8}},
				{Title: "no analysis yet", Category: "world", PublishedAt: now},
			}, nil
		},
	}
	srv := newTestServer(t, store, nil)

	var body struct {
		Predictions []domain.BreakingPrediction `json:"predictions"`
		Count       int                         `json:"count"`
	}
	code := getJSON(t, srv.URL+"/api/breaking-predictions", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, body.Count, "rows without analysis are skipped")
	assert.InDelta(t, 0.7*0.5+0.3*0.8, body.Predictions[0].Confidence, 0.001)
}

func TestServer_StoreError(t *testing.T) {
	store := &mockStore{
		BreakingFunc: func(_ context.Context, _ int) ([]domain.Article, error) {
			return nil, assert.AnError
		},
	}
	srv := newTestServer(t, store, nil)

	var body map[string]string
	code := getJSON(t, srv.URL+"/api/breaking-news", &body)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotEmpty(t, body["error"])
}
