package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaitech/newspulse/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{DSN: "file:" + filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testArticle(url, title string, published time.Time) domain.Article {
	return domain.Article{
		Title:           title,
		URL:             url,
		Content:         "some description",
		PublishedAt:     published,
		Source:          "Test Source",
		Category:        "world",
		Sentiment:       "neutral",
		EngagementScore: 0.5,
		FreshnessScore:  0.8,
	}
}

func TestStore_StoreArticles_DedupByURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inserted, err := s.StoreArticles(ctx, []domain.Article{testArticle("http://example.com/a", "First", now)})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.NotZero(t, inserted[0].ID)

	// same url in a later cycle, even with a different title, is skipped
	inserted, err = s.StoreArticles(ctx, []domain.Article{testArticle("http://example.com/a", "First Updated", now)})
	require.NoError(t, err)
	assert.Empty(t, inserted)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStore_StoreArticles_BatchWithDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := []domain.Article{
		testArticle("http://example.com/1", "One", now),
		testArticle("http://example.com/2", "Two", now),
		testArticle("http://example.com/1", "One Again", now),
	}

	inserted, err := s.StoreArticles(ctx, batch)
	require.NoError(t, err)
	require.Len(t, inserted, 2, "duplicate within the batch skipped, siblings stored")
	assert.Equal(t, "http://example.com/1", inserted[0].URL)
	assert.Equal(t, "http://example.com/2", inserted[1].URL)
}

func TestStore_StoreArticles_EmptyBatch(t *testing.T) {
	s := newTestStore(t)

	inserted, err := s.StoreArticles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, inserted)
}

func TestStore_Breaking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	regular1 := testArticle("http://example.com/r1", "Regular One", now)
	regular2 := testArticle("http://example.com/r2", "Regular Two", now)
	breaking := testArticle("http://example.com/b", "Breaking Story", now)
	breaking.IsBreaking = true

	_, err := s.StoreArticles(ctx, []domain.Article{regular1, breaking, regular2})
	require.NoError(t, err)

	got, err := s.Breaking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Breaking Story", got[0].Title)
	assert.True(t, got[0].IsBreaking)
}

func TestStore_ByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var batch []domain.Article
	for i := 0; i < 5; i++ {
		a := testArticle("http://example.com/tech/"+string(rune('a'+i)), "Tech", now.Add(-time.Duration(i)*time.Hour))
		a.Category = "technology"
		batch = append(batch, a)
	}
	other := testArticle("http://example.com/sports", "Sports", now)
	other.Category = "sports"
	batch = append(batch, other)

	_, err := s.StoreArticles(ctx, batch)
	require.NoError(t, err)

	t.Run("filters by category newest first", func(t *testing.T) {
		got, err := s.ByCategory(ctx, "technology", 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 5)
		for i := 1; i < len(got); i++ {
			assert.True(t, !got[i].PublishedAt.After(got[i-1].PublishedAt))
		}
	})

	t.Run("pagination", func(t *testing.T) {
		page1, err := s.ByCategory(ctx, "technology", 2, 0)
		require.NoError(t, err)
		page2, err := s.ByCategory(ctx, "technology", 2, 2)
		require.NoError(t, err)
		require.Len(t, page1, 2)
		require.Len(t, page2, 2)
		assert.NotEqual(t, page1[0].URL, page2[0].URL)
	})
}

func TestStore_Trending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	low := testArticle("http://example.com/low", "Low", now.Add(-time.Hour))
	low.EngagementScore, low.FreshnessScore = 0.5, 0.4

	high := testArticle("http://example.com/high", "High", now.Add(-time.Hour))
	high.EngagementScore, high.FreshnessScore = 0.9, 1.0

	old := testArticle("http://example.com/old", "Old", now.Add(-48*time.Hour))
	old.EngagementScore, old.FreshnessScore = 1.0, 1.0

	_, err := s.StoreArticles(ctx, []domain.Article{low, high, old})
	require.NoError(t, err)

	got, err := s.Trending(ctx, 24*time.Hour, 15)
	require.NoError(t, err)
	require.Len(t, got, 2, "articles outside the 24h window excluded")
	assert.Equal(t, "High", got[0].Title, "ranked by engagement*freshness")
	assert.Equal(t, "Low", got[1].Title)
}

func TestStore_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	quantum1 := testArticle("http://example.com/q1", "Quantum computing hits milestone", now.Add(-2*time.Hour))
	quantum1.Content = "researchers announced a quantum computing breakthrough"
	quantum1.Category = "technology"
	quantum1.Sentiment = "positive"

	quantum2 := testArticle("http://example.com/q2", "Markets react to quantum computing news", now.Add(-time.Hour))
	quantum2.Category = "business"

	unrelated := testArticle("http://example.com/u", "Local bakery wins award", now)

	_, err := s.StoreArticles(ctx, []domain.Article{quantum1, quantum2, unrelated})
	require.NoError(t, err)

	t.Run("matches title and content", func(t *testing.T) {
		got, err := s.Search(ctx, "quantum computing", "", "", 20)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, a := range got {
			assert.NotEqual(t, "http://example.com/u", a.URL)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		got, err := s.Search(ctx, "quantum", "technology", "", 20)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "http://example.com/q1", got[0].URL)
	})

	t.Run("sentiment filter", func(t *testing.T) {
		got, err := s.Search(ctx, "quantum", "", "positive", 20)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "positive", got[0].Sentiment)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := s.Search(ctx, "zeppelin", "", "", 20)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty query", func(t *testing.T) {
		got, err := s.Search(ctx, "   ", "", "", 20)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("quotes in query do not break fts syntax", func(t *testing.T) {
		_, err := s.Search(ctx, `"quantum*`, "", "", 20)
		require.NoError(t, err)
	})
}

func TestStore_Search_RankedByRelevanceThenRecency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	weak := testArticle("http://example.com/weak", "Morning roundup of industry news", now)
	weak.Content = "a short note mentions fusion once among other items"

	strongOld := testArticle("http://example.com/strong-old", "Fusion reactor sets new fusion record", now.Add(-6*time.Hour))
	strongOld.Content = "the fusion experiment sustained a fusion reaction for a full minute"

	strongNew := testArticle("http://example.com/strong-new", "Fusion reactor sets new fusion record", now.Add(-time.Hour))
	strongNew.Content = "the fusion experiment sustained a fusion reaction for a full minute"

	_, err := s.StoreArticles(ctx, []domain.Article{weak, strongOld, strongNew})
	require.NoError(t, err)

	got, err := s.Search(ctx, "fusion", "", "", 20)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "http://example.com/strong-new", got[0].URL, "better match first, newer article wins the rank tie")
	assert.Equal(t, "http://example.com/strong-old", got[1].URL)
	assert.Equal(t, "http://example.com/weak", got[2].URL, "single mention ranks last")
}

func TestStore_AnalysisLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.StoreArticles(ctx, []domain.Article{
		testArticle("http://example.com/1", "One", now.Add(-time.Hour)),
		testArticle("http://example.com/2", "Two", now),
	})
	require.NoError(t, err)

	pending, err := s.Unanalyzed(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Two", pending[0].Title, "most recent first")

	analysis := &domain.Analysis{
		Sentiment:           domain.SentimentDetail{Score: 0.2, Label: "positive", Confidence: 0.2},
		Topics:              []domain.Topic{{Topic: "technology", Confidence: 0.3}},
		BreakingProbability: 0.4,
		ReadabilityScore:    0.7,
		AnalyzedAt:          now,
	}
	require.NoError(t, s.UpdateAnalysis(ctx, pending[0].ID, analysis))

	remaining, err := s.Unanalyzed(ctx, 50)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "One", remaining[0].Title)

	analyzed, err := s.Analyzed(ctx, "", 24*time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, analyzed, 1)
	require.NotNil(t, analyzed[0].Analysis)
	assert.Equal(t, "positive", analyzed[0].Analysis.Sentiment.Label)
	assert.InDelta(t, 0.4, analyzed[0].Analysis.BreakingProbability, 0.0001)
	require.NotNil(t, analyzed[0].AnalyzedAt)
}

func TestStore_BreakingCandidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.StoreArticles(ctx, []domain.Article{
		testArticle("http://example.com/hot", "Hot", now.Add(-30*time.Minute)),
		testArticle("http://example.com/mild", "Mild", now.Add(-30*time.Minute)),
		testArticle("http://example.com/cold", "Cold", now.Add(-30*time.Minute)),
	})
	require.NoError(t, err)

	pending, err := s.Unanalyzed(ctx, 50)
	require.NoError(t, err)

	probs := map[string]float64{"Hot": 0.8, "Mild": 0.4, "Cold": 0.1}
	for _, a := range pending {
		require.NoError(t, s.UpdateAnalysis(ctx, a.ID, &domain.Analysis{
			BreakingProbability: probs[a.Title],
			AnalyzedAt:          now,
		}))
	}

	got, err := s.BreakingCandidates(ctx, 2*time.Hour, 0.3, 20)
	require.NoError(t, err)
	require.Len(t, got, 2, "candidates below the threshold excluded")
	assert.Equal(t, "Hot", got[0].Title, "ranked by probability")
	assert.Equal(t, "Mild", got[1].Title)
}

func TestStore_Analytics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tech := testArticle("http://example.com/t", "Tech", now.Add(-time.Hour))
	tech.Category = "technology"
	tech.Sentiment = "positive"

	sports := testArticle("http://example.com/s", "Sports", now.Add(-2*time.Hour))
	sports.Category = "sports"
	sports.Sentiment = "negative"

	breaking := testArticle("http://example.com/b", "Breaking", now.Add(-time.Hour))
	breaking.IsBreaking = true

	_, err := s.StoreArticles(ctx, []domain.Article{tech, sports, breaking})
	require.NoError(t, err)

	analytics, err := s.Analytics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), analytics.BreakingCount)
	assert.Len(t, analytics.CategoryCounts, 3)
	assert.NotEmpty(t, analytics.SentimentDistribution)
	assert.False(t, analytics.LastUpdated.IsZero())

	var sentiments []string
	for _, sc := range analytics.SentimentDistribution {
		sentiments = append(sentiments, sc.Sentiment)
	}
	assert.Contains(t, sentiments, "positive")
	assert.Contains(t, sentiments, "negative")
}

func TestStore_CategoryTrends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var batch []domain.Article
	for i := 0; i < 3; i++ {
		a := testArticle("http://example.com/tech/"+string(rune('a'+i)), "Tech", now.Add(-time.Hour))
		a.Category = "technology"
		a.EngagementScore = 0.8
		batch = append(batch, a)
	}
	solo := testArticle("http://example.com/health", "Health", now.Add(-time.Hour))
	solo.Category = "health"
	solo.EngagementScore = 0.5
	batch = append(batch, solo)

	_, err := s.StoreArticles(ctx, batch)
	require.NoError(t, err)

	trends, err := s.CategoryTrends(ctx, 6*time.Hour)
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, "technology", trends[0].Topic, "ranked by count * avg engagement")
	assert.Equal(t, int64(3), trends[0].ArticleCount)
	assert.InDelta(t, 0.8, trends[0].AvgEngagement, 0.0001)
	assert.InDelta(t, 2.4, trends[0].TrendScore, 0.0001)
}

func TestStore_Ping(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
