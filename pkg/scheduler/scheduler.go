package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/kaitech/newspulse/pkg/cache"
	"github.com/kaitech/newspulse/pkg/classify"
	"github.com/kaitech/newspulse/pkg/domain"
)

// Scheduler manages periodic crawls, heuristic analysis passes, and cached
// report rollups
type Scheduler struct {
	store      Store
	cache      Cache
	fetcher    Fetcher
	notifier   Notifier
	classifier *classify.Classifier

	sources         []domain.Source
	breakingSources []domain.Source

	crawlInterval    time.Duration
	breakingInterval time.Duration
	analyzeInterval  time.Duration
	analyzeBatch     int
	trendingInterval time.Duration
	dailyHour        int
	maxWorkers       int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Store interface for scheduler operations
type Store interface {
	StoreArticles(ctx context.Context, articles []domain.Article) ([]domain.Article, error)
	Unanalyzed(ctx context.Context, limit int) ([]domain.Article, error)
	UpdateAnalysis(ctx context.Context, articleID int64, analysis *domain.Analysis) error
	Recent(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error)
	InsightsReport(ctx context.Context, category, timeframe string, window time.Duration, limit int) (*domain.InsightsReport, error)
	SentimentReport(ctx context.Context, category string, window time.Duration) (*domain.SentimentReport, error)
	CategoryTrends(ctx context.Context, window time.Duration) ([]domain.CategoryTrend, error)
}

// Cache interface for report rollups and breaking alert history
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	PushBreaking(ctx context.Context, articles []domain.Article)
}

// Fetcher interface for pulling articles from a source
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) ([]domain.Article, error)
}

// Notifier interface for realtime breaking news delivery
type Notifier interface {
	BroadcastBreaking(articles []domain.Article)
}

// Config holds scheduler configuration
type Config struct {
	Sources          []domain.Source
	BreakingSources  []domain.Source
	CrawlInterval    time.Duration
	BreakingInterval time.Duration
	AnalyzeInterval  time.Duration
	AnalyzeBatch     int
	TrendingInterval time.Duration
	DailyHour        int
	MaxWorkers       int
}

// NewScheduler creates a new scheduler instance
func NewScheduler(store Store, c Cache, fetcher Fetcher, notifier Notifier, classifier *classify.Classifier, cfg Config) *Scheduler {
	if cfg.CrawlInterval == 0 {
		cfg.CrawlInterval = time.Minute
	}
	if cfg.BreakingInterval == 0 {
		cfg.BreakingInterval = 5 * time.Minute
	}
	if cfg.AnalyzeInterval == 0 {
		cfg.AnalyzeInterval = 5 * time.Minute
	}
	if cfg.AnalyzeBatch == 0 {
		cfg.AnalyzeBatch = 50
	}
	if cfg.TrendingInterval == 0 {
		cfg.TrendingInterval = 15 * time.Minute
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 5
	}

	return &Scheduler{
		store:            store,
		cache:            c,
		fetcher:          fetcher,
		notifier:         notifier,
		classifier:       classifier,
		sources:          cfg.Sources,
		breakingSources:  cfg.BreakingSources,
		crawlInterval:    cfg.CrawlInterval,
		breakingInterval: cfg.BreakingInterval,
		analyzeInterval:  cfg.AnalyzeInterval,
		analyzeBatch:     cfg.AnalyzeBatch,
		trendingInterval: cfg.TrendingInterval,
		dailyHour:        cfg.DailyHour,
		maxWorkers:       cfg.MaxWorkers,
	}
}

// Start begins the scheduler workers
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.crawlWorker(ctx)

	if len(s.breakingSources) > 0 {
		s.wg.Add(1)
		go s.breakingWorker(ctx)
	}

	s.wg.Add(1)
	go s.analyzeWorker(ctx)

	s.wg.Add(1)
	go s.trendingWorker(ctx)

	s.wg.Add(1)
	go s.dailyWorker(ctx)

	lgr.Printf("[INFO] scheduler started with crawl interval %v, breaking interval %v, analyze interval %v",
		s.crawlInterval, s.breakingInterval, s.analyzeInterval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// crawlWorker periodically crawls all configured sources
func (s *Scheduler) crawlWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.crawlInterval)
	defer ticker.Stop()

	// run immediately on start
	s.crawlAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.crawlAll(ctx)
		}
	}
}

// crawlAll fetches every source concurrently, classifies the results, and
// stores each source's batch. A failing source only loses its own batch.
func (s *Scheduler) crawlAll(ctx context.Context) {
	lgr.Printf("[INFO] crawling %d sources", len(s.sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)

	for _, src := range s.sources {
		g.Go(func() error {
			s.crawlSource(ctx, src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		lgr.Printf("[ERROR] crawl worker error: %v", err)
	}
	lgr.Printf("[INFO] crawl completed")
}

// crawlSource fetches and stores new articles for a single source
func (s *Scheduler) crawlSource(ctx context.Context, src domain.Source) {
	lgr.Printf("[DEBUG] crawling source: %s", src.Name)

	articles, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		lgr.Printf("[ERROR] failed to fetch source %s: %v", src.Name, err)
		return
	}

	now := time.Now().UTC()
	for i := range articles {
		a := &articles[i]
		a.Category = s.classifier.NormalizeCategory(a.Category)
		scores := s.classifier.Classify(a.Title, a.Content, a.PublishedAt, now)
		a.IsBreaking = scores.IsBreaking
		a.Sentiment = scores.Sentiment
		a.EngagementScore = scores.EngagementScore
		a.FreshnessScore = scores.FreshnessScore
	}

	inserted, err := s.store.StoreArticles(ctx, articles)
	if err != nil {
		lgr.Printf("[ERROR] failed to store articles from %s: %v", src.Name, err)
		return
	}

	var breaking []domain.Article
	for _, a := range inserted {
		if a.IsBreaking {
			breaking = append(breaking, a)
		}
	}
	s.publishBreaking(ctx, breaking)

	if len(inserted) > 0 {
		lgr.Printf("[INFO] added %d new articles from source: %s", len(inserted), src.Name)
	}
}

// breakingWorker runs the intensive crawl against the secondary source list
func (s *Scheduler) breakingWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.breakingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.crawlBreaking(ctx)
		}
	}
}

// crawlBreaking fetches the secondary sources and keeps only breaking-flagged
// items, stamped with the fixed breaking scores
func (s *Scheduler) crawlBreaking(ctx context.Context) {
	lgr.Printf("[DEBUG] breaking crawl over %d sources", len(s.breakingSources))

	now := time.Now().UTC()
	var batch []domain.Article
	for _, src := range s.breakingSources {
		articles, err := s.fetcher.Fetch(ctx, src)
		if err != nil {
			lgr.Printf("[WARN] failed to fetch breaking source %s: %v", src.Name, err)
			continue
		}
		for _, a := range articles {
			if !s.classifier.IsBreaking(a.Title, a.Content) {
				continue
			}
			a.Category = "breaking"
			a.Source = "Breaking News Feed"
			a.IsBreaking = true
			a.Sentiment = s.classifier.Sentiment(a.Title, a.Content)
			a.EngagementScore = 0.9
			a.FreshnessScore = 1.0
			if a.PublishedAt.IsZero() {
				a.PublishedAt = now
			}
			batch = append(batch, a)
		}
	}

	if len(batch) == 0 {
		return
	}

	inserted, err := s.store.StoreArticles(ctx, batch)
	if err != nil {
		lgr.Printf("[ERROR] failed to store breaking articles: %v", err)
		return
	}
	s.publishBreaking(ctx, inserted)

	if len(inserted) > 0 {
		lgr.Printf("[INFO] breaking crawl added %d articles", len(inserted))
	}
}

// publishBreaking records newly stored breaking articles in the alert history
// and pushes them to connected clients
func (s *Scheduler) publishBreaking(ctx context.Context, articles []domain.Article) {
	if len(articles) == 0 {
		return
	}
	s.cache.PushBreaking(ctx, articles)
	if s.notifier != nil {
		s.notifier.BroadcastBreaking(articles)
	}
}

// analyzeWorker periodically runs the heuristic analyzer over unanalyzed rows
func (s *Scheduler) analyzeWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.analyzeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.analyzePending(ctx)
		}
	}
}

// analyzePending analyzes one batch of unanalyzed articles. A failing row is
// logged and skipped, it will be retried next pass.
func (s *Scheduler) analyzePending(ctx context.Context) {
	articles, err := s.store.Unanalyzed(ctx, s.analyzeBatch)
	if err != nil {
		lgr.Printf("[ERROR] failed to get unanalyzed articles: %v", err)
		return
	}

	if len(articles) == 0 {
		return
	}

	lgr.Printf("[INFO] analyzing %d articles", len(articles))

	now := time.Now().UTC()
	analyzed := 0
	for _, a := range articles {
		analysis := s.classifier.Analyze(a.Title, a.Content, now)
		if err := s.store.UpdateAnalysis(ctx, a.ID, analysis); err != nil {
			lgr.Printf("[WARN] failed to save analysis for article %d: %v", a.ID, err)
			continue
		}
		analyzed++
	}

	lgr.Printf("[INFO] analysis pass completed, %d of %d articles", analyzed, len(articles))
}

// trendingWorker periodically refreshes the cached trending-topics report
func (s *Scheduler) trendingWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.trendingInterval)
	defer ticker.Stop()

	// warm the cache on start
	s.refreshTrending(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshTrending(ctx)
		}
	}
}

// refreshTrending recomputes trending topics over the last 24h and caches the
// report
func (s *Scheduler) refreshTrending(ctx context.Context) {
	const window = 24 * time.Hour

	articles, err := s.store.Recent(ctx, window, 500)
	if err != nil {
		lgr.Printf("[ERROR] failed to get recent articles for trending: %v", err)
		return
	}

	now := time.Now().UTC()
	report := domain.TrendingReport{
		Topics:        s.classifier.TrendingTopics(articles, window, now),
		Timeframe:     "24h",
		ArticlesTotal: len(articles),
		LastUpdated:   now,
	}
	s.cache.Set(ctx, "trending-topics", report, cache.TTLTrendingTopics)
	lgr.Printf("[DEBUG] trending topics refreshed, %d topics from %d articles", len(report.Topics), len(articles))
}

// dailyWorker fires once a day at the configured UTC hour
func (s *Scheduler) dailyWorker(ctx context.Context) {
	defer s.wg.Done()

	for {
		timer := time.NewTimer(untilNextHour(time.Now().UTC(), s.dailyHour))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.rollupDaily(ctx)
		}
	}
}

// rollupDaily builds the daily insight report and caches it for the day
func (s *Scheduler) rollupDaily(ctx context.Context) {
	const window = 24 * time.Hour

	insights, err := s.store.InsightsReport(ctx, "", "24h", window, 100)
	if err != nil {
		lgr.Printf("[ERROR] failed to build daily insights: %v", err)
		return
	}
	sentiment, err := s.store.SentimentReport(ctx, "", window)
	if err != nil {
		lgr.Printf("[ERROR] failed to build daily sentiment: %v", err)
		return
	}
	trends, err := s.store.CategoryTrends(ctx, window)
	if err != nil {
		lgr.Printf("[ERROR] failed to build daily category trends: %v", err)
		return
	}

	now := time.Now().UTC()
	report := domain.DailyReport{
		Date:        now.Format("2006-01-02"),
		Insights:    *insights,
		Sentiment:   *sentiment,
		Trending:    trends,
		GeneratedAt: now,
	}
	s.cache.Set(ctx, "daily-insights", report, cache.TTLDailyInsights)
	lgr.Printf("[INFO] daily insight report generated for %s", report.Date)
}

// untilNextHour returns the duration from now to the next occurrence of the
// given UTC hour
func untilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
