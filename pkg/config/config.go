// Package config loads the application configuration from a YAML file with
// environment variable expansion. Every section has working defaults, so an
// empty or missing file yields a runnable configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kaitech/newspulse/pkg/classify"
	"github.com/kaitech/newspulse/pkg/domain"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:newspulse.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Redis struct {
		URL string `yaml:"url" json:"url" jsonschema:"default=redis://localhost:6379,description=Redis connection URL"`
	} `yaml:"redis" json:"redis" jsonschema:"description=Cache configuration"`

	Fetcher struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Per-source fetch timeout"`
		UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=NewsPulse-Crawler/1.0,description=User agent for feed requests"`
	} `yaml:"fetcher" json:"fetcher" jsonschema:"description=Feed fetcher configuration"`

	Schedule struct {
		CrawlInterval    time.Duration `yaml:"crawl_interval" json:"crawl_interval" jsonschema:"default=1m,description=Full crawl interval"`
		BreakingInterval time.Duration `yaml:"breaking_interval" json:"breaking_interval" jsonschema:"default=5m,description=Breaking news crawl interval"`
		AnalyzeInterval  time.Duration `yaml:"analyze_interval" json:"analyze_interval" jsonschema:"default=5m,description=Analysis pass interval"`
		AnalyzeBatch     int           `yaml:"analyze_batch" json:"analyze_batch" jsonschema:"default=50,description=Articles analyzed per pass"`
		TrendingInterval time.Duration `yaml:"trending_interval" json:"trending_interval" jsonschema:"default=15m,description=Trending topics refresh interval"`
		DailyHour        int           `yaml:"daily_hour" json:"daily_hour" jsonschema:"default=6,description=UTC hour for the daily insight rollup"`
		MaxWorkers       int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Maximum concurrent source fetches"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Sources         []domain.Source `yaml:"sources" json:"sources" jsonschema:"description=News sources to crawl"`
	BreakingSources []domain.Source `yaml:"breaking_sources" json:"breaking_sources" jsonschema:"description=Secondary sources for the intensive breaking crawl"`

	Lexicon classify.Lexicon `yaml:"lexicon" json:"lexicon" jsonschema:"description=Classifier keyword table overrides"`
}

// Load reads configuration from a YAML file. An empty path skips the file
// and returns defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// expand environment variables
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	setDefaults(&cfg)
	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:newspulse.db?cache=shared&mode=rwc"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379"
	}

	if cfg.Fetcher.Timeout == 0 {
		cfg.Fetcher.Timeout = 10 * time.Second
	}
	if cfg.Fetcher.UserAgent == "" {
		cfg.Fetcher.UserAgent = "NewsPulse-Crawler/1.0"
	}

	if cfg.Schedule.CrawlInterval == 0 {
		cfg.Schedule.CrawlInterval = time.Minute
	}
	if cfg.Schedule.BreakingInterval == 0 {
		cfg.Schedule.BreakingInterval = 5 * time.Minute
	}
	if cfg.Schedule.AnalyzeInterval == 0 {
		cfg.Schedule.AnalyzeInterval = 5 * time.Minute
	}
	if cfg.Schedule.AnalyzeBatch == 0 {
		cfg.Schedule.AnalyzeBatch = 50
	}
	if cfg.Schedule.TrendingInterval == 0 {
		cfg.Schedule.TrendingInterval = 15 * time.Minute
	}
	if cfg.Schedule.DailyHour == 0 {
		cfg.Schedule.DailyHour = 6
	}
	if cfg.Schedule.MaxWorkers == 0 {
		cfg.Schedule.MaxWorkers = 5
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultSources()
	}
	if len(cfg.BreakingSources) == 0 {
		cfg.BreakingSources = defaultBreakingSources()
	}
}

// applyEnv overrides config values from the environment variables the
// service historically recognized
func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Listen = ":" + port
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
	if interval := os.Getenv("CRAWL_INTERVAL"); interval != "" {
		// historically milliseconds
		if ms, err := strconv.Atoi(interval); err == nil && ms > 0 {
			cfg.Schedule.CrawlInterval = time.Duration(ms) * time.Millisecond
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Fetcher.Timeout < time.Second {
		return fmt.Errorf("fetcher timeout must be at least 1 second")
	}
	if cfg.Schedule.MaxWorkers < 1 {
		return fmt.Errorf("schedule.max_workers must be at least 1")
	}
	if cfg.Schedule.AnalyzeBatch < 1 {
		return fmt.Errorf("schedule.analyze_batch must be at least 1")
	}
	if cfg.Schedule.DailyHour < 0 || cfg.Schedule.DailyHour > 23 {
		return fmt.Errorf("schedule.daily_hour must be between 0 and 23")
	}

	for _, src := range append(append([]domain.Source{}, cfg.Sources...), cfg.BreakingSources...) {
		if src.Name == "" || src.URL == "" {
			return fmt.Errorf("source entries require name and url")
		}
		if src.Type != "" && src.Type != "rss" && src.Type != "html" {
			return fmt.Errorf("source %s: type must be rss or html", src.Name)
		}
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetLexicon returns the default lexicon with config overrides applied
func (c *Config) GetLexicon() classify.Lexicon {
	return classify.DefaultLexicon().Merge(c.Lexicon)
}

func defaultSources() []domain.Source {
	return []domain.Source{
		{Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml", Type: "rss", Category: "world"},
		{Name: "Reuters", URL: "https://www.reuters.com/arc/outboundfeeds/rss/category/world/", Type: "rss", Category: "world"},
		{Name: "TechCrunch", URL: "https://techcrunch.com/feed/", Type: "rss", Category: "technology"},
		{Name: "CNN Business", URL: "http://rss.cnn.com/rss/money_latest.rss", Type: "rss", Category: "business"},
		{Name: "ESPN", URL: "https://www.espn.com/espn/rss/news", Type: "rss", Category: "sports"},
		{Name: "Gaming News", URL: "https://www.gamespot.com/feeds/news/", Type: "rss", Category: "gaming"},
	}
}

func defaultBreakingSources() []domain.Source {
	return []domain.Source{
		{Name: "Breaking News Feed", URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Type: "rss", Category: "breaking"},
		{Name: "Breaking News Feed", URL: "https://www.reuters.com/arc/outboundfeeds/rss/category/breakingviews/", Type: "rss", Category: "breaking"},
		{Name: "Breaking News Feed", URL: "https://rss.cnn.com/rss/edition.rss", Type: "rss", Category: "breaking"},
	}
}
