package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/kaitech/newspulse/pkg/cache"
	"github.com/kaitech/newspulse/pkg/classify"
	"github.com/kaitech/newspulse/pkg/config"
	"github.com/kaitech/newspulse/pkg/feed"
	"github.com/kaitech/newspulse/pkg/notify"
	"github.com/kaitech/newspulse/pkg/scheduler"
	"github.com/kaitech/newspulse/pkg/store"
	"github.com/kaitech/newspulse/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" description:"config file, defaults apply when omitted"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	lgr.Printf("[INFO] starting newspulse version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		lgr.Printf("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		lgr.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	lgr.Printf("[INFO] shutdown complete")
}

// run wires the dependencies and blocks until the context is canceled
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := store.New(store.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	redisCache, err := cache.New(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisCache.Close()

	classifier := classify.New(cfg.GetLexicon())
	fetcher := feed.NewFetcher(cfg.Fetcher.Timeout, cfg.Fetcher.UserAgent)
	notifier := notify.New(redisCache)

	sched := scheduler.NewScheduler(db, redisCache, fetcher, notifier, classifier, scheduler.Config{
		Sources:          cfg.Sources,
		BreakingSources:  cfg.BreakingSources,
		CrawlInterval:    cfg.Schedule.CrawlInterval,
		BreakingInterval: cfg.Schedule.BreakingInterval,
		AnalyzeInterval:  cfg.Schedule.AnalyzeInterval,
		AnalyzeBatch:     cfg.Schedule.AnalyzeBatch,
		TrendingInterval: cfg.Schedule.TrendingInterval,
		DailyHour:        cfg.Schedule.DailyHour,
		MaxWorkers:       cfg.Schedule.MaxWorkers,
	})
	sched.Start(ctx)

	srv := server.New(cfg, db, redisCache, classifier, notifier, revision, opts.Debug)
	err = srv.Run(ctx)

	// shutdown order: stop pushing to clients, then the producers, storage
	// closes via the defers
	notifier.CloseAll()
	sched.Stop()

	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = append(logOpts, lgr.Debug)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
