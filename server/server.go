package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/kaitech/newspulse/pkg/classify"
	"github.com/kaitech/newspulse/pkg/domain"
)

// Server represents HTTP server instance
type Server struct {
	config     ConfigProvider
	store      Store
	cache      Cache
	classifier *classify.Classifier
	ws         http.Handler
	version    string
	debug      bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Store interface for server operations
type Store interface {
	Breaking(ctx context.Context, limit int) ([]domain.Article, error)
	ByCategory(ctx context.Context, category string, limit, offset int) ([]domain.Article, error)
	Trending(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error)
	Recent(ctx context.Context, window time.Duration, limit int) ([]domain.Article, error)
	Search(ctx context.Context, q, category, sentiment string, limit int) ([]domain.Article, error)
	Analytics(ctx context.Context) (*domain.Analytics, error)
	InsightsReport(ctx context.Context, category, timeframe string, window time.Duration, limit int) (*domain.InsightsReport, error)
	SentimentReport(ctx context.Context, category string, window time.Duration) (*domain.SentimentReport, error)
	BreakingCandidates(ctx context.Context, window time.Duration, minProbability float64, limit int) ([]domain.Article, error)
}

// Cache interface for the cache-aside reads
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance. The ws handler serves the realtime
// channel and may be nil in setups without the notifier.
func New(cfg ConfigProvider, store Store, c Cache, classifier *classify.Classifier, ws http.Handler, version string, debug bool) *Server {
	s := &Server{
		config:     cfg,
		store:      store,
		cache:      c,
		classifier: classifier,
		ws:         ws,
		version:    version,
		debug:      debug,
		router:     routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("newspulse", "kaitech", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.healthHandler)

	s.router.Mount("/api").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /health", s.healthHandler)
		r.HandleFunc("GET /breaking-news", s.breakingHandler)
		r.HandleFunc("GET /news/{category}", s.newsByCategoryHandler)
		r.HandleFunc("GET /trending", s.trendingHandler)
		r.HandleFunc("GET /analytics", s.analyticsHandler)
		r.HandleFunc("GET /search", s.searchHandler)
		r.HandleFunc("GET /trending-topics", s.trendingTopicsHandler)

		// analyzer surface
		r.HandleFunc("GET /insights", s.insightsHandler)
		r.HandleFunc("GET /insights/{category}", s.insightsHandler)
		r.HandleFunc("GET /sentiment", s.sentimentHandler)
		r.HandleFunc("GET /sentiment/{category}", s.sentimentHandler)
		r.HandleFunc("POST /analyze", s.analyzeHandler)
		r.HandleFunc("GET /breaking-predictions", s.breakingPredictionsHandler)
	})

	if s.ws != nil {
		s.router.Handle("GET /ws", s.ws)
	}
}

// healthHandler returns the fixed liveness payload
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "newspulse",
		"version": s.version,
		"time":    time.Now().UTC(),
	})
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
