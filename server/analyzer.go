package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/kaitech/newspulse/pkg/domain"
)

// timeframes maps the accepted insights vocabulary to durations
var timeframes = map[string]time.Duration{
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// insightsHandler returns the most engaging analyzed articles for a category
// and timeframe
func (s *Server) insightsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := r.PathValue("category")

	timeframe := r.URL.Query().Get("timeframe")
	window, ok := timeframes[timeframe]
	if !ok {
		timeframe, window = "24h", 24*time.Hour
	}

	limit := queryInt(r, "limit", 10)
	if limit > 100 {
		limit = 100
	}

	report, err := s.store.InsightsReport(ctx, category, timeframe, window, limit)
	if err != nil {
		lgr.Printf("[ERROR] failed to build insights: %v", err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, report)
}

// sentimentHandler returns the sentiment distribution for a category
func (s *Server) sentimentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := r.PathValue("category")

	report, err := s.store.SentimentReport(ctx, category, 24*time.Hour)
	if err != nil {
		lgr.Printf("[ERROR] failed to build sentiment report: %v", err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, report)
}

// analyzeRequest is the POST /analyze payload
type analyzeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// analyzeHandler runs the heuristic analyzer on caller-supplied text
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	if req.Title == "" && req.Content == "" {
		RenderError(w, r, fmt.Errorf("title or content is required"), http.StatusBadRequest)
		return
	}

	analysis := s.classifier.Analyze(req.Title, req.Content, time.Now().UTC())
	RenderJSON(w, r, http.StatusOK, analysis)
}

// breakingPredictionsHandler ranks fresh analyzed articles by their breaking
// probability
func (s *Server) breakingPredictionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	candidates, err := s.store.BreakingCandidates(ctx, 2*time.Hour, 0.3, 20)
	if err != nil {
		lgr.Printf("[ERROR] failed to get breaking candidates: %v", err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	predictions := make([]domain.BreakingPrediction, 0, len(candidates))
	for _, a := range candidates {
		if a.Analysis == nil {
			continue
		}
		predictions = append(predictions, domain.BreakingPrediction{
			Title:               a.Title,
			Category:            a.Category,
			Source:              a.Source,
			PublishedAt:         a.PublishedAt,
			BreakingProbability: a.Analysis.BreakingProbability,
			EngagementScore:     a.Analysis.EngagementScore,
			Confidence:          0.7*a.Analysis.BreakingProbability + 0.3*a.Analysis.EngagementScore,
		})
	}

	RenderJSON(w, r, http.StatusOK, map[string]interface{}{
		"predictions":  predictions,
		"count":        len(predictions),
		"generated_at": time.Now().UTC(),
	})
}
