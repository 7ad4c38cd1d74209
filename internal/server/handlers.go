package server

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/hyperjump/reviewlens/internal/keyword"
	"github.com/hyperjump/reviewlens/internal/models"
)

// BankView gathers everything the latest report says about one bank.
type BankView struct {
	Bank      string                 `json:"bank"`
	Insights  *models.BankInsights   `json:"insights"`
	Themes    *models.BankThemes     `json:"themes,omitempty"`
	Ratings   *models.RatingStats    `json:"ratings,omitempty"`
	Sentiment *models.SentimentShare `json:"sentiment,omitempty"`
}

// StatusView is the /api/v1/status payload.
type StatusView struct {
	Storage        *models.StorageStats `json:"storage"`
	IndexedReviews *uint64              `json:"indexed_reviews,omitempty"`
	LastRun        *RunInfo             `json:"last_run,omitempty"`
}

// RunInfo identifies a run without its full report.
type RunInfo struct {
	RunID      string `json:"run_id"`
	InputPath  string `json:"input_path"`
	FinishedAt string `json:"finished_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// latest writes the error response itself when no report can be served.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*models.RunReport, bool) {
	report, err := s.reports.Latest()
	if errors.Is(err, ErrNoReport) {
		s.respondError(w, r, http.StatusNotFound, "no report yet: run the pipeline first")
		return nil, false
	}
	if err != nil {
		s.logger.Error("load report failed", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return report, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.latest(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	report, ok := s.latest(w, r)
	if !ok {
		return
	}
	bank := chi.URLParam(r, "bank")
	insights := report.Insights.Bank(bank)
	if insights == nil {
		s.respondError(w, r, http.StatusNotFound, "bank not found")
		return
	}

	view := BankView{Bank: bank, Insights: insights}
	for i := range report.Themes {
		if report.Themes[i].Bank == bank {
			view.Themes = &report.Themes[i]
		}
	}
	cmp := &report.Insights.Comparison
	for i := range cmp.Ratings {
		if cmp.Ratings[i].Bank == bank {
			view.Ratings = &cmp.Ratings[i]
		}
	}
	for i := range cmp.Sentiment {
		if cmp.Sentiment[i].Bank == bank {
			view.Sentiment = &cmp.Sentiment[i]
		}
	}
	s.respondJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "storage not configured")
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("status: store stats failed", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	view := StatusView{Storage: stats}
	if s.index != nil {
		if n, err := s.index.DocCount(); err == nil {
			view.IndexedReviews = &n
		}
	}
	if report, err := s.reports.Latest(); err == nil {
		view.LastRun = &RunInfo{
			RunID:      report.RunID,
			InputPath:  report.InputPath,
			FinishedAt: report.FinishedAt.Format(time.RFC3339),
		}
	}
	s.respondJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "search index not configured")
		return
	}
	q := r.URL.Query()
	opts := keyword.SearchOptions{
		Bank:      q.Get("bank"),
		Sentiment: models.Label(q.Get("sentiment")),
		Theme:     q.Get("theme"),
	}
	if opts.Sentiment != "" && !validLabel(opts.Sentiment) {
		s.respondError(w, r, http.StatusBadRequest, "sentiment must be positive, negative or neutral")
		return
	}
	var err error
	if opts.Limit, err = intParam(q, "limit"); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Fuzziness, err = intParam(q, "fuzziness"); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if opts.PhraseBoost, err = floatParam(q, "phrase_boost"); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Debug("search request", zap.String("query", q.Get("q")), zap.String("bank", opts.Bank))
	res, err := s.index.Search(r.Context(), q.Get("q"), opts)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, r, http.StatusOK, res)
}

// intParam parses a non-negative integer query parameter; absent means 0.
func floatParam(q url.Values, name string) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("invalid " + name)
	}
	return f, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

func validLabel(l models.Label) bool {
	for _, known := range models.Labels {
		if l == known {
			return true
		}
	}
	return false
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, r, status, map[string]string{"error": message})
}
