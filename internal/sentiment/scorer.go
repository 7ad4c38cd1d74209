package sentiment

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/metrics"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/normalize"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// Scorer applies the selection policy: the primary backend when it loaded,
// the lexicon otherwise, and the lexicon for any record the primary fails on.
type Scorer struct {
	primary  Backend
	fallback *Lexicon
	mode     Mode
	cache    Cache
	closers  []func() error
	logger   *zap.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLogger sets the logger for load decisions and record-level fallbacks.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// WithCache caches primary results. The lexicon is never cached.
func WithCache(c Cache) Option {
	return func(s *Scorer) { s.cache = c }
}

// NewScorer returns a scorer around primary. A nil primary yields a lexicon-only scorer.
func NewScorer(primary Backend, opts ...Option) *Scorer {
	s := &Scorer{fallback: NewLexicon(), mode: ModeLexicon}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	if primary != nil {
		s.primary = primary
		s.mode = ModeModel
	}
	return s
}

// Open decides the scoring mode once for the whole run. A model that fails to
// load is logged and the run continues lexicon-only, unless cfg.Backend is
// "model", which makes the load failure an error.
func Open(ctx context.Context, cfg config.SentimentConfig, opts ...Option) (*Scorer, error) {
	probe := NewScorer(nil, opts...)
	logger := probe.logger
	if cfg.Backend == string(ModeLexicon) {
		logger.Info("sentiment scorer ready", zap.String("mode", string(ModeLexicon)))
		return probe, nil
	}

	clf, err := NewONNXClassifier(ClassifierConfig{
		ModelPath: cfg.ModelPath,
		VocabPath: cfg.VocabPath,
		MaxTokens: cfg.MaxTokens,
		MaxChars:  cfg.MaxChars,
		Labels:    cfg.Labels,
	})
	if err != nil {
		if cfg.Backend == string(ModeModel) {
			return nil, fmt.Errorf("failed to load sentiment model: %w", err)
		}
		logger.Warn("sentiment model unavailable, scoring the whole run with the lexicon",
			zap.String("model_path", cfg.ModelPath),
			zap.Error(err))
		return probe, nil
	}

	s := NewScorer(clf, opts...)
	s.closers = append(s.closers, clf.Close)
	if s.cache == nil {
		s.cache = openCache(ctx, cfg, logger)
		s.closers = append(s.closers, s.cache.Close)
	}
	logger.Info("sentiment scorer ready",
		zap.String("mode", string(ModeModel)),
		zap.String("model_path", cfg.ModelPath))
	return s, nil
}

func openCache(ctx context.Context, cfg config.SentimentConfig, logger *zap.Logger) Cache {
	if cfg.Cache.RedisAddr != "" {
		rc, err := NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB,
			cfg.Cache.TTL, filepath.Base(cfg.ModelPath))
		if err == nil {
			return rc
		}
		logger.Warn("redis cache unavailable, using in-memory cache",
			zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
	}
	return NewMemoryCache(cfg.Cache.Size)
}

// Mode reports the backend chosen at start-up.
func (s *Scorer) Mode() Mode { return s.mode }

// Score normalizes text and scores it. Empty text is neutral with score 0 and
// reaches no backend. The bool reports a per-record fallback.
func (s *Scorer) Score(ctx context.Context, text string) (Result, bool) {
	norm := normalize.Normalize(text)
	if strings.TrimSpace(norm) == "" {
		return Result{Label: models.LabelNeutral, Score: 0, Backend: models.BackendNone}, false
	}
	if s.primary == nil {
		res, _ := s.fallback.Score(ctx, norm)
		return res, false
	}
	if s.cache != nil {
		if res, ok := s.cache.Get(ctx, norm); ok {
			return res, false
		}
	}
	res, err := s.primary.Score(ctx, norm)
	if err != nil {
		s.logger.Warn("primary sentiment backend failed, using lexicon for record",
			zap.String("backend", s.primary.Name()),
			zap.String("text", utils.Truncate(norm, 80)),
			zap.Error(err))
		metrics.ObserveFallback()
		res, _ = s.fallback.Score(ctx, norm)
		return res, true
	}
	if s.cache != nil {
		s.cache.Set(ctx, norm, res)
	}
	return res, false
}

// ScoreAll returns a scored copy of reviews and a summary. Every returned review
// has a label. Only context cancellation is an error.
func (s *Scorer) ScoreAll(ctx context.Context, reviews []models.Review) ([]models.Review, models.SentimentSummary, error) {
	out := models.CloneAll(reviews)
	summary := models.SentimentSummary{
		Mode:      string(s.mode),
		Total:     len(out),
		ByLabel:   map[models.Label]int{},
		ByBackend: map[string]int{},
	}
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}
		res, fellBack := s.Score(ctx, out[i].Text)
		out[i].SentimentLabel = res.Label
		out[i].SentimentScore = res.Score
		out[i].SentimentBackend = res.Backend
		if fellBack {
			summary.Fallbacks++
		}
		summary.ByLabel[res.Label]++
		summary.ByBackend[res.Backend]++
		metrics.ObserveSentiment(res.Backend, res.Label)
	}
	for _, r := range out {
		if r.SentimentLabel != "" {
			summary.Scored++
		}
	}
	summary.Coverage = utils.Percent(summary.Scored, summary.Total)
	summary.ByBank = groupSentiment(out, func(r models.Review) string { return r.Bank })
	summary.ByRating = groupSentiment(out, func(r models.Review) string { return strconv.Itoa(r.Rating) })
	sort.Slice(summary.ByRating, func(i, j int) bool {
		a, _ := strconv.Atoi(summary.ByRating[i].Group)
		b, _ := strconv.Atoi(summary.ByRating[j].Group)
		return a < b
	})

	s.logger.Info("sentiment scoring complete",
		zap.String("mode", summary.Mode),
		zap.Int("scored", summary.Scored),
		zap.Int("fallbacks", summary.Fallbacks),
		zap.Float64("coverage_percent", summary.Coverage))
	return out, summary, nil
}

// groupSentiment breaks labels down by key in order of first appearance.
func groupSentiment(reviews []models.Review, key func(models.Review) string) []models.GroupSentiment {
	var order []string
	groups := map[string]*models.GroupSentiment{}
	sums := map[string]float64{}
	for _, r := range reviews {
		k := key(r)
		g, ok := groups[k]
		if !ok {
			g = &models.GroupSentiment{Group: k, Counts: map[models.Label]int{}}
			groups[k] = g
			order = append(order, k)
		}
		g.Total++
		g.Counts[r.SentimentLabel]++
		sums[k] += r.SentimentScore
	}
	out := make([]models.GroupSentiment, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.MeanScore = sums[k] / float64(g.Total)
		out = append(out, *g)
	}
	return out
}

// Close releases the model session and cache connections.
func (s *Scorer) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
