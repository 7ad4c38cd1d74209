// Package pipeline runs the review analytics stages in order: extract, clean,
// sentiment, themes, insights, persist, index and export.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/reviewlens/internal/cleaner"
	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/export"
	"github.com/hyperjump/reviewlens/internal/extract"
	"github.com/hyperjump/reviewlens/internal/insights"
	"github.com/hyperjump/reviewlens/internal/keyword"
	"github.com/hyperjump/reviewlens/internal/metrics"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/sentiment"
	"github.com/hyperjump/reviewlens/internal/storage"
	"github.com/hyperjump/reviewlens/internal/themes"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// Stage names used in logs, errors and metrics.
const (
	StageExtract   = "extract"
	StageClean     = "clean"
	StageSentiment = "sentiment"
	StageThemes    = "themes"
	StageInsights  = "insights"
	StagePersist   = "persist"
	StageIndex     = "index"
	StageExport    = "export"
)

// Output is what a run produced.
type Output struct {
	Reviews   []models.Review
	Report    *models.RunReport
	Artifacts *export.Artifacts
}

// Pipeline wires the stages together. Stages run strictly one after another;
// each consumes the previous stage's output and never mutates it.
type Pipeline struct {
	cfg       *config.Config
	extractor *extract.Extractor
	cleaner   *cleaner.Cleaner
	themes    *themes.Extractor
	analyzer  *insights.Analyzer
	scorer    *sentiment.Scorer
	store     storage.Store
	registry  *prometheus.Registry
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger passed to every stage.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithScorer injects a sentiment scorer. The caller keeps ownership and
// closes it; otherwise Run opens one from config and closes it.
func WithScorer(s *sentiment.Scorer) Option {
	return func(p *Pipeline) { p.scorer = s }
}

// WithStore injects a store. The caller keeps ownership and closes it;
// otherwise Run opens one from config and closes it.
func WithStore(s storage.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithRegistry sets the registry whose metrics a run writes next to its
// artifacts. Defaults to a registry of every reviewlens collector.
func WithRegistry(r *prometheus.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// New builds a pipeline from cfg.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg, extractor: extract.NewExtractor(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = utils.OrNop(p.logger)
	if p.registry == nil {
		p.registry = metrics.InitRegistry()
	}

	p.cleaner = cleaner.New(cfg.Cleaning, cfg.KPI, cleaner.WithLogger(p.logger))
	te, err := themes.New(cfg.Themes, themes.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create theme extractor: %w", err)
	}
	p.themes = te
	p.analyzer = insights.New(cfg.Insights, insights.WithLogger(p.logger))
	return p, nil
}

// stage runs fn, records its duration and prefixes any error with the stage name.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	dur := time.Since(start)
	metrics.ObserveStage(name, dur)
	if err != nil {
		p.logger.Error("stage failed", zap.String("stage", name), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Debug("stage complete", zap.String("stage", name), zap.Duration("duration", dur))
	return nil
}

// Clean extracts and cleans inputPath without scoring anything.
func (p *Pipeline) Clean(ctx context.Context, inputPath string) (*cleaner.Result, error) {
	var raw []models.RawReview
	if err := p.stage(StageExtract, func() (err error) {
		raw, err = p.extractor.Extract(inputPath)
		return err
	}); err != nil {
		return nil, err
	}
	metrics.ObserveRecords(StageExtract, "read", len(raw))

	var res *cleaner.Result
	if err := p.stage(StageClean, func() (err error) {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err = p.cleaner.Clean(raw)
		return err
	}); err != nil {
		return nil, err
	}
	metrics.ObserveRecords(StageClean, "kept", res.Stats.Output)
	metrics.ObserveRecords(StageClean, "dropped", res.Stats.Input-res.Stats.Output)
	return res, nil
}

// Run executes every stage over inputPath. Persistence is skipped when
// storage is disabled, indexing when no index path is set, and export when
// no output directory is set. Exporting also leaves the run's metrics in
// <output dir>/metrics.prom. Any stage error aborts the run.
func (p *Pipeline) Run(ctx context.Context, inputPath string) (*Output, error) {
	report := &models.RunReport{
		RunID:     uuid.New().String(),
		InputPath: inputPath,
		StartedAt: p.now(),
	}
	logger := p.logger.With(zap.String("run_id", report.RunID))
	logger.Info("pipeline started", zap.String("input", inputPath))

	cleaned, err := p.Clean(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	report.Cleaning = cleaned.Stats
	report.Quality = cleaned.Quality

	scorer := p.scorer
	if scorer == nil {
		scorer, err = sentiment.Open(ctx, p.cfg.Sentiment, sentiment.WithLogger(p.logger))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", StageSentiment, err)
		}
		defer func() {
			if err := scorer.Close(); err != nil {
				logger.Warn("failed to close sentiment scorer", zap.Error(err))
			}
		}()
	}

	var scored []models.Review
	if err := p.stage(StageSentiment, func() (err error) {
		scored, report.Sentiment, err = scorer.ScoreAll(ctx, cleaned.Reviews)
		return err
	}); err != nil {
		return nil, err
	}

	var themed *themes.Result
	if err := p.stage(StageThemes, func() (err error) {
		themed, err = p.themes.Extract(ctx, scored)
		return err
	}); err != nil {
		return nil, err
	}
	reviews := themed.Reviews
	report.Themes = themed.Banks

	if err := p.stage(StageInsights, func() error {
		report.Insights = *p.analyzer.Analyze(reviews)
		return nil
	}); err != nil {
		return nil, err
	}

	if !p.cfg.Storage.Disabled {
		if err := p.stage(StagePersist, func() error { return p.persist(ctx, reviews, report) }); err != nil {
			return nil, err
		}
	}

	if path := p.cfg.Storage.SearchIndexPath; path != "" {
		if err := p.stage(StageIndex, func() error { return p.index(ctx, path, reviews) }); err != nil {
			return nil, err
		}
		if report.Storage != nil && p.cfg.Storage.Driver != "mysql" {
			if n, err := storage.DiskUsage(p.cfg.Storage.DatabasePath, path); err == nil {
				report.Storage.DiskBytes = n
			}
		}
	}

	report.KPIs = collectKPIs(report, reviews, p.cfg.KPI)
	for _, k := range report.KPIs {
		metrics.ObserveKPI(k)
		logger.Info("kpi",
			zap.String("name", k.Name),
			zap.Float64("value", k.Value),
			zap.String("target", k.Target),
			zap.Bool("met", k.Met))
	}
	report.FinishedAt = p.now()

	out := &Output{Reviews: reviews, Report: report}
	if dir := p.cfg.Output.Dir; dir != "" {
		if err := p.stage(StageExport, func() (err error) {
			out.Artifacts, err = export.WriteAll(dir, reviews, report)
			return err
		}); err != nil {
			return nil, err
		}
		// Written after the export stage so its duration is included.
		path := filepath.Join(dir, metrics.TextfileName)
		if err := metrics.WriteTextfile(path, p.registry); err != nil {
			return nil, fmt.Errorf("%s: %w", StageExport, err)
		}
		out.Artifacts.Metrics = path
	}

	logger.Info("pipeline finished",
		zap.Int("reviews", len(reviews)),
		zap.Int("banks", len(report.Themes)),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	return out, nil
}

// persist upserts the bank catalog, inserts reviews and records what the
// store now holds. A store opened here is always closed before returning.
func (p *Pipeline) persist(ctx context.Context, reviews []models.Review, report *models.RunReport) (err error) {
	store := p.store
	if store == nil {
		store, err = storage.Open(p.cfg.Storage, storage.WithLogger(p.logger))
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close store: %w", cerr)
			}
		}()
	}

	bankIDs, err := store.UpsertBanks(ctx, p.cfg.Banks)
	if err != nil {
		return err
	}
	res, err := store.InsertReviews(ctx, reviews, bankIDs)
	if err != nil {
		return err
	}
	report.Persisted = &res

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	report.Storage = stats
	p.logger.Info("reviews persisted",
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("unknown_bank", res.UnknownBank),
		zap.Int("total_in_store", stats.TotalReviews))
	return nil
}

// index rebuilds the search index from this run's reviews.
func (p *Pipeline) index(ctx context.Context, path string, reviews []models.Review) error {
	idx, err := keyword.Rebuild(path, keyword.WithLogger(p.logger))
	if err != nil {
		return err
	}
	defer idx.Close()

	n, err := idx.IndexReviews(ctx, reviews)
	if err != nil {
		return err
	}
	metrics.ObserveRecords(StageIndex, "indexed", n)
	p.logger.Info("search index rebuilt", zap.String("path", path), zap.Int("documents", n))
	return nil
}
