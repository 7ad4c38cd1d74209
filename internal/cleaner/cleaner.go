// Package cleaner turns raw review records into the cleaned collection the
// rest of the pipeline consumes: dedup, missing-data handling, date
// normalization, and a data-quality report.
package cleaner

import (
	"errors"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/pkg/utils"
	"go.uber.org/zap"
)

// ErrEmptyInput is returned when there is nothing to clean.
var ErrEmptyInput = errors.New("no review records to clean")

// Result is the cleaned collection plus what each step did.
type Result struct {
	Reviews []models.Review
	Stats   models.CleaningStats
	Quality models.QualityReport
}

// Cleaner runs the cleaning steps in a fixed order.
type Cleaner struct {
	dedupMode DedupMode
	dates     *DateNormalizer
	kpi       config.KPIConfig
	logger    *zap.Logger
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the logger for step summaries.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cleaner) { c.logger = l }
}

// WithDateNormalizer replaces the default date parser chain.
func WithDateNormalizer(d *DateNormalizer) Option {
	return func(c *Cleaner) { c.dates = d }
}

// New returns a Cleaner configured from cfg. KPI targets only affect the quality report.
func New(cfg config.CleaningConfig, kpi config.KPIConfig, opts ...Option) *Cleaner {
	c := &Cleaner{
		dedupMode: DedupMode(cfg.DedupKey),
		dates:     NewDateNormalizer(),
		kpi:       kpi,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = utils.OrNop(c.logger)
	return c
}

// Clean deduplicates, drops unusable records, normalizes dates and reports quality.
// The input slice is not modified. Only an empty input is an error; every
// record-level problem is counted and recovered.
func (c *Cleaner) Clean(raw []models.RawReview) (*Result, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyInput
	}
	stats := models.CleaningStats{Input: len(raw)}

	unique, removed := Deduplicate(raw, c.dedupMode)
	stats.DuplicatesRemoved = removed
	c.logger.Info("deduplicated reviews",
		zap.Int("input", len(raw)),
		zap.Int("duplicates_removed", removed),
		zap.String("key", string(c.dedupMode)))

	reviews, drops := HandleMissing(unique)
	stats.MissingText = drops.MissingText
	stats.InvalidRating = drops.InvalidRating
	stats.MissingBank = drops.MissingBank
	c.logger.Info("handled missing data",
		zap.Int("missing_text", drops.MissingText),
		zap.Int("invalid_rating", drops.InvalidRating),
		zap.Int("missing_bank", drops.MissingBank),
		zap.Int("remaining", len(reviews)))

	reviews, normalized, unparsed := c.dates.NormalizeAll(reviews)
	stats.DatesNormalized = normalized
	stats.DatesUnparsed = unparsed
	c.logger.Info("normalized dates",
		zap.Int("normalized", normalized),
		zap.Int("unparsed", unparsed))

	stats.Output = len(reviews)
	quality := Quality(reviews, c.kpi)
	for _, k := range quality.KPIs {
		c.logger.Info("data quality kpi",
			zap.String("kpi", k.Name),
			zap.Float64("value", k.Value),
			zap.String("target", k.Target),
			zap.Bool("met", k.Met))
	}

	return &Result{Reviews: reviews, Stats: stats, Quality: quality}, nil
}
