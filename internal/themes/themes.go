// Package themes extracts per-bank TF-IDF keywords, groups them into a fixed
// theme taxonomy, and tags reviews with the themes they mention.
package themes

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/metrics"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/normalize"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// ErrEmptyTaxonomy is returned when an extractor is built without themes.
var ErrEmptyTaxonomy = errors.New("theme taxonomy is empty")

const (
	topThemes   = 5
	topKeywords = 10
)

// Result holds tagged reviews and the per-bank keyword and theme maps.
type Result struct {
	Reviews []models.Review
	Banks   []models.BankThemes
}

// Extractor runs keyword extraction and theme tagging per bank.
type Extractor struct {
	vectorizer  Vectorizer
	taxonomy    []Theme
	generalSize int
	workers     int
	logger      *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithTaxonomy replaces the theme list.
func WithTaxonomy(t []Theme) Option {
	return func(e *Extractor) { e.taxonomy = t }
}

// New builds an extractor. A non-empty cfg.Taxonomy replaces the built-in themes.
func New(cfg config.ThemesConfig, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		vectorizer: Vectorizer{
			MinDF:       cfg.MinDF,
			MaxDF:       cfg.MaxDF,
			MaxFeatures: cfg.MaxFeatures,
			NgramMax:    cfg.NgramMax,
		},
		taxonomy:    DefaultTaxonomy(),
		generalSize: cfg.GeneralSize,
		workers:     cfg.Workers,
	}
	if len(cfg.Taxonomy) > 0 {
		e.taxonomy = TaxonomyFromConfig(cfg.Taxonomy)
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	if len(e.taxonomy) == 0 {
		return nil, ErrEmptyTaxonomy
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e, nil
}

// bankThemes is the intermediate per-bank outcome before reviews are tagged.
type bankThemes struct {
	keywords []models.KeywordScore
	themes   []models.ThemeTerms
}

// Extract returns a new slice of reviews with Themes set, in input order,
// plus keyword and theme maps per bank in order of first appearance.
func (e *Extractor) Extract(ctx context.Context, reviews []models.Review) (*Result, error) {
	banks, groups := models.GroupByBank(reviews)
	perBank := make([]bankThemes, len(banks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, bank := range banks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perBank[i] = e.extractBank(groups[bank])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(banks))
	for i, bank := range banks {
		index[bank] = i
	}
	out := models.CloneAll(reviews)
	counts := make([]map[string]int, len(banks))
	for i := range counts {
		counts[i] = map[string]int{}
	}
	for i := range out {
		bi := index[out[i].Bank]
		out[i].Themes = Tag(normalize.Normalize(out[i].Text), perBank[bi].themes)
		for _, th := range out[i].Themes {
			counts[bi][th]++
		}
	}

	res := &Result{Reviews: out, Banks: make([]models.BankThemes, len(banks))}
	for i, bank := range banks {
		bt := models.BankThemes{
			Bank:      bank,
			Keywords:  perBank[i].keywords,
			Themes:    perBank[i].themes,
			TopThemes: rankThemes(perBank[i].themes, counts[i]),
		}
		if bt.Keywords == nil {
			bt.Keywords = []models.KeywordScore{}
		}
		if bt.Themes == nil {
			bt.Themes = []models.ThemeTerms{}
		}
		res.Banks[i] = bt
		e.logger.Info("themes extracted",
			zap.String("bank", bank),
			zap.Int("reviews", len(groups[bank])),
			zap.Int("keywords", len(bt.Keywords)),
			zap.Int("themes", len(bt.Themes)),
			zap.Strings("top_keywords", TopTerms(bt.Keywords, topKeywords)))
	}
	metrics.ObserveRecords("themes", "tagged", len(out))
	return res, nil
}

func (e *Extractor) extractBank(reviews []models.Review) bankThemes {
	docs := make([]string, len(reviews))
	for i, r := range reviews {
		docs[i] = normalize.Normalize(r.Text)
	}
	keywords := e.vectorizer.Rank(docs)
	terms := make([]string, len(keywords))
	for i, k := range keywords {
		terms[i] = k.Term
	}
	return bankThemes{
		keywords: keywords,
		themes:   Cluster(terms, e.taxonomy, e.generalSize),
	}
}

// Tag returns the themes whose mapped terms appear in normalized text, in map order.
// The result is never nil.
func Tag(text string, themes []models.ThemeTerms) []string {
	tags := []string{}
	for _, th := range themes {
		for _, term := range th.Terms {
			if strings.Contains(text, term) {
				tags = append(tags, th.Theme)
				break
			}
		}
	}
	return tags
}

// rankThemes orders themes by tagged review count, keeping map order for ties.
func rankThemes(themes []models.ThemeTerms, counts map[string]int) []models.ThemeCount {
	out := make([]models.ThemeCount, 0, len(themes))
	for _, th := range themes {
		out = append(out, models.ThemeCount{Theme: th.Theme, Reviews: counts[th.Theme]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Reviews > out[j].Reviews })
	if len(out) > topThemes {
		out = out[:topThemes]
	}
	return out
}

// TopTerms returns the first n keyword terms.
func TopTerms(keywords []models.KeywordScore, n int) []string {
	if len(keywords) < n {
		n = len(keywords)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = keywords[i].Term
	}
	return out
}
