package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/reviewkey"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

const (
	docType   = "review"
	batchSize = 500
	// bleve rejects fuzzy queries above this distance.
	maxFuzziness = 2
)

// reviewDoc is the indexed form of a review. Field names follow the json tags.
type reviewDoc struct {
	Text      string   `json:"text"`
	Bank      string   `json:"bank"`
	Rating    int      `json:"rating"`
	Date      string   `json:"date,omitempty"`
	Source    string   `json:"source,omitempty"`
	Sentiment string   `json:"sentiment,omitempty"`
	Score     float64  `json:"score"`
	Backend   string   `json:"backend,omitempty"`
	Themes    []string `json:"themes,omitempty"`
}

// BleveType implements bleve's Classifier so documents use the review mapping.
func (reviewDoc) BleveType() string { return docType }

func toDoc(r models.Review) reviewDoc {
	doc := reviewDoc{
		Text:      r.Text,
		Bank:      r.Bank,
		Rating:    r.Rating,
		Source:    r.Source,
		Sentiment: string(r.SentimentLabel),
		Score:     r.SentimentScore,
		Backend:   r.SentimentBackend,
		Themes:    r.Themes,
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	return doc
}

// BleveIndex implements ReviewIndex using Bleve.
type BleveIndex struct {
	index     bleve.Index
	logger    *zap.Logger
	suggester *Suggester
}

var (
	_ ReviewIndex    = (*BleveIndex)(nil)
	_ TermDictionary = (*BleveIndex)(nil)
)

// Option configures a BleveIndex.
type Option func(*BleveIndex)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *BleveIndex) { b.logger = l }
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase and stop words, no stemming, so a query
	// for "crashes" does not pull in every "crash".
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", text)
	for _, field := range []string{"bank", "date", "source", "sentiment", "backend", "themes"} {
		docMapping.AddFieldMappingsAt(field, bleve.NewKeywordFieldMapping())
	}
	docMapping.AddFieldMappingsAt("rating", bleve.NewNumericFieldMapping())
	docMapping.AddFieldMappingsAt("score", bleve.NewNumericFieldMapping())

	im.AddDocumentMapping(docType, docMapping)
	im.DefaultType = docType
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a review index at path. An existing index is
// reopened as is; use Rebuild to start from an empty one.
func NewBleveIndex(path string, opts ...Option) (*BleveIndex, error) {
	b := &BleveIndex{}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger)

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		b.index, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", err)
		}
	} else {
		b.index, err = bleve.New(path, newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create Bleve index: %w", err)
		}
	}
	b.suggester = NewSuggester(b)
	return b, nil
}

// Rebuild removes any index at path and creates an empty one. Each pipeline
// run indexes the full snapshot, so reviews from earlier runs must not linger.
func Rebuild(path string, opts ...Option) (*BleveIndex, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}
	return NewBleveIndex(path, opts...)
}

// IndexReviews adds reviews in batches keyed by reviewkey.ID and returns how
// many documents were written. Reviews sharing an ID overwrite each other.
func (b *BleveIndex) IndexReviews(ctx context.Context, reviews []models.Review) (int, error) {
	indexed := 0
	batch := b.index.NewBatch()
	flush := func() error {
		if batch.Size() == 0 {
			return nil
		}
		n := batch.Size()
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("write index batch: %w", err)
		}
		indexed += n
		batch.Reset()
		return nil
	}

	for _, r := range reviews {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := batch.Index(reviewkey.ID(r), toDoc(r)); err != nil {
			return indexed, fmt.Errorf("index review: %w", err)
		}
		if batch.Size() >= batchSize {
			if err := flush(); err != nil {
				return indexed, err
			}
		}
	}
	if err := flush(); err != nil {
		return indexed, err
	}
	b.suggester.Invalidate()
	b.logger.Debug("Indexed reviews", zap.Int("documents", indexed))
	return indexed, nil
}

// Search runs query against review text, restricted by the filters in opts.
// A blank query with filters lists the matching reviews; a blank query with
// no filters lists everything. Hits are ordered by score, then by ID.
func (b *BleveIndex) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(query, opts), limit, 0, false)
	req.Fields = []string{"*"}
	req.SortBy([]string{"-_score", "_id"})
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := &SearchResult{Query: query, Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, hit := range res.Hits {
		out.Hits = append(out.Hits, Hit{ID: hit.ID, Score: hit.Score, Review: fromFields(hit.Fields)})
	}

	if res.Total == 0 && strings.TrimSpace(query) != "" {
		corrected, changed, err := b.suggester.Correct(query)
		if err != nil {
			b.logger.Warn("Query suggestion failed", zap.String("query", query), zap.Error(err))
		} else if changed {
			out.Suggestions = []string{corrected}
		}
	}
	return out, nil
}

func buildQuery(query string, opts SearchOptions) blevequery.Query {
	var must []blevequery.Query
	if terms := queryTerms(query); len(terms) > 0 {
		must = append(must, textQuery(query, terms, opts))
	}
	if opts.Bank != "" {
		must = append(must, termQuery("bank", opts.Bank))
	}
	if opts.Sentiment != "" {
		must = append(must, termQuery("sentiment", string(opts.Sentiment)))
	}
	if opts.Theme != "" {
		must = append(must, termQuery("themes", opts.Theme))
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	}
	return bleve.NewConjunctionQuery(must...)
}

// textQuery matches any query term. Fuzzy terms are built by hand because
// FuzzyQuery skips analysis, so terms arrive lowercased from queryTerms.
func textQuery(query string, terms []string, opts SearchOptions) blevequery.Query {
	var q blevequery.Query
	if opts.Fuzziness > 0 {
		fuzziness := min(opts.Fuzziness, maxFuzziness)
		fuzzy := make([]blevequery.Query, 0, len(terms))
		for _, t := range terms {
			fq := bleve.NewFuzzyQuery(t)
			fq.SetFuzziness(fuzziness)
			fq.SetField("text")
			fuzzy = append(fuzzy, fq)
		}
		q = bleve.NewDisjunctionQuery(fuzzy...)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField("text")
		q = mq
	}

	if opts.PhraseBoost > 1 && len(terms) > 1 {
		pq := bleve.NewMatchPhraseQuery(query)
		pq.SetField("text")
		pq.SetBoost(opts.PhraseBoost)
		q = bleve.NewDisjunctionQuery(q, pq)
	}
	return q
}

func termQuery(field, value string) blevequery.Query {
	tq := bleve.NewTermQuery(value)
	tq.SetField(field)
	return tq
}

// fromFields rebuilds a review from stored hit fields. Bleve returns numbers
// as float64 and single-valued arrays as a bare value.
func fromFields(fields map[string]interface{}) models.Review {
	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}
	num := func(name string) float64 {
		f, _ := fields[name].(float64)
		return f
	}

	r := models.Review{
		Text:             str("text"),
		Bank:             str("bank"),
		Rating:           int(num("rating")),
		Source:           str("source"),
		SentimentLabel:   models.Label(str("sentiment")),
		SentimentScore:   num("score"),
		SentimentBackend: str("backend"),
		Themes:           []string{},
	}
	if d := str("date"); d != "" {
		r.Date = &d
	}
	switch v := fields["themes"].(type) {
	case string:
		r.Themes = append(r.Themes, v)
	case []interface{}:
		for _, t := range v {
			if s, ok := t.(string); ok {
				r.Themes = append(r.Themes, s)
			}
		}
	}
	return r
}

// Terms returns every indexed review-text term with its document frequency.
func (b *BleveIndex) Terms() (map[string]int, error) {
	dict, err := b.index.FieldDict("text")
	if err != nil {
		return nil, fmt.Errorf("read term dictionary: %w", err)
	}
	defer dict.Close()

	terms := make(map[string]int)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("read term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		terms[entry.Term] = int(entry.Count)
	}
	return terms, nil
}

// DocCount returns the number of reviews in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
