// Package keyword maintains a full-text index over enriched reviews.
package keyword

import (
	"context"

	"github.com/hyperjump/reviewlens/internal/models"
)

const (
	// DefaultLimit is the page size when SearchOptions.Limit is unset.
	DefaultLimit = 20
	// MaxLimit caps SearchOptions.Limit.
	MaxLimit = 100
)

// SearchOptions narrows and tunes a review search. The zero value searches
// every bank with exact term matching.
type SearchOptions struct {
	Bank      string
	Sentiment models.Label
	Theme     string
	Limit     int
	// Fuzziness is the maximum edit distance per query term (1 or 2).
	// Zero disables fuzzy matching.
	Fuzziness int
	// PhraseBoost multiplies the score of reviews containing the whole query
	// as a phrase. Values <= 1 disable the phrase clause.
	PhraseBoost float64
}

// Hit is one matching review.
type Hit struct {
	ID     string        `json:"id"`
	Score  float64       `json:"score"`
	Review models.Review `json:"review"`
}

// SearchResult is a page of hits. Suggestions carries a corrected query when
// nothing matched and a close spelling exists in the index.
type SearchResult struct {
	Query       string   `json:"query"`
	Total       uint64   `json:"total"`
	Hits        []Hit    `json:"hits"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ReviewIndex defines review indexing and search.
type ReviewIndex interface {
	IndexReviews(ctx context.Context, reviews []models.Review) (int, error)
	Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error)
	// DocCount returns the number of reviews in the index.
	DocCount() (uint64, error)
	Close() error
}

// TermDictionary exposes the indexed review vocabulary with document
// frequencies. It is what the Suggester corrects queries against.
type TermDictionary interface {
	Terms() (map[string]int, error)
}
