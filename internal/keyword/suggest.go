package keyword

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// minCorrectable is the shortest query term the Suggester will rewrite.
// Shorter terms are within edit distance of too much of the vocabulary.
const minCorrectable = 3

// Suggester proposes "did you mean" corrections for query terms that are
// absent from the index vocabulary.
type Suggester struct {
	dict        TermDictionary
	maxDistance int
	minFreq     int

	mu    sync.RWMutex
	terms map[string]int
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the largest edit distance a suggestion may have.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms found in fewer than f reviews.
func WithMinFrequency(f int) SuggesterOption {
	return func(s *Suggester) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// NewSuggester returns a Suggester over dict. The vocabulary is loaded on
// first use and kept until Invalidate.
func NewSuggester(dict TermDictionary, opts ...SuggesterOption) *Suggester {
	s := &Suggester{dict: dict, maxDistance: 2, minFreq: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the cached vocabulary so the next call reloads it.
func (s *Suggester) Invalidate() {
	s.mu.Lock()
	s.terms = nil
	s.mu.Unlock()
}

func (s *Suggester) vocabulary() (map[string]int, error) {
	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()
	if terms != nil {
		return terms, nil
	}

	terms, err := s.dict.Terms()
	if err != nil {
		return nil, err
	}
	if terms == nil {
		terms = map[string]int{}
	}
	s.mu.Lock()
	s.terms = terms
	s.mu.Unlock()
	return terms, nil
}

// Suggest returns the best replacement for term, or "" when term is already
// in the vocabulary or nothing is close enough. Candidates rank by
// frequency/(distance+1), then by distance, then alphabetically.
func (s *Suggester) Suggest(term string) (string, error) {
	terms, err := s.vocabulary()
	if err != nil {
		return "", err
	}
	term = strings.ToLower(term)
	if _, ok := terms[term]; ok {
		return "", nil
	}

	type candidate struct {
		term     string
		distance int
		score    float64
	}
	var candidates []candidate
	n := len([]rune(term))
	for t, freq := range terms {
		if freq < s.minFreq {
			continue
		}
		if diff := len([]rune(t)) - n; diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := editDistance(term, t)
		if d > s.maxDistance {
			continue
		}
		candidates = append(candidates, candidate{term: t, distance: d, score: float64(freq) / float64(d+1)})
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.term < b.term
	})
	return candidates[0].term, nil
}

// Correct rewrites every unknown query term of at least three characters to
// its best suggestion. changed is false when the query needs no correction.
func (s *Suggester) Correct(query string) (corrected string, changed bool, err error) {
	terms := queryTerms(query)
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t
		if len([]rune(t)) < minCorrectable {
			continue
		}
		sug, err := s.Suggest(t)
		if err != nil {
			return "", false, err
		}
		if sug != "" {
			out[i] = sug
			changed = true
		}
	}
	return strings.Join(out, " "), changed, nil
}

// queryTerms splits a query the way the standard analyzer tokenizes review
// text: lowercase runs of letters and digits.
func queryTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}
