package cleaner

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hyperjump/reviewlens/internal/models"
)

// DateLayout is the canonical output format.
const DateLayout = "2006-01-02"

// DateParser is one strategy in the date normalization chain.
type DateParser interface {
	Name() string
	Parse(value string) (time.Time, bool)
}

// LayoutParser parses a single fixed layout. One-digit day and month are accepted.
type LayoutParser struct {
	Layout string
}

func (p LayoutParser) Name() string { return p.Layout }

func (p LayoutParser) Parse(value string) (time.Time, bool) {
	t, err := time.ParseInLocation(p.Layout, value, time.UTC)
	return t, err == nil
}

// PermissiveParser accepts most human and machine date formats, including timestamps.
type PermissiveParser struct{}

func (PermissiveParser) Name() string { return "permissive" }

func (PermissiveParser) Parse(value string) (time.Time, bool) {
	t, err := dateparse.ParseIn(value, time.UTC)
	return t, err == nil
}

// DefaultParsers returns the fixed-order chain: ISO, slashed ISO, day-first,
// month-first, dashed day-first, then the permissive parser.
func DefaultParsers() []DateParser {
	return []DateParser{
		LayoutParser{Layout: "2006-1-2"},
		LayoutParser{Layout: "2006/1/2"},
		LayoutParser{Layout: "2/1/2006"},
		LayoutParser{Layout: "1/2/2006"},
		LayoutParser{Layout: "2-1-2006"},
		PermissiveParser{},
	}
}

// DateNormalizer tries each parser in order; the first success wins.
type DateNormalizer struct {
	parsers []DateParser
}

// NewDateNormalizer returns a normalizer. With no parsers, DefaultParsers is used.
func NewDateNormalizer(parsers ...DateParser) *DateNormalizer {
	if len(parsers) == 0 {
		parsers = DefaultParsers()
	}
	return &DateNormalizer{parsers: parsers}
}

// Normalize returns value as YYYY-MM-DD, or false when no parser accepts it.
func (n *DateNormalizer) Normalize(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	for _, p := range n.parsers {
		if t, ok := p.Parse(value); ok {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

// NormalizeAll returns a copy of reviews with every date canonical or nil,
// plus the number normalized and the number that could not be parsed.
func (n *DateNormalizer) NormalizeAll(reviews []models.Review) (out []models.Review, normalized, unparsed int) {
	out = make([]models.Review, len(reviews))
	for i, r := range reviews {
		r = r.Clone()
		if r.Date != nil {
			if d, ok := n.Normalize(*r.Date); ok {
				r.Date = &d
				normalized++
			} else {
				r.Date = nil
				unparsed++
			}
		}
		out[i] = r
	}
	return out, normalized, unparsed
}
