// Package normalize canonicalizes review text for matching and scoring.
package normalize

import (
	"regexp"
	"strings"
)

var (
	urlPattern   = regexp.MustCompile(`http\S+|www\S+`)
	emailPattern = regexp.MustCompile(`\S+@\S+`)
)

// Normalize lowercases text, strips URL-like and email-like tokens, and
// collapses whitespace runs to a single space. It is total: empty in, empty out.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// NormalizePtr normalizes *text, treating nil as empty.
func NormalizePtr(text *string) string {
	if text == nil {
		return ""
	}
	return Normalize(*text)
}
