package themes

import (
	"strings"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/models"
)

// GeneralTheme collects ranked keywords no taxonomy theme claimed.
const GeneralTheme = "General"

// Theme is a named group of matching keywords.
type Theme struct {
	Name     string
	Keywords []string
}

// DefaultTaxonomy returns the built-in themes in matching order.
// Earlier themes win when a keyword fits more than one.
func DefaultTaxonomy() []Theme {
	return []Theme{
		{Name: "Account Access Issues", Keywords: []string{
			"login", "password", "account", "access", "unable", "cannot",
			"error", "failed", "blocked", "locked", "verify", "authentication",
		}},
		{Name: "Transaction Performance", Keywords: []string{
			"transfer", "transaction", "slow", "fast", "speed", "timeout",
			"pending", "delay", "instant", "quick", "wait", "loading",
		}},
		{Name: "User Interface & Experience", Keywords: []string{
			"ui", "interface", "design", "layout", "easy", "simple", "user friendly",
			"beautiful", "modern", "confusing", "complicated", "navigation", "menu",
		}},
		{Name: "Customer Support", Keywords: []string{
			"support", "help", "service", "contact", "response", "assistance",
			"complaint", "issue", "problem", "resolve", "fix",
		}},
		{Name: "Feature Requests", Keywords: []string{
			"feature", "add", "need", "want", "missing", "request", "suggest",
			"improve", "enhance", "option", "functionality", "fingerprint", "biometric",
		}},
		{Name: "App Reliability", Keywords: []string{
			"crash", "bug", "error", "freeze", "hang", "close", "stop", "work",
			"stable", "reliable", "problem", "issue", "fix", "update",
		}},
		{Name: "Security Concerns", Keywords: []string{
			"security", "safe", "secure", "privacy", "data", "protection",
			"hack", "breach", "trust", "worried",
		}},
	}
}

// TaxonomyFromConfig converts configured theme definitions. Keywords are lowercased.
func TaxonomyFromConfig(defs []config.ThemeDefinition) []Theme {
	out := make([]Theme, 0, len(defs))
	for _, d := range defs {
		kws := make([]string, 0, len(d.Keywords))
		for _, k := range d.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		out = append(out, Theme{Name: d.Name, Keywords: kws})
	}
	return out
}

// assign returns the first theme with a keyword that contains term or is
// contained in it, or "" when none match. Short keywords such as "ui" match
// loosely inside longer terms.
func assign(term string, taxonomy []Theme) string {
	for _, th := range taxonomy {
		for _, k := range th.Keywords {
			if strings.Contains(term, k) || strings.Contains(k, term) {
				return th.Name
			}
		}
	}
	return ""
}

// Cluster maps ranked terms onto themes. The result follows taxonomy order,
// omits empty themes, and appends a General theme holding up to generalSize
// unassigned terms.
func Cluster(ranked []string, taxonomy []Theme, generalSize int) []models.ThemeTerms {
	byTheme := make(map[string][]string, len(taxonomy))
	var unassigned []string
	for _, term := range ranked {
		name := assign(term, taxonomy)
		if name == "" {
			unassigned = append(unassigned, term)
			continue
		}
		byTheme[name] = append(byTheme[name], term)
	}

	var out []models.ThemeTerms
	for _, th := range taxonomy {
		if terms := byTheme[th.Name]; len(terms) > 0 {
			out = append(out, models.ThemeTerms{Theme: th.Name, Terms: terms})
			delete(byTheme, th.Name)
		}
	}
	if len(unassigned) > 0 {
		if len(unassigned) > generalSize {
			unassigned = unassigned[:generalSize]
		}
		out = append(out, models.ThemeTerms{Theme: GeneralTheme, Terms: unassigned})
	}
	return out
}
