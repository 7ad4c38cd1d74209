// Package cli renders pipeline results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/reviewlens/internal/export"
	"github.com/hyperjump/reviewlens/internal/keyword"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a --format flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown format %q (use text or json)", s)
}

var rule = strings.Repeat("=", 50)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mark(met bool) string {
	if met {
		return "✓"
	}
	return "✗"
}

func writeKPIs(w io.Writer, kpis []models.KPI) {
	for _, k := range kpis {
		fmt.Fprintf(w, "%s KPI %s: %g (target %s)\n", mark(k.Met), k.Name, k.Value, k.Target)
	}
}

// CleanSummary is what `reviewlens clean` reports.
type CleanSummary struct {
	Stats   models.CleaningStats `json:"stats"`
	Quality models.QualityReport `json:"quality"`
	Output  string               `json:"output"`
}

// WriteCleanSummary writes the data quality report of a clean pass.
func WriteCleanSummary(w io.Writer, s CleanSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	q := s.Quality
	fmt.Fprintf(w, "\n%s\nData Quality Report\n%s\n", rule, rule)
	fmt.Fprintf(w, "Input records: %d\n", s.Stats.Input)
	fmt.Fprintf(w, "Duplicates removed: %d\n", s.Stats.DuplicatesRemoved)
	fmt.Fprintf(w, "Dropped: %d missing text, %d invalid rating, %d missing bank\n",
		s.Stats.MissingText, s.Stats.InvalidRating, s.Stats.MissingBank)
	fmt.Fprintf(w, "Dates normalized: %d (%d unparsed)\n", s.Stats.DatesNormalized, s.Stats.DatesUnparsed)
	fmt.Fprintf(w, "Total reviews: %d\n", q.TotalRecords)

	fmt.Fprintln(w, "\nMissing data:")
	for _, m := range q.Missing {
		fmt.Fprintf(w, "  %s: %d (%.2f%%)\n", m.Field, m.Missing, m.Percent)
	}

	fmt.Fprintln(w, "\nRating distribution:")
	ratings := make([]int, 0, len(q.RatingDistribution))
	for r := range q.RatingDistribution {
		ratings = append(ratings, r)
	}
	sort.Ints(ratings)
	for _, r := range ratings {
		fmt.Fprintf(w, "  %d: %d\n", r, q.RatingDistribution[r])
	}

	fmt.Fprintln(w, "\nReviews per bank:")
	banks := make([]string, 0, len(q.BankCounts))
	for b := range q.BankCounts {
		banks = append(banks, b)
	}
	sort.SliceStable(banks, func(i, j int) bool {
		if q.BankCounts[banks[i]] != q.BankCounts[banks[j]] {
			return q.BankCounts[banks[i]] > q.BankCounts[banks[j]]
		}
		return banks[i] < banks[j]
	})
	for _, b := range banks {
		fmt.Fprintf(w, "  %s: %d\n", b, q.BankCounts[b])
	}

	fmt.Fprintf(w, "\nOverall missing data: %.2f%%\n", q.MissingPercent)
	writeKPIs(w, q.KPIs)
	if s.Output != "" {
		fmt.Fprintf(w, "\nCleaned reviews written to %s\n", s.Output)
	}
	fmt.Fprintln(w, rule)
	return nil
}

// RunSummary is what `reviewlens run` reports.
type RunSummary struct {
	Report    *models.RunReport `json:"report"`
	Artifacts *export.Artifacts `json:"artifacts,omitempty"`
}

// WriteRunSummary writes the sentiment, theme and KPI summary of a run.
func WriteRunSummary(w io.Writer, s RunSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	r := s.Report
	fmt.Fprintf(w, "\nRun %s: %d reviews from %s in %s\n",
		r.RunID, r.Quality.TotalRecords, r.InputPath, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	sent := r.Sentiment
	fmt.Fprintf(w, "\n%s\nSentiment Summary (%s)\n%s\n", rule, sent.Mode, rule)
	fmt.Fprintf(w, "Scored %d of %d (%.2f%%), %d fallbacks\n", sent.Scored, sent.Total, sent.Coverage, sent.Fallbacks)
	for _, g := range sent.ByBank {
		fmt.Fprintf(w, "  %s: %s, mean score %.3f\n", g.Group, labelCounts(g.Counts), g.MeanScore)
	}

	fmt.Fprintf(w, "\n%s\nThematic Analysis Summary\n%s\n", rule, rule)
	for _, b := range r.Themes {
		fmt.Fprintf(w, "\n%s:\n", b.Bank)
		fmt.Fprintf(w, "  Themes identified: %d\n", len(b.Themes))
		if len(b.TopThemes) > 0 {
			fmt.Fprintln(w, "  Top themes:")
			for _, t := range b.TopThemes {
				fmt.Fprintf(w, "    - %s: %d reviews\n", t.Theme, t.Reviews)
			}
		}
		if kws := topKeywords(b.Keywords, 10); kws != "" {
			fmt.Fprintf(w, "  Top keywords: %s\n", kws)
		}
	}

	if p := r.Persisted; p != nil {
		fmt.Fprintf(w, "\nPersisted: %d inserted, %d skipped (%d unknown bank)\n", p.Inserted, p.Skipped, p.UnknownBank)
	}
	fmt.Fprintln(w)
	writeKPIs(w, r.KPIs)

	if a := s.Artifacts; a != nil {
		fmt.Fprintln(w, "\nArtifacts:")
		for _, p := range []string{a.EnrichedCSV, a.ReportJSON, a.Workbook, a.ReportText, a.Metrics} {
			if p != "" {
				fmt.Fprintf(w, "  %s\n", p)
			}
		}
	}
	return nil
}

func labelCounts(counts map[models.Label]int) string {
	parts := make([]string, 0, len(models.Labels))
	for _, l := range models.Labels {
		parts = append(parts, fmt.Sprintf("%d %s", counts[l], l))
	}
	return strings.Join(parts, ", ")
}

func topKeywords(kws []models.KeywordScore, n int) string {
	if len(kws) > n {
		kws = kws[:n]
	}
	terms := make([]string, len(kws))
	for i, k := range kws {
		terms[i] = k.Term
	}
	return strings.Join(terms, ", ")
}

// WriteStatus writes the persisted-data verification report.
func WriteStatus(w io.Writer, stats *models.StorageStats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "\n%s\nData Integrity Verification\n%s\n", rule, rule)
	fmt.Fprintf(w, "\nTotal reviews in database: %d\n", stats.TotalReviews)

	fmt.Fprintln(w, "\nReviews per bank:")
	for _, b := range stats.Banks {
		fmt.Fprintf(w, "  %s: %d reviews\n", b.Bank, b.Reviews)
	}

	fmt.Fprintln(w, "\nAverage rating per bank:")
	rated := make([]models.BankStat, 0, len(stats.Banks))
	for _, b := range stats.Banks {
		if b.Reviews > 0 {
			rated = append(rated, b)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool { return rated[i].AvgRating > rated[j].AvgRating })
	for _, b := range rated {
		fmt.Fprintf(w, "  %s: %.2f (from %d reviews)\n", b.Bank, b.AvgRating, b.Reviews)
	}

	fmt.Fprintln(w, "\nSentiment distribution:")
	labels := make([]models.Label, 0, len(stats.Sentiment))
	for l := range stats.Sentiment {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if stats.Sentiment[labels[i]] != stats.Sentiment[labels[j]] {
			return stats.Sentiment[labels[i]] > stats.Sentiment[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for _, l := range labels {
		fmt.Fprintf(w, "  %s: %d reviews\n", l, stats.Sentiment[l])
	}
	fmt.Fprintf(w, "\nReviews without sentiment: %d\n", stats.MissingSentiment)

	if stats.EarliestDate != nil && stats.LatestDate != nil {
		fmt.Fprintf(w, "Review date range: %s to %s\n", *stats.EarliestDate, *stats.LatestDate)
	}
	if stats.DiskBytes > 0 {
		fmt.Fprintf(w, "Disk usage: %.2f MB\n", float64(stats.DiskBytes)/(1<<20))
	}
	fmt.Fprintln(w, rule)
	return nil
}

// WriteSearchResults writes search hits in the given format.
func WriteSearchResults(w io.Writer, res *keyword.SearchResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "\nFound %d reviews matching %q\n\n", res.Total, res.Query)
	for i, hit := range res.Hits {
		r := hit.Review
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. [%s] %d★ %s | Score: %.4f\n", i+1, r.Bank, r.Rating, r.SentimentLabel, hit.Score)
		if r.Date != nil {
			fmt.Fprintf(w, "Date: %s\n", *r.Date)
		}
		if len(r.Themes) > 0 {
			fmt.Fprintf(w, "Themes: %s\n", strings.Join(r.Themes, "; "))
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Text, 200))
	}
	if len(res.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(res.Suggestions, ", "))
	}
	return nil
}
