package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/extract"
	"github.com/hyperjump/reviewlens/internal/keyword"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/sentiment"
	"github.com/hyperjump/reviewlens/internal/storage"
)

var phrases = []struct {
	text   string
	rating int
}{
	{"App crashes every time I try to login", 1},
	{"Very slow transfers and the app freezes", 2},
	{"Great app, fast and easy to use", 5},
	{"Customer support never answers my calls", 1},
	{"Good interface, transactions are quick", 4},
	{"Balance not updating, please fix this bug", 2},
}

const variants = 4

// writeCorpus writes a snapshot with every phrase in variants forms per bank,
// plus one duplicate, one review without a rating and one unknown bank.
func writeCorpus(t *testing.T, dir string) (path string, unique int) {
	t.Helper()
	path = filepath.Join(dir, "reviews.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{{"review", "rating", "date", "bank", "source"}}
	for _, bank := range []string{"CBE", "BOA", "Dashen"} {
		for _, p := range phrases {
			for i := 0; i < variants; i++ {
				text := fmt.Sprintf("%s, attempt %d", p.text, 10+i)
				rows = append(rows, []string{text, strconv.Itoa(p.rating), "2024-03-0" + strconv.Itoa(i+1), bank, "Google Play"})
			}
		}
	}
	unique = len(rows) - 1
	rows = append(rows,
		[]string{"app crashes every time I try to login,  ATTEMPT 10", "1", "2024-03-01", "CBE", "Google Play"},
		[]string{"No rating here", "", "2024-03-01", "BOA", "Google Play"},
		[]string{"Works fine for me", "4", "05/03/2024", "Awash", "Google Play"},
	)
	unique++
	if err := w.WriteAll(rows); err != nil {
		t.Fatal(err)
	}
	return path, unique
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "reviews.db")
	cfg.Storage.SearchIndexPath = filepath.Join(dir, "index.bleve")
	cfg.Sentiment.Backend = "lexicon"
	cfg.Insights.MinReviews = 2
	return cfg
}

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	input, unique := writeCorpus(t, dir)
	cfg := testConfig(dir)

	p, err := New(cfg, WithScorer(sentiment.NewScorer(nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	report := out.Report
	if report.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(out.Reviews) != unique {
		t.Errorf("reviews = %d, want %d", len(out.Reviews), unique)
	}
	if report.Cleaning.DuplicatesRemoved != 1 || report.Cleaning.InvalidRating != 1 {
		t.Errorf("cleaning = %+v", report.Cleaning)
	}
	for _, r := range out.Reviews {
		if r.SentimentLabel == "" {
			t.Fatalf("review %q has no label", r.Text)
		}
		if r.Themes == nil {
			t.Fatalf("review %q has nil themes", r.Text)
		}
	}
	if report.Sentiment.Coverage != 100 {
		t.Errorf("coverage = %v, want 100", report.Sentiment.Coverage)
	}
	if len(report.Themes) != 4 {
		t.Errorf("theme banks = %d, want 4", len(report.Themes))
	}
	if report.Insights.Bank("CBE") == nil {
		t.Error("insights missing CBE")
	}

	if report.Persisted == nil {
		t.Fatal("Persisted is nil")
	}
	if want := unique - 1; report.Persisted.Inserted != want {
		t.Errorf("inserted = %d, want %d", report.Persisted.Inserted, want)
	}
	if report.Persisted.UnknownBank != 1 {
		t.Errorf("unknown bank = %d, want 1", report.Persisted.UnknownBank)
	}
	if report.Storage == nil || report.Storage.TotalReviews != unique-1 {
		t.Errorf("storage stats = %+v", report.Storage)
	}
	if report.Storage != nil && report.Storage.DiskBytes == 0 {
		t.Error("DiskBytes = 0, want database and index size")
	}

	kpis := map[string]models.KPI{}
	for _, k := range report.KPIs {
		kpis[k.Name] = k
	}
	for _, name := range []string{"missing_data_percent", "total_records", "sentiment_coverage_percent", "inserted_reviews", "themes_per_bank:CBE"} {
		if _, ok := kpis[name]; !ok {
			t.Errorf("missing KPI %s in %v", name, report.KPIs)
		}
	}
	if !kpis["sentiment_coverage_percent"].Met {
		t.Error("sentiment coverage KPI should be met")
	}
	if kpis["total_records"].Met {
		t.Error("total records KPI should not be met for a small corpus")
	}

	if out.Artifacts == nil {
		t.Fatal("Artifacts is nil")
	}
	for _, path := range []string{out.Artifacts.EnrichedCSV, out.Artifacts.ReportJSON, out.Artifacts.Workbook, out.Artifacts.ReportText, out.Artifacts.Metrics} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("artifact: %v", err)
		}
	}

	if got, want := out.Artifacts.Metrics, filepath.Join(cfg.Output.Dir, "metrics.prom"); got != want {
		t.Errorf("Metrics = %q, want %q", got, want)
	}
	prom, err := os.ReadFile(out.Artifacts.Metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, series := range []string{
		`reviewlens_stage_duration_seconds_count{stage="extract"}`,
		`reviewlens_stage_duration_seconds_count{stage="export"}`,
		`reviewlens_records_total{outcome="read",stage="extract"}`,
		`reviewlens_kpi_met{kpi="total_records"} 0`,
	} {
		if !strings.Contains(string(prom), series) {
			t.Errorf("metrics.prom missing %s", series)
		}
	}

	idx, err := keyword.NewBleveIndex(cfg.Storage.SearchIndexPath)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()
	res, err := idx.Search(context.Background(), "crashes", keyword.SearchOptions{Bank: "BOA"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != variants {
		t.Errorf("BOA crash hits = %d, want %d", len(res.Hits), variants)
	}
}

func TestPipeline_RerunSkipsPersistedReviews(t *testing.T) {
	dir := t.TempDir()
	input, unique := writeCorpus(t, dir)
	cfg := testConfig(dir)
	cfg.Output.Dir = ""
	cfg.Storage.SearchIndexPath = ""

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	p, err := New(cfg, WithScorer(sentiment.NewScorer(nil)), WithStore(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if _, err := p.Run(ctx, input); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	out, err := p.Run(ctx, input)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := out.Report.Persisted; got.Inserted != 0 || got.Skipped != unique {
		t.Errorf("second run persisted = %+v, want 0 inserted, %d skipped", got, unique)
	}
	if out.Artifacts != nil {
		t.Error("Artifacts should be nil without an output dir")
	}
}

func TestPipeline_StorageDisabled(t *testing.T) {
	dir := t.TempDir()
	input, _ := writeCorpus(t, dir)
	cfg := testConfig(dir)
	cfg.Storage.Disabled = true

	p, err := New(cfg, WithScorer(sentiment.NewScorer(nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := p.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Report.Persisted != nil || out.Report.Storage != nil {
		t.Error("nothing should be persisted when storage is disabled")
	}
	if _, err := os.Stat(cfg.Storage.DatabasePath); !os.IsNotExist(err) {
		t.Errorf("database file should not exist, stat err = %v", err)
	}
}

func TestPipeline_InputErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, []byte("review,rating,date,bank\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	unsupported := filepath.Join(dir, "reviews.txt")
	if err := os.WriteFile(unsupported, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		path  string
		want  error
		exist bool
	}{
		{"missing file", filepath.Join(dir, "nope.csv"), os.ErrNotExist, false},
		{"empty collection", empty, extract.ErrNoReviews, true},
		{"unsupported format", unsupported, extract.ErrUnsupportedFormat, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(testConfig(dir), WithScorer(sentiment.NewScorer(nil)))
			if err != nil {
				t.Fatal(err)
			}
			_, err = p.Run(context.Background(), tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run error = %v, want %v", err, tt.want)
			}
			if !strings.HasPrefix(err.Error(), StageExtract+": ") {
				t.Errorf("error %q should name the extract stage", err)
			}
		})
	}
}

func TestPipeline_Clean(t *testing.T) {
	dir := t.TempDir()
	input, unique := writeCorpus(t, dir)

	p, err := New(testConfig(dir))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Clean(context.Background(), input)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.Stats.Output != unique {
		t.Errorf("Output = %d, want %d", res.Stats.Output, unique)
	}
	for _, r := range res.Reviews {
		if r.SentimentLabel != "" {
			t.Fatal("Clean must not score reviews")
		}
	}
}

func TestThemeKPIs(t *testing.T) {
	reviews := []models.Review{
		{Bank: "CBE", Themes: []string{"A", "B"}},
		{Bank: "CBE", Themes: []string{"B", "C"}},
		{Bank: "BOA", Themes: []string{}},
		{Bank: "BOA", Themes: []string{"A"}},
	}
	kpis := themeKPIs(reviews, 3)
	if len(kpis) != 2 {
		t.Fatalf("kpis = %v", kpis)
	}
	if kpis[0].Name != "themes_per_bank:CBE" || kpis[0].Value != 3 || !kpis[0].Met {
		t.Errorf("CBE = %+v", kpis[0])
	}
	if kpis[1].Name != "themes_per_bank:BOA" || kpis[1].Value != 1 || kpis[1].Met {
		t.Errorf("BOA = %+v", kpis[1])
	}
}
