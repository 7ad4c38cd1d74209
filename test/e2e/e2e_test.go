package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/export"
	"github.com/hyperjump/reviewlens/internal/keyword"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/pipeline"
	"github.com/hyperjump/reviewlens/internal/server"
	"github.com/hyperjump/reviewlens/internal/storage"
)

const e2eReviewsPerBank = 30

func e2eConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "reviews.db")
	cfg.Storage.SearchIndexPath = filepath.Join(dir, "reviews.bleve")
	cfg.Sentiment.Backend = "lexicon"
	cfg.Insights.MinReviews = 2
	return cfg
}

func TestE2E_PipelineAcrossInputFormats(t *testing.T) {
	corpus := BuildCorpus(e2eReviewsPerBank)
	encoders := map[string]func() ([]byte, error){
		".csv":  corpus.CSV,
		".json": corpus.JSON,
		".xlsx": corpus.XLSX,
	}

	for ext, encode := range encoders {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			data, err := encode()
			if err != nil {
				t.Fatal(err)
			}
			input := filepath.Join(dir, "reviews"+ext)
			if err := os.WriteFile(input, data, 0o600); err != nil {
				t.Fatal(err)
			}

			cfg := e2eConfig(dir)
			p, err := pipeline.New(cfg)
			if err != nil {
				t.Fatalf("pipeline.New: %v", err)
			}
			out, err := p.Run(context.Background(), input)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			want := len(corpus.Rows)
			if got := out.Report.Quality.TotalRecords; got != want {
				t.Errorf("total records = %d, want %d", got, want)
			}
			if out.Report.Persisted == nil || out.Report.Persisted.Inserted != want {
				t.Errorf("persisted = %+v, want %d inserted", out.Report.Persisted, want)
			}
			if out.Report.Sentiment.Scored != want {
				t.Errorf("scored = %d, want %d", out.Report.Sentiment.Scored, want)
			}
			if len(out.Report.Themes) != len(banks) {
				t.Errorf("theme results for %d banks, want %d", len(out.Report.Themes), len(banks))
			}
			for _, path := range []string{
				out.Artifacts.EnrichedCSV, out.Artifacts.ReportJSON,
				out.Artifacts.Workbook, out.Artifacts.ReportText,
			} {
				if _, err := os.Stat(path); err != nil {
					t.Errorf("artifact missing: %v", err)
				}
			}

			checkSearch(t, cfg, corpus)
			checkAPI(t, cfg)
		})
	}
}

func checkSearch(t *testing.T, cfg *config.Config, corpus *Corpus) {
	t.Helper()
	idx, err := keyword.NewBleveIndex(cfg.Storage.SearchIndexPath)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	count, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if int(count) != len(corpus.Rows) {
		t.Errorf("indexed %d reviews, want %d", count, len(corpus.Rows))
	}

	ctx := context.Background()
	for _, tc := range corpus.Cases {
		res, err := idx.Search(ctx, tc.Query, keyword.SearchOptions{Limit: keyword.MaxLimit})
		if err != nil {
			t.Fatalf("%s: %v", tc.Description, err)
		}
		if len(res.Hits) == 0 || res.Hits[0].Review.Bank != tc.Bank {
			t.Errorf("%s: top hit is not from %s", tc.Description, tc.Bank)
			continue
		}

		filtered, err := idx.Search(ctx, tc.Query, keyword.SearchOptions{Bank: tc.Bank, Limit: keyword.MaxLimit})
		if err != nil {
			t.Fatal(err)
		}
		if int(filtered.Total) != tc.MinHits {
			t.Errorf("%s: %d hits within bank, want %d", tc.Description, filtered.Total, tc.MinHits)
		}
		for _, h := range filtered.Hits {
			if h.Review.SentimentLabel == "" {
				t.Errorf("%s: hit %s has no sentiment", tc.Description, h.ID)
			}
		}
	}
}

func checkAPI(t *testing.T, cfg *config.Config) {
	t.Helper()
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	idx, err := keyword.NewBleveIndex(cfg.Storage.SearchIndexPath)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	reports := server.NewFileReports(filepath.Join(cfg.Output.Dir, export.ReportJSONName))
	srv := httptest.NewServer(server.NewServer(reports, store, idx, nil, &cfg.Server, nil).Router())
	defer srv.Close()

	var report models.RunReport
	getJSON(t, srv.URL+"/api/v1/report", &report)
	if report.RunID == "" || len(report.Insights.Banks) == 0 {
		t.Errorf("unexpected report: run %q, %d banks", report.RunID, len(report.Insights.Banks))
	}

	var bank server.BankView
	getJSON(t, srv.URL+"/api/v1/banks/BOA", &bank)
	if bank.Bank != "BOA" || bank.Insights == nil {
		t.Errorf("unexpected bank view: %+v", bank)
	}

	var status server.StatusView
	getJSON(t, srv.URL+"/api/v1/status", &status)
	if status.Storage == nil || status.Storage.TotalReviews != len(BuildCorpus(e2eReviewsPerBank).Rows) {
		t.Errorf("unexpected status: %+v", status.Storage)
	}

	var res keyword.SearchResult
	getJSON(t, srv.URL+"/api/v1/reviews/search?"+url.Values{"q": {"transfer stuck"}, "bank": {"BOA"}}.Encode(), &res)
	if res.Total == 0 {
		t.Error("expected search hits through the API")
	}
}

func getJSON(t *testing.T, target string, v any) {
	t.Helper()
	resp, err := http.Get(target)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", target, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: decode: %v", target, err)
	}
}
