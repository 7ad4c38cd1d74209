package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/reviewkey"
)

func review(bank, text string, rating int, label models.Label, themes ...string) models.Review {
	if themes == nil {
		themes = []string{}
	}
	return models.Review{
		Text:             text,
		Rating:           rating,
		Date:             models.StringPtr("2024-05-01"),
		Bank:             bank,
		Source:           "Google Play",
		SentimentLabel:   label,
		SentimentScore:   0.9,
		SentimentBackend: models.BackendLexicon,
		Themes:           themes,
	}
}

var corpus = []models.Review{
	review("CBE", "The app crashes every time I open it", 1, models.LabelNegative, "Reliability & Stability"),
	review("CBE", "Great app, transfers are fast", 5, models.LabelPositive, "Transaction Performance", "User Interface & Experience"),
	review("BOA", "Login fails and the app crashes", 1, models.LabelNegative, "Account Access Issues", "Reliability & Stability"),
	review("BOA", "Customer support never answers", 2, models.LabelNegative, "Customer Support"),
	review("Dashen", "Fast and easy transfers", 5, models.LabelPositive, "Transaction Performance"),
}

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	n, err := idx.IndexReviews(context.Background(), corpus)
	if err != nil {
		t.Fatalf("IndexReviews: %v", err)
	}
	if n != len(corpus) {
		t.Fatalf("IndexReviews = %d, want %d", n, len(corpus))
	}
	return idx
}

func hitBanks(res *SearchResult) map[string]int {
	out := map[string]int{}
	for _, h := range res.Hits {
		out[h.Review.Bank]++
	}
	return out
}

func TestBleveIndex_Search(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		opts  SearchOptions
		want  map[string]int
	}{
		{"match across banks", "crashes", SearchOptions{}, map[string]int{"CBE": 1, "BOA": 1}},
		{"case insensitive", "CRASHES", SearchOptions{}, map[string]int{"CBE": 1, "BOA": 1}},
		{"bank filter", "crashes", SearchOptions{Bank: "BOA"}, map[string]int{"BOA": 1}},
		{"bank filter is exact", "crashes", SearchOptions{Bank: "boa"}, map[string]int{}},
		{"sentiment filter", "transfers", SearchOptions{Sentiment: models.LabelPositive}, map[string]int{"CBE": 1, "Dashen": 1}},
		{"theme filter", "", SearchOptions{Theme: "Customer Support"}, map[string]int{"BOA": 1}},
		{"blank query lists all", "", SearchOptions{}, map[string]int{"CBE": 2, "BOA": 2, "Dashen": 1}},
		{"no stemming", "crash", SearchOptions{}, map[string]int{}},
		{"fuzzy", "crashs", SearchOptions{Fuzziness: 1}, map[string]int{"CBE": 1, "BOA": 1}},
		{"limit", "", SearchOptions{Limit: 2}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := idx.Search(ctx, tt.query, tt.opts)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if tt.want == nil {
				if len(res.Hits) != tt.opts.Limit {
					t.Errorf("hits = %d, want %d", len(res.Hits), tt.opts.Limit)
				}
				if res.Total != uint64(len(corpus)) {
					t.Errorf("Total = %d, want %d", res.Total, len(corpus))
				}
				return
			}
			got := hitBanks(res)
			if len(got) != len(tt.want) {
				t.Fatalf("banks = %v, want %v", got, tt.want)
			}
			for bank, n := range tt.want {
				if got[bank] != n {
					t.Errorf("bank %s hits = %d, want %d", bank, got[bank], n)
				}
			}
		})
	}
}

func TestBleveIndex_HitCarriesReview(t *testing.T) {
	idx := newTestIndex(t)

	res, err := idx.Search(context.Background(), "login", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(res.Hits))
	}
	want := corpus[2]
	hit := res.Hits[0]
	if hit.ID != reviewkey.ID(want) {
		t.Errorf("ID = %q, want %q", hit.ID, reviewkey.ID(want))
	}
	got := hit.Review
	if got.Text != want.Text || got.Bank != want.Bank || got.Rating != want.Rating {
		t.Errorf("review = %+v, want %+v", got, want)
	}
	if got.Date == nil || *got.Date != *want.Date {
		t.Errorf("Date = %v, want %s", got.Date, *want.Date)
	}
	if got.SentimentLabel != want.SentimentLabel || got.SentimentScore != want.SentimentScore {
		t.Errorf("sentiment = %s/%v, want %s/%v", got.SentimentLabel, got.SentimentScore, want.SentimentLabel, want.SentimentScore)
	}
	if len(got.Themes) != 2 {
		t.Errorf("Themes = %v, want %v", got.Themes, want.Themes)
	}
}

func TestBleveIndex_SuggestsOnMiss(t *testing.T) {
	idx := newTestIndex(t)

	res, err := idx.Search(context.Background(), "custmer suport", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("Total = %d, want 0", res.Total)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0] != "customer support" {
		t.Errorf("Suggestions = %v, want [customer support]", res.Suggestions)
	}

	res, err = idx.Search(context.Background(), "support", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Suggestions) != 0 {
		t.Errorf("Suggestions on a hit = %v, want none", res.Suggestions)
	}
}

func TestBleveIndex_ReindexOverwrites(t *testing.T) {
	idx := newTestIndex(t)

	if _, err := idx.IndexReviews(context.Background(), corpus[:2]); err != nil {
		t.Fatalf("IndexReviews: %v", err)
	}
	count, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if count != uint64(len(corpus)) {
		t.Errorf("DocCount = %d, want %d", count, len(corpus))
	}
}

func TestBleveIndex_ReopenAndRebuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	if _, err := idx.IndexReviews(context.Background(), corpus); err != nil {
		t.Fatalf("IndexReviews: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("index dir missing: %v", err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	count, _ := reopened.DocCount()
	_ = reopened.Close()
	if count != uint64(len(corpus)) {
		t.Errorf("reopened DocCount = %d, want %d", count, len(corpus))
	}

	rebuilt, err := Rebuild(path)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	defer func() { _ = rebuilt.Close() }()
	count, _ = rebuilt.DocCount()
	if count != 0 {
		t.Errorf("rebuilt DocCount = %d, want 0", count)
	}
}

func TestBleveIndex_IndexCancelled(t *testing.T) {
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer func() { _ = idx.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := idx.IndexReviews(ctx, corpus); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestBleveIndex_Terms(t *testing.T) {
	idx := newTestIndex(t)

	terms, err := idx.Terms()
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if terms["crashes"] != 2 {
		t.Errorf(`terms["crashes"] = %d, want 2`, terms["crashes"])
	}
	if _, ok := terms["the"]; ok {
		t.Error("stop word \"the\" should not be indexed")
	}
}

func TestBleveIndex_PhraseBoost(t *testing.T) {
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer idx.Close()

	scattered := review("CBE", "crashes app", 1, models.LabelNegative)
	phrase := review("CBE", "the banking app crashes whenever I try to pay my monthly electricity bill online", 1, models.LabelNegative)
	if _, err := idx.IndexReviews(context.Background(), []models.Review{scattered, phrase}); err != nil {
		t.Fatalf("IndexReviews: %v", err)
	}

	tests := []struct {
		name  string
		boost float64
		top   string
	}{
		{"shorter review wins without boost", 0, scattered.Text},
		{"boost of one is ignored", 1, scattered.Text},
		{"phrase match wins with boost", 10, phrase.Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := idx.Search(context.Background(), "app crashes", SearchOptions{PhraseBoost: tt.boost})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Total != 2 {
				t.Fatalf("total = %d, want 2", res.Total)
			}
			if got := res.Hits[0].Review.Text; got != tt.top {
				t.Errorf("top hit = %q, want %q", got, tt.top)
			}
		})
	}
}
