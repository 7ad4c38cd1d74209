package cleaner

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/models"
)

func raw(text string, rating float64, date, bank string) models.RawReview {
	r := models.RawReview{Text: models.StringPtr(text), Rating: models.FloatPtr(rating), Bank: bank, Source: "Google Play"}
	if date != "" {
		r.Date = models.StringPtr(date)
	}
	return r
}

func newTestCleaner() *Cleaner {
	cfg := config.Default()
	return New(cfg.Cleaning, cfg.KPI)
}

func TestClean_EmptyInput(t *testing.T) {
	_, err := newTestCleaner().Clean(nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Clean(nil) error = %v, want ErrEmptyInput", err)
	}
}

func TestClean_DuplicateCollapses(t *testing.T) {
	in := []models.RawReview{
		raw("Great app", 5, "2024-01-01", "CBE"),
		raw("Great app", 5, "2024-01-02", "CBE"),
	}
	res, err := newTestCleaner().Clean(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Reviews) != 1 {
		t.Fatalf("got %d reviews, want 1", len(res.Reviews))
	}
	if res.Stats.DuplicatesRemoved != 1 {
		t.Errorf("DuplicatesRemoved = %d, want 1", res.Stats.DuplicatesRemoved)
	}
	if *res.Reviews[0].Date != "2024-01-01" {
		t.Errorf("kept %v, want the first occurrence", *res.Reviews[0].Date)
	}
}

func TestClean_NullRatingDropped(t *testing.T) {
	r := raw("Nice", 0, "", "BOA")
	r.Rating = nil
	res, err := newTestCleaner().Clean([]models.RawReview{r, raw("Works", 4, "", "BOA")})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Reviews) != 1 || res.Reviews[0].Text != "Works" {
		t.Fatalf("reviews = %+v, want only the rated review", res.Reviews)
	}
	if res.Stats.InvalidRating != 1 {
		t.Errorf("InvalidRating = %d, want 1", res.Stats.InvalidRating)
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	in := []models.RawReview{raw("Hello", 5, "15/03/2024", "CBE")}
	if _, err := newTestCleaner().Clean(in); err != nil {
		t.Fatal(err)
	}
	if *in[0].Date != "15/03/2024" {
		t.Errorf("input date mutated to %q", *in[0].Date)
	}
}

func TestClean_InvariantsHold(t *testing.T) {
	in := []models.RawReview{
		raw("ok app", 3, "2024/02/29", "CBE"),
		raw("OK  App", 3, "garbage", "CBE"),
		raw("bad", 9, "2024-01-01", "CBE"),
		raw("meh", 0.5, "2024-01-01", "CBE"),
		raw("fine", 4.8, "31-12-2023", "Dashen"),
		raw("   ", 5, "", "Dashen"),
		raw("no bank", 5, "", " "),
		raw("undated", 2, "not a date", "BOA"),
	}
	res, err := newTestCleaner().Clean(in)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, r := range res.Reviews {
		if r.Rating < MinRating || r.Rating > MaxRating {
			t.Errorf("rating out of range: %+v", r)
		}
		if r.Date != nil {
			if _, err := time.Parse(DateLayout, *r.Date); err != nil {
				t.Errorf("date %q is not YYYY-MM-DD: %v", *r.Date, err)
			}
		}
		if r.Themes == nil {
			t.Errorf("themes nil for %+v", r)
		}
		key := r.Bank + "|" + r.Text
		if seen[key] {
			t.Errorf("duplicate survived: %s", key)
		}
		seen[key] = true
	}
	want := models.CleaningStats{
		Input: 8, DuplicatesRemoved: 1, MissingText: 1, InvalidRating: 3, MissingBank: 1,
		DatesNormalized: 1, DatesUnparsed: 1, Output: 2,
	}
	if res.Stats != want {
		t.Errorf("stats = %+v, want %+v", res.Stats, want)
	}
}

func TestHandleMissing_Ratings(t *testing.T) {
	tests := []struct {
		rating float64
		kept   bool
	}{
		{1, true},
		{4, true},
		{5, true},
		{4.9, false},
		{2.5, false},
		{1.0001, false},
		{0, false},
		{6, false},
	}
	for _, tt := range tests {
		out, drops := HandleMissing([]models.RawReview{raw("works", tt.rating, "", "CBE")})
		if got := len(out) == 1; got != tt.kept {
			t.Errorf("rating %v: kept = %v, want %v", tt.rating, got, tt.kept)
			continue
		}
		if tt.kept && out[0].Rating != int(tt.rating) {
			t.Errorf("rating %v: stored as %d", tt.rating, out[0].Rating)
		}
		if !tt.kept && drops.InvalidRating != 1 {
			t.Errorf("rating %v: InvalidRating = %d, want 1", tt.rating, drops.InvalidRating)
		}
	}
}

func TestDeduplicate(t *testing.T) {
	in := []models.RawReview{
		raw("Great app", 5, "", "CBE"),
		raw("great  APP", 4, "", "CBE"),
		raw("Great app", 5, "", "BOA"),
		{Bank: "CBE"},
		{Bank: "CBE"},
	}
	t.Run("normalized", func(t *testing.T) {
		out, removed := Deduplicate(in, DedupNormalized)
		if len(out) != 3 || removed != 2 {
			t.Fatalf("got %d kept, %d removed", len(out), removed)
		}
		again, removedAgain := Deduplicate(out, DedupNormalized)
		if len(again) != len(out) || removedAgain != 0 {
			t.Error("dedup should be idempotent")
		}
	})
	t.Run("exact", func(t *testing.T) {
		out, removed := Deduplicate(in, DedupExact)
		if len(out) != 4 || removed != 1 {
			t.Fatalf("got %d kept, %d removed", len(out), removed)
		}
	})
}

func TestDateNormalizer(t *testing.T) {
	n := NewDateNormalizer()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-15", "2024-03-15", true},
		{"2024/3/5", "2024-03-05", true},
		{"15/03/2024", "2024-03-15", true},
		{"03/04/2024", "2024-04-03", true},
		{"12/31/2023", "2023-12-31", true},
		{"31-12-2023", "2023-12-31", true},
		{" 2024-01-09 ", "2024-01-09", true},
		{"2024-01-15 10:30:00", "2024-01-15", true},
		{"March 5, 2024", "2024-03-05", true},
		{"2023-02-30", "", false},
		{"not a date", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := n.Normalize(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

type stubParser struct{ calls int }

func (s *stubParser) Name() string { return "stub" }
func (s *stubParser) Parse(string) (time.Time, bool) {
	s.calls++
	return time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), true
}

func TestDateNormalizer_FirstParserWins(t *testing.T) {
	first := &stubParser{}
	second := &stubParser{}
	n := NewDateNormalizer(first, second)
	got, ok := n.Normalize("anything")
	if !ok || got != "2020-01-02" {
		t.Fatalf("got %q, %v", got, ok)
	}
	if first.calls != 1 || second.calls != 0 {
		t.Errorf("calls first=%d second=%d, want 1 and 0", first.calls, second.calls)
	}
}

func TestQuality(t *testing.T) {
	d := "2024-01-01"
	reviews := []models.Review{
		{Text: "a", Rating: 5, Date: &d, Bank: "CBE"},
		{Text: "b", Rating: 1, Bank: "CBE"},
		{Text: "c", Rating: 5, Date: &d, Bank: "BOA"},
		{Text: "d", Rating: 3, Bank: "BOA"},
	}
	cfg := config.Default()
	q := Quality(reviews, cfg.KPI)
	if q.TotalRecords != 4 {
		t.Errorf("TotalRecords = %d", q.TotalRecords)
	}
	if q.MissingPercent != 12.5 {
		t.Errorf("MissingPercent = %v, want 12.5", q.MissingPercent)
	}
	if q.Missing[2].Field != "date" || q.Missing[2].Missing != 2 || q.Missing[2].Percent != 50 {
		t.Errorf("date missing = %+v", q.Missing[2])
	}
	if q.RatingDistribution[5] != 2 || q.BankCounts["BOA"] != 2 {
		t.Errorf("distribution = %v, banks = %v", q.RatingDistribution, q.BankCounts)
	}
	if len(q.KPIs) != 2 || q.KPIs[0].Met || q.KPIs[1].Met {
		t.Errorf("KPIs = %+v, want both unmet", q.KPIs)
	}
}

func TestQuality_EmptyCollectionMissesKPIs(t *testing.T) {
	q := Quality(nil, config.Default().KPI)
	if q.TotalRecords != 0 || q.MissingPercent != 0 {
		t.Errorf("TotalRecords = %d, MissingPercent = %v", q.TotalRecords, q.MissingPercent)
	}
	for _, k := range q.KPIs {
		if k.Met {
			t.Errorf("KPI %s met on an empty collection", k.Name)
		}
	}
}
