package models

import "time"

// KPI is an informational target check. KPIs never gate the pipeline.
type KPI struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Target string  `json:"target"`
	Met    bool    `json:"met"`
}

// FieldMissing is the null count for one tracked field.
type FieldMissing struct {
	Field   string  `json:"field"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// QualityReport describes the cleaned collection.
type QualityReport struct {
	TotalRecords       int            `json:"total_records"`
	Missing            []FieldMissing `json:"missing"`
	MissingPercent     float64        `json:"missing_percent"`
	RatingDistribution map[int]int    `json:"rating_distribution"`
	BankCounts         map[string]int `json:"bank_counts"`
	KPIs               []KPI          `json:"kpis"`
}

// CleaningStats counts what each cleaning step did.
type CleaningStats struct {
	Input             int `json:"input"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	MissingText       int `json:"missing_text"`
	InvalidRating     int `json:"invalid_rating"`
	MissingBank       int `json:"missing_bank"`
	DatesNormalized   int `json:"dates_normalized"`
	DatesUnparsed     int `json:"dates_unparsed"`
	Output            int `json:"output"`
}

// GroupSentiment is the label breakdown for one group (a bank or a rating).
type GroupSentiment struct {
	Group     string        `json:"group"`
	Total     int           `json:"total"`
	Counts    map[Label]int `json:"counts"`
	MeanScore float64       `json:"mean_score"`
}

// SentimentSummary describes a scoring pass.
type SentimentSummary struct {
	Mode      string           `json:"mode"`
	Total     int              `json:"total"`
	Scored    int              `json:"scored"`
	Coverage  float64          `json:"coverage_percent"`
	ByLabel   map[Label]int    `json:"by_label"`
	ByBackend map[string]int   `json:"by_backend"`
	Fallbacks int              `json:"fallbacks"`
	ByBank    []GroupSentiment `json:"by_bank"`
	ByRating  []GroupSentiment `json:"by_rating"`
}

// KeywordScore is a ranked TF-IDF term.
type KeywordScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// ThemeTerms lists the keywords assigned to a theme.
type ThemeTerms struct {
	Theme string   `json:"theme"`
	Terms []string `json:"terms"`
}

// ThemeCount is the number of reviews tagged with a theme.
type ThemeCount struct {
	Theme   string `json:"theme"`
	Reviews int    `json:"reviews"`
}

// BankThemes is the theme extraction result for one bank.
type BankThemes struct {
	Bank      string         `json:"bank"`
	Keywords  []KeywordScore `json:"keywords"`
	Themes    []ThemeTerms   `json:"themes"`
	TopThemes []ThemeCount   `json:"top_themes"`
}

// BankStat is a per-bank row of persisted-data verification.
type BankStat struct {
	Bank      string  `json:"bank"`
	Reviews   int     `json:"reviews"`
	AvgRating float64 `json:"avg_rating"`
}

// StorageStats verifies what the relational store holds.
type StorageStats struct {
	TotalReviews     int           `json:"total_reviews"`
	Banks            []BankStat    `json:"banks"`
	Sentiment        map[Label]int `json:"sentiment"`
	MissingSentiment int           `json:"missing_sentiment"`
	EarliestDate     *string       `json:"earliest_date"`
	LatestDate       *string       `json:"latest_date"`
	DiskBytes        int64         `json:"disk_bytes,omitempty"`
}

// InsertResult reports how many reviews a persistence pass wrote. Skipped
// includes both reviews already persisted and reviews of unknown banks.
type InsertResult struct {
	Inserted    int `json:"inserted"`
	Skipped     int `json:"skipped"`
	UnknownBank int `json:"unknown_bank"`
}

// RunReport is everything a pipeline run produced apart from the reviews themselves.
type RunReport struct {
	RunID      string           `json:"run_id"`
	InputPath  string           `json:"input_path"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Cleaning   CleaningStats    `json:"cleaning"`
	Quality    QualityReport    `json:"quality"`
	Sentiment  SentimentSummary `json:"sentiment"`
	Themes     []BankThemes     `json:"themes"`
	Insights   InsightsReport   `json:"insights"`
	Persisted  *InsertResult    `json:"persisted,omitempty"`
	Storage    *StorageStats    `json:"storage,omitempty"`
	KPIs       []KPI            `json:"kpis"`
}
