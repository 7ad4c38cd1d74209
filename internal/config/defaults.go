package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Input.Path == "" {
		cfg.Input.Path = "./data/raw/reviews.csv"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./data/output"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/db/reviews.db"
	}
	if cfg.Storage.SearchIndexPath == "" {
		cfg.Storage.SearchIndexPath = "./data/indices/reviews.bleve"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Cleaning.DedupKey == "" {
		cfg.Cleaning.DedupKey = "normalized"
	}
	applySentimentDefaults(&cfg.Sentiment)
	applyThemeDefaults(&cfg.Themes)
	applyInsightDefaults(&cfg.Insights)
	applyKPIDefaults(&cfg.KPI)
	if len(cfg.Banks) == 0 {
		cfg.Banks = DefaultBanks()
	}
}

func applySentimentDefaults(s *SentimentConfig) {
	if s.Backend == "" {
		s.Backend = "auto"
	}
	if s.ModelPath == "" {
		s.ModelPath = "./data/models/distilbert-sst2.onnx"
	}
	if s.VocabPath == "" {
		s.VocabPath = "./data/models/vocab.txt"
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = 512
	}
	if s.MaxChars == 0 {
		s.MaxChars = 512
	}
	if len(s.Labels) == 0 {
		s.Labels = []string{"NEGATIVE", "POSITIVE"}
	}
	if s.Cache.Size == 0 {
		s.Cache.Size = 10000
	}
	if s.Cache.TTL == 0 {
		s.Cache.TTL = 7 * 24 * time.Hour
	}
}

func applyThemeDefaults(t *ThemesConfig) {
	if t.MaxFeatures == 0 {
		t.MaxFeatures = 50
	}
	if t.MinDF == 0 {
		t.MinDF = 2
	}
	if t.MaxDF == 0 {
		t.MaxDF = 0.95
	}
	if t.NgramMax == 0 {
		t.NgramMax = 2
	}
	if t.GeneralSize == 0 {
		t.GeneralSize = 10
	}
	if t.Workers == 0 {
		t.Workers = 1
	}
}

func applyInsightDefaults(i *InsightsConfig) {
	if i.MinReviews == 0 {
		i.MinReviews = 10
	}
	if i.ExampleCount == 0 {
		i.ExampleCount = 3
	}
	if i.ExampleLength == 0 {
		i.ExampleLength = 100
	}
	if i.HighPriorityThreshold == 0 {
		i.HighPriorityThreshold = 50
	}
	if i.MinDrivers == 0 {
		i.MinDrivers = 3
	}
	if i.MaxRecommendations == 0 {
		i.MaxRecommendations = 3
	}
	if i.PositiveRating == 0 {
		i.PositiveRating = 4
	}
	if i.NegativeRating == 0 {
		i.NegativeRating = 2
	}
}

func applyKPIDefaults(k *KPIConfig) {
	if k.MaxMissingPercent == 0 {
		k.MaxMissingPercent = 5
	}
	if k.MinRecords == 0 {
		k.MinRecords = 1200
	}
	if k.MinSentimentCoverage == 0 {
		k.MinSentimentCoverage = 90
	}
	if k.MinThemesPerBank == 0 {
		k.MinThemesPerBank = 3
	}
	if k.MinInserted == 0 {
		k.MinInserted = 400
	}
}

// DefaultBanks returns the built-in bank catalog.
func DefaultBanks() []BankConfig {
	return []BankConfig{
		{Name: "CBE", AppName: "Commercial Bank of Ethiopia", Description: "Commercial Bank of Ethiopia mobile banking application"},
		{Name: "BOA", AppName: "Bank of Abyssinia", Description: "Bank of Abyssinia mobile banking application"},
		{Name: "Dashen", AppName: "Dashen Bank", Description: "Dashen Bank mobile banking application"},
	}
}
