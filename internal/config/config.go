// Package config provides configuration loading and structs for reviewlens.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. REVIEWLENS_STORAGE_DSN.
const EnvPrefix = "REVIEWLENS"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" split_words:"true"`
	Input     InputConfig     `yaml:"input" split_words:"true"`
	Output    OutputConfig    `yaml:"output" split_words:"true"`
	Storage   StorageConfig   `yaml:"storage" split_words:"true"`
	Server    ServerConfig    `yaml:"server" split_words:"true"`
	Cleaning  CleaningConfig  `yaml:"cleaning" split_words:"true"`
	Sentiment SentimentConfig `yaml:"sentiment" split_words:"true"`
	Themes    ThemesConfig    `yaml:"themes" split_words:"true"`
	Insights  InsightsConfig  `yaml:"insights" split_words:"true"`
	KPI       KPIConfig       `yaml:"kpi" split_words:"true"`
	Banks     []BankConfig    `yaml:"banks" ignored:"true" validate:"dive"`
}

// InputConfig locates the raw review snapshot.
type InputConfig struct {
	Path string `yaml:"path" split_words:"true"`
}

// OutputConfig is where report artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir" split_words:"true"`
}

// StorageConfig selects the relational store and the search index location.
type StorageConfig struct {
	Disabled        bool   `yaml:"disabled" split_words:"true"`
	Driver          string `yaml:"driver" split_words:"true" validate:"oneof=sqlite mysql"`
	DatabasePath    string `yaml:"database_path" split_words:"true"`
	DSN             string `yaml:"dsn" split_words:"true" validate:"required_if=Driver mysql"`
	SearchIndexPath string `yaml:"search_index_path" split_words:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" split_words:"true"`
	Port int    `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
}

// CleaningConfig controls the record cleaner.
type CleaningConfig struct {
	// DedupKey is "normalized" (case and whitespace insensitive) or "exact".
	DedupKey string `yaml:"dedup_key" split_words:"true" validate:"oneof=normalized exact"`
}

// SentimentConfig holds scorer backend and cache settings.
type SentimentConfig struct {
	// Backend is "auto" (model with lexicon fallback), "model", or "lexicon".
	Backend   string      `yaml:"backend" split_words:"true" validate:"oneof=auto model lexicon"`
	ModelPath string      `yaml:"model_path" split_words:"true"`
	VocabPath string      `yaml:"vocab_path" split_words:"true"`
	MaxTokens int         `yaml:"max_tokens" split_words:"true" validate:"min=8"`
	MaxChars  int         `yaml:"max_chars" split_words:"true" validate:"min=1"`
	Labels    []string    `yaml:"labels" split_words:"true" validate:"min=2"`
	Cache     CacheConfig `yaml:"cache" split_words:"true"`
}

// CacheConfig configures the model result cache. A non-empty RedisAddr
// selects the shared Redis cache over the in-process LRU.
type CacheConfig struct {
	Size          int           `yaml:"size" split_words:"true"`
	RedisAddr     string        `yaml:"redis_addr" split_words:"true"`
	RedisPassword string        `yaml:"redis_password" split_words:"true"`
	RedisDB       int           `yaml:"redis_db" split_words:"true"`
	TTL           time.Duration `yaml:"ttl" split_words:"true"`
}

// ThemesConfig controls TF-IDF keyword extraction and theme clustering.
type ThemesConfig struct {
	MaxFeatures int     `yaml:"max_features" split_words:"true" validate:"min=1"`
	MinDF       int     `yaml:"min_df" split_words:"true" validate:"min=1"`
	MaxDF       float64 `yaml:"max_df" split_words:"true" validate:"gt=0,lte=1"`
	NgramMax    int     `yaml:"ngram_max" split_words:"true" validate:"min=1,max=3"`
	GeneralSize int     `yaml:"general_size" split_words:"true" validate:"min=1"`
	Workers     int     `yaml:"workers" split_words:"true" validate:"min=1"`
	// Taxonomy replaces the built-in theme list when non-empty. Order matters.
	Taxonomy []ThemeDefinition `yaml:"taxonomy" ignored:"true" validate:"dive"`
}

// ThemeDefinition is one named theme with its matching keywords.
type ThemeDefinition struct {
	Name     string   `yaml:"name" validate:"required"`
	Keywords []string `yaml:"keywords" validate:"min=1"`
}

// InsightsConfig controls driver, pain point, and recommendation derivation.
type InsightsConfig struct {
	MinReviews            int `yaml:"min_reviews" split_words:"true" validate:"min=1"`
	ExampleCount          int `yaml:"example_count" split_words:"true" validate:"min=0"`
	ExampleLength         int `yaml:"example_length" split_words:"true" validate:"min=1"`
	HighPriorityThreshold int `yaml:"high_priority_threshold" split_words:"true"`
	MinDrivers            int `yaml:"min_drivers" split_words:"true"`
	MaxRecommendations    int `yaml:"max_recommendations" split_words:"true" validate:"min=1"`
	PositiveRating        int `yaml:"positive_rating" split_words:"true" validate:"min=1,max=5"`
	NegativeRating        int `yaml:"negative_rating" split_words:"true" validate:"min=1,max=5"`
}

// KPIConfig holds informational targets. Missing targets never fail a run.
type KPIConfig struct {
	MaxMissingPercent    float64 `yaml:"max_missing_percent" split_words:"true"`
	MinRecords           int     `yaml:"min_records" split_words:"true"`
	MinSentimentCoverage float64 `yaml:"min_sentiment_coverage" split_words:"true"`
	MinThemesPerBank     int     `yaml:"min_themes_per_bank" split_words:"true"`
	MinInserted          int     `yaml:"min_inserted" split_words:"true"`
}

// BankConfig is a bank catalog entry used when persisting reviews.
type BankConfig struct {
	Name        string `yaml:"name" validate:"required"`
	AppName     string `yaml:"app_name"`
	Description string `yaml:"description"`
}

// Default returns a fully defaulted config for runs without a config file.
// Relative paths resolve against the working directory.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, expands paths,
// overlays REVIEWLENS_* environment variables and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Input.Path = expandPath(cfg.Input.Path, configDir)
	cfg.Output.Dir = expandPath(cfg.Output.Dir, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.SearchIndexPath = expandPath(cfg.Storage.SearchIndexPath, configDir)
	cfg.Sentiment.ModelPath = expandPath(cfg.Sentiment.ModelPath, configDir)
	cfg.Sentiment.VocabPath = expandPath(cfg.Sentiment.VocabPath, configDir)

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. Unset variables leave fields untouched.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to load config from env: %w", err)
	}
	return nil
}

// Validate checks struct constraints on cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
