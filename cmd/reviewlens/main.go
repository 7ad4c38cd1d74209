// Package main is the reviewlens CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/reviewlens/internal/cli"
	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/export"
	"github.com/hyperjump/reviewlens/internal/keyword"
	"github.com/hyperjump/reviewlens/internal/metrics"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/internal/pipeline"
	"github.com/hyperjump/reviewlens/internal/server"
	"github.com/hyperjump/reviewlens/internal/storage"
	"github.com/hyperjump/reviewlens/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/reviewlens/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if it exists; when neither exists the built-in
// defaults are used. Returns the config and the path actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := config.Default()
			if err := config.ApplyEnv(cfg); err != nil {
				return nil, "", err
			}
			if err := config.Validate(cfg); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "run":
		runPipeline()
	case "clean":
		runClean()
	case "status":
		runStatus()
	case "search":
		runSearch()
	case "serve", "server":
		runServer()
	case "version", "--version", "-v":
		fmt.Printf("reviewlens version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "Failed to %s: %v\n", what, err)
	os.Exit(1)
}

// newLogger returns a logger for one-shot commands: debug builds a
// development logger, otherwise only warnings and errors are shown.
func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, err := utils.NewLogger(true)
		if err != nil {
			fail("create logger", err)
		}
		return logger
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		fail("create logger", err)
	}
	return logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		fail("parse flags", err)
	}
	return format
}

func runPipeline() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	input := fs.String("input", "", "raw reviews file (csv, json, xlsx, ods); overrides input.path")
	outputDir := fs.String("output-dir", "", "artifact directory; overrides output.dir")
	noStore := fs.Bool("no-store", false, "skip persisting reviews to the database")
	noIndex := fs.Bool("no-index", false, "skip rebuilding the search index")
	format := fs.String("format", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fail("load config", err)
	}
	out := parseFormat(*format)
	if *input != "" {
		cfg.Input.Path = *input
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *noStore {
		cfg.Storage.Disabled = true
	}
	if *noIndex {
		cfg.Storage.SearchIndexPath = ""
	}

	logger := newLogger(cfg.Debug || *debug)
	defer logger.Sync()
	logger.Debug("config loaded", zap.String("config_path", resolved))

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		fail("initialize pipeline", err)
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := p.Run(ctx, cfg.Input.Path)
	if err != nil {
		fail("run pipeline", err)
	}
	if err := cli.WriteRunSummary(os.Stdout, cli.RunSummary{Report: res.Report, Artifacts: res.Artifacts}, out); err != nil {
		fail("write summary", err)
	}
}

func runClean() {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	input := fs.String("input", "", "raw reviews file; overrides input.path")
	outputDir := fs.String("output-dir", "", "directory for the cleaned CSV; overrides output.dir")
	format := fs.String("format", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fail("load config", err)
	}
	out := parseFormat(*format)
	if *input != "" {
		cfg.Input.Path = *input
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	logger := newLogger(cfg.Debug || *debug)
	defer logger.Sync()

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		fail("initialize pipeline", err)
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := p.Clean(ctx, cfg.Input.Path)
	if err != nil {
		fail("clean reviews", err)
	}
	summary := cli.CleanSummary{Stats: res.Stats, Quality: res.Quality}
	if cfg.Output.Dir != "" {
		path, err := export.WriteCleaned(cfg.Output.Dir, res.Reviews)
		if err != nil {
			fail("write cleaned reviews", err)
		}
		summary.Output = path
	}
	if err := cli.WriteCleanSummary(os.Stdout, summary, out); err != nil {
		fail("write summary", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fail("load config", err)
	}
	out := parseFormat(*format)

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		fail("open storage", err)
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()
	stats, err := store.Stats(ctx)
	if err != nil {
		fail("read storage stats", err)
	}
	if cfg.Storage.Driver != "mysql" {
		if size, err := storage.DiskUsage(cfg.Storage.DatabasePath, cfg.Storage.SearchIndexPath); err == nil {
			stats.DiskBytes = size
		}
	}
	if err := cli.WriteStatus(os.Stdout, stats, out); err != nil {
		fail("write status", err)
	}
}

// searchArgsReorder moves flags that appear after the query to the front so
// that flag.Parse sees them; the flag package stops at the first positional argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: reviewlens search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. An empty query lists reviews matching the filters.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  reviewlens search slow transfer
  reviewlens search --bank CBE --sentiment negative login
  reviewlens search --fuzzy 1 custmer suport
  reviewlens search --phrase-boost 3 app crashes
  reviewlens search --theme "Account Access Issues" --limit 5
`)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	fs.Usage = func() { printSearchUsage(fs) }
	configPath := fs.String("config", defaultConfigPath, "config file path")
	bank := fs.String("bank", "", "only reviews of this bank")
	sentiment := fs.String("sentiment", "", "only reviews with this label (positive, negative, neutral)")
	theme := fs.String("theme", "", "only reviews tagged with this theme")
	limit := fs.Int("limit", keyword.DefaultLimit, "maximum number of results")
	fuzzy := fs.Int("fuzzy", 0, "typo tolerance as an edit distance (0-2)")
	phraseBoost := fs.Float64("phrase-boost", 0, "score multiplier for reviews containing the query as an exact phrase (> 1 enables)")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fail("load config", err)
	}
	out := parseFormat(*format)

	label := models.Label(*sentiment)
	if label != "" && !isLabel(label) {
		fail("parse flags", fmt.Errorf("unknown sentiment %q", *sentiment))
	}
	if *phraseBoost < 0 {
		fail("parse flags", fmt.Errorf("phrase-boost must be >= 0, got %v", *phraseBoost))
	}
	if cfg.Storage.SearchIndexPath == "" {
		fail("open search index", errors.New("storage.search_index_path is not set"))
	}
	if _, err := os.Stat(cfg.Storage.SearchIndexPath); err != nil {
		fail("open search index", fmt.Errorf("%w (run `reviewlens run` first)", err))
	}
	idx, err := keyword.NewBleveIndex(cfg.Storage.SearchIndexPath)
	if err != nil {
		fail("open search index", err)
	}
	defer idx.Close()

	ctx, cancel := signalContext()
	defer cancel()
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	res, err := idx.Search(ctx, query, keyword.SearchOptions{
		Bank:        *bank,
		Sentiment:   label,
		Theme:       *theme,
		Limit:       *limit,
		Fuzziness:   *fuzzy,
		PhraseBoost: *phraseBoost,
	})
	if err != nil {
		fail("search", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, res, out); err != nil {
		fail("write results", err)
	}
}

func isLabel(l models.Label) bool {
	for _, known := range models.Labels {
		if l == known {
			return true
		}
	}
	return false
}

func runServer() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-request logs)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fail("load config", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fail("create logger", err)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	var store storage.Store
	if !cfg.Storage.Disabled {
		store, err = storage.Open(cfg.Storage, storage.WithLogger(logger))
		if err != nil {
			logger.Warn("storage unavailable, status endpoint disabled", zap.Error(err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	var index keyword.ReviewIndex
	if cfg.Storage.SearchIndexPath != "" {
		bi, err := keyword.NewBleveIndex(cfg.Storage.SearchIndexPath, keyword.WithLogger(logger))
		if err != nil {
			logger.Warn("search index unavailable, search endpoint disabled", zap.Error(err))
		} else {
			index = bi
			defer bi.Close()
		}
	}

	reports := server.NewFileReports(filepath.Join(cfg.Output.Dir, export.ReportJSONName))
	srv := server.NewServer(reports, store, index, metrics.InitRegistry(), &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printUsage() {
	fmt.Println(`reviewlens - Bank app review analytics

Usage:
  reviewlens run [flags]              Run the full pipeline (clean, score, themes, insights, store, index, export)
  reviewlens clean [flags]            Clean the raw snapshot and print the data quality report
  reviewlens status [flags]           Verify what the database holds
  reviewlens search [flags] <query>   Search indexed reviews
  reviewlens serve [flags]            Start the HTTP API
  reviewlens version                  Show version
  reviewlens help                     Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/reviewlens/config.yaml, or ./config.yaml if present)
  --format string    Output format: text or json (default: text)
  --debug            Enable debug logging

Run Flags:
  --input string       Raw reviews file (csv, json, xlsx, ods)
  --output-dir string  Artifact directory
  --no-store           Skip persisting reviews
  --no-index           Skip rebuilding the search index

Search Flags:
  --bank string        Filter by bank
  --sentiment string   Filter by label: positive, negative, neutral
  --theme string       Filter by theme
  --limit int          Number of results (default: 20)
  --fuzzy int          Typo tolerance as an edit distance, 0-2 (default: 0)
  --phrase-boost float Rank exact phrase matches higher, e.g. 3 (default: off)

Environment:
  REVIEWLENS_* variables override config values, e.g. REVIEWLENS_STORAGE_DSN.

Examples:
  reviewlens run --input data/raw/reviews.csv
  reviewlens clean --format json
  reviewlens status
  reviewlens search --bank CBE --sentiment negative "slow transfer"
  reviewlens serve --debug`)
}
