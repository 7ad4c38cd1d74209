// Package storage persists banks and scored reviews in a relational store.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/models"
)

// Store persists the bank catalog and reviews.
type Store interface {
	// UpsertBanks inserts missing catalog entries by name in one transaction
	// and returns bank IDs keyed by name. Existing rows are reused untouched.
	UpsertBanks(ctx context.Context, banks []config.BankConfig) (map[string]int64, error)
	// InsertReviews writes reviews in one transaction. Reviews whose
	// (bank, first 100 characters of text, date) match a persisted row, and
	// reviews of banks missing from bankIDs, are skipped.
	InsertReviews(ctx context.Context, reviews []models.Review, bankIDs map[string]int64) (models.InsertResult, error)
	// Stats summarizes what the store holds.
	Stats(ctx context.Context) (*models.StorageStats, error)
	Close() error
}

// Option configures a store.
type Option func(*SQLStore)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *SQLStore) { s.logger = l }
}

// Open opens the store selected by cfg.Driver.
func Open(cfg config.StorageConfig, opts ...Option) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.DatabasePath, opts...)
	case "mysql":
		return NewMySQLStore(cfg.DSN, opts...)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
