package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS banks (
			bank_id INTEGER PRIMARY KEY AUTOINCREMENT,
			bank_name TEXT NOT NULL UNIQUE,
			app_name TEXT,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			review_id INTEGER PRIMARY KEY AUTOINCREMENT,
			bank_id INTEGER NOT NULL,
			review_text TEXT NOT NULL,
			rating REAL CHECK (rating >= 1 AND rating <= 5),
			review_date TEXT,
			sentiment_label TEXT,
			sentiment_score REAL,
			source TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (bank_id) REFERENCES banks(bank_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_bank_id ON reviews(bank_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_rating ON reviews(rating)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_sentiment_label ON reviews(sentiment_label)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_review_date ON reviews(review_date)`,
		`CREATE INDEX IF NOT EXISTS idx_banks_bank_name ON banks(bank_name)`,
	},
	upsertBank: `INSERT INTO banks (bank_name, app_name, description) VALUES (?, ?, ?)
		ON CONFLICT(bank_name) DO NOTHING`,
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s, err := newSQLStore(db, sqliteDialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
