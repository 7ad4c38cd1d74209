package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS banks (
			bank_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			bank_name VARCHAR(100) NOT NULL UNIQUE,
			app_name VARCHAR(255),
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_banks_bank_name (bank_name)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reviews (
			review_id BIGINT AUTO_INCREMENT PRIMARY KEY,
			bank_id BIGINT NOT NULL,
			review_text TEXT NOT NULL,
			rating DECIMAL(2,1) CHECK (rating >= 1 AND rating <= 5),
			review_date CHAR(10),
			sentiment_label VARCHAR(20),
			sentiment_score DECIMAL(5,4),
			source VARCHAR(100),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_reviews_bank_id (bank_id),
			INDEX idx_reviews_rating (rating),
			INDEX idx_reviews_sentiment_label (sentiment_label),
			INDEX idx_reviews_review_date (review_date),
			CONSTRAINT fk_reviews_bank FOREIGN KEY (bank_id) REFERENCES banks(bank_id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	upsertBank: `INSERT IGNORE INTO banks (bank_name, app_name, description) VALUES (?, ?, ?)`,
}

// NewMySQLStore connects to dsn, verifies the connection, and initializes the schema.
func NewMySQLStore(dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	s, err := newSQLStore(db, mysqlDialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
