package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/reviewlens/internal/config"
	"github.com/hyperjump/reviewlens/internal/metrics"
	"github.com/hyperjump/reviewlens/internal/models"
	"github.com/hyperjump/reviewlens/pkg/utils"
)

// dedupPrefix is how many characters of review text identify a persisted review.
const dedupPrefix = 100

// dialect holds the statements that differ between SQL engines.
type dialect struct {
	name       string
	schema     []string
	upsertBank string
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func newSQLStore(db *sql.DB, d dialect, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertBanks inserts or updates banks by name and returns their IDs.
func (s *SQLStore) UpsertBanks(ctx context.Context, banks []config.BankConfig) (map[string]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(banks))
	for _, b := range banks {
		if _, err := tx.ExecContext(ctx, s.dialect.upsertBank, b.Name, b.AppName, b.Description); err != nil {
			return nil, fmt.Errorf("failed to upsert bank %s: %w", b.Name, err)
		}
		var id int64
		if err := tx.QueryRowContext(ctx, `SELECT bank_id FROM banks WHERE bank_name = ?`, b.Name).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to look up bank %s: %w", b.Name, err)
		}
		ids[b.Name] = id
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.logger.Info("banks upserted", zap.Int("banks", len(ids)))
	return ids, nil
}

type reviewKey struct {
	bankID int64
	text   string
	date   string
}

func keyOf(bankID int64, text string, date *string) reviewKey {
	k := reviewKey{bankID: bankID, text: utils.Prefix(text, dedupPrefix)}
	if date != nil {
		k.date = *date
	}
	return k
}

// existingKeys loads the identity of every persisted review.
func existingKeys(ctx context.Context, tx *sql.Tx) (map[reviewKey]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT bank_id, review_text, review_date FROM reviews`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := map[reviewKey]bool{}
	for rows.Next() {
		var (
			bankID int64
			text   string
			date   sql.NullString
		)
		if err := rows.Scan(&bankID, &text, &date); err != nil {
			return nil, err
		}
		var d *string
		if date.Valid {
			d = &date.String
		}
		keys[keyOf(bankID, text, d)] = true
	}
	return keys, rows.Err()
}

// InsertReviews inserts reviews not yet persisted.
func (s *SQLStore) InsertReviews(ctx context.Context, reviews []models.Review, bankIDs map[string]int64) (models.InsertResult, error) {
	var res models.InsertResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	existing, err := existingKeys(ctx, tx)
	if err != nil {
		return res, fmt.Errorf("failed to load existing reviews: %w", err)
	}
	s.logger.Debug("existing reviews loaded", zap.Int("keys", len(existing)))

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reviews (bank_id, review_text, rating, review_date, sentiment_label, sentiment_score, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return res, err
	}
	defer stmt.Close()

	unknown := map[string]int{}
	for _, r := range reviews {
		bankID, ok := bankIDs[r.Bank]
		if !ok {
			unknown[r.Bank]++
			res.UnknownBank++
			res.Skipped++
			continue
		}
		if existing[keyOf(bankID, r.Text, r.Date)] {
			res.Skipped++
			continue
		}
		if _, err := stmt.ExecContext(ctx, bankID, r.Text, r.Rating, nullString(r.Date),
			nullLabel(r.SentimentLabel), r.SentimentScore, r.Source); err != nil {
			return models.InsertResult{}, fmt.Errorf("failed to insert review: %w", err)
		}
		res.Inserted++
	}
	if err := tx.Commit(); err != nil {
		return models.InsertResult{}, err
	}

	for bank, n := range unknown {
		s.logger.Warn("skipped reviews of unknown bank", zap.String("bank", bank), zap.Int("reviews", n))
	}
	metrics.ObserveRecords("persist", "inserted", res.Inserted)
	metrics.ObserveRecords("persist", "skipped", res.Skipped)
	s.logger.Info("reviews persisted",
		zap.String("driver", s.dialect.name),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullLabel(l models.Label) any {
	if l == "" {
		return nil
	}
	return string(l)
}

// Stats reports totals, per-bank counts and average ratings, sentiment
// distribution, and the review date range.
func (s *SQLStore) Stats(ctx context.Context) (*models.StorageStats, error) {
	st := &models.StorageStats{Banks: []models.BankStat{}, Sentiment: map[models.Label]int{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&st.TotalReviews); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT b.bank_name, COUNT(r.review_id), AVG(r.rating)
		 FROM banks b LEFT JOIN reviews r ON b.bank_id = r.bank_id
		 GROUP BY b.bank_id, b.bank_name
		 ORDER BY COUNT(r.review_id) DESC, b.bank_name`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			bs  models.BankStat
			avg sql.NullFloat64
		)
		if err := rows.Scan(&bs.Bank, &bs.Reviews, &avg); err != nil {
			rows.Close()
			return nil, err
		}
		bs.AvgRating = utils.Round(avg.Float64, 2)
		st.Banks = append(st.Banks, bs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT sentiment_label, COUNT(*) FROM reviews
		 WHERE sentiment_label IS NOT NULL GROUP BY sentiment_label`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			rows.Close()
			return nil, err
		}
		st.Sentiment[models.Label(label)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE sentiment_label IS NULL`).Scan(&st.MissingSentiment); err != nil {
		return nil, err
	}

	var earliest, latest sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT MIN(review_date), MAX(review_date) FROM reviews WHERE review_date IS NOT NULL`).Scan(&earliest, &latest); err != nil {
		return nil, err
	}
	if earliest.Valid {
		st.EarliestDate = &earliest.String
		st.LatestDate = &latest.String
	}
	return st, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
