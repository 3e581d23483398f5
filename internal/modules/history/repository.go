// Package history records share-price observations over time and derives
// return statistics from them.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is one share-price observation.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	TotalValue  uint64    `json:"total_value"`
	TotalShares uint64    `json:"total_shares"`
	SharePrice  float64   `json:"share_price"`
}

const historySchema = `
CREATE TABLE IF NOT EXISTS price_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp    TEXT NOT NULL,
	total_value  INTEGER NOT NULL,
	total_shares INTEGER NOT NULL,
	share_price  REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_timestamp ON price_history(timestamp);
`

// Repository handles price history database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the repository, initializing its schema if needed.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("failed to initialize price history schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}, nil
}

// Record appends one observation.
func (r *Repository) Record(snap Snapshot) error {
	_, err := r.db.Exec(
		"INSERT INTO price_history (timestamp, total_value, total_shares, share_price) VALUES (?, ?, ?, ?)",
		snap.Timestamp.UTC().Format(time.RFC3339Nano),
		int64(snap.TotalValue),
		int64(snap.TotalShares),
		snap.SharePrice,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit observations ordered oldest to newest.
func (r *Repository) Recent(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.db.Query(`
		SELECT timestamp, total_value, total_shares, share_price FROM (
			SELECT id, timestamp, total_value, total_shares, share_price
			FROM price_history ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var result []Snapshot
	for rows.Next() {
		var snap Snapshot
		var ts string
		var totalValue, totalShares int64
		if err := rows.Scan(&ts, &totalValue, &totalShares, &snap.SharePrice); err != nil {
			return nil, fmt.Errorf("failed to scan price history row: %w", err)
		}
		snap.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
		}
		snap.TotalValue = uint64(totalValue)
		snap.TotalShares = uint64(totalShares)
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price history rows: %w", err)
	}
	return result, nil
}
