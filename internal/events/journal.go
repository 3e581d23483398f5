package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Journal is the append-only audit trail. It runs on a ledger-profile
// database: every write is fsynced and rows are never deleted.
type Journal struct {
	db  *sql.DB
	log zerolog.Logger
}

// StoredEvent is a journaled event as read back from the database. The
// payload stays raw JSON because readers rarely need the typed form.
type StoredEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS events (
	id        TEXT PRIMARY KEY,
	type      TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	data      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
`

// NewJournal creates the journal, initializing its schema if needed.
func NewJournal(db *sql.DB, log zerolog.Logger) (*Journal, error) {
	if _, err := db.Exec(journalSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize events schema: %w", err)
	}
	return &Journal{
		db:  db,
		log: log.With().Str("repo", "events").Logger(),
	}, nil
}

// Append writes a single event row.
func (j *Journal) Append(evt Event) error {
	payload, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = j.db.Exec(
		"INSERT INTO events (id, type, timestamp, data) VALUES (?, ?, ?, ?)",
		evt.ID, string(evt.Type), evt.Timestamp.Format(time.RFC3339Nano), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.db.Query(
		"SELECT id, type, timestamp, data FROM events ORDER BY timestamp DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var result []StoredEvent
	for rows.Next() {
		var evt StoredEvent
		var ts, data string
		if err := rows.Scan(&evt.ID, &evt.Type, &ts, &data); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		evt.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp: %w", err)
		}
		evt.Data = json.RawMessage(data)
		result = append(result, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return result, nil
}

// ByType returns up to limit events of one type, newest first.
func (j *Journal) ByType(eventType EventType, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.db.Query(
		"SELECT id, type, timestamp, data FROM events WHERE type = ? ORDER BY timestamp DESC LIMIT ?",
		string(eventType), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by type: %w", err)
	}
	defer rows.Close()

	var result []StoredEvent
	for rows.Next() {
		var evt StoredEvent
		var ts, data string
		if err := rows.Scan(&evt.ID, &evt.Type, &ts, &data); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		evt.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp: %w", err)
		}
		evt.Data = json.RawMessage(data)
		result = append(result, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return result, nil
}
