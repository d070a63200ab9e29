// Package db persists served predictions to SQLite for auditing.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    batch_index INTEGER NOT NULL DEFAULT 0,
    features TEXT NOT NULL,
    prediction INTEGER NOT NULL,
    probability REAL NOT NULL,
    prediction_label TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at);
`

// DefaultRecentLimit is used when Recent is called without a positive limit.
const DefaultRecentLimit = 50

// PredictionEntry is one audited prediction.
type PredictionEntry struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"request_id"`
	BatchIndex  int       `json:"batch_index"`
	Features    []float64 `json:"features"`
	Prediction  int       `json:"prediction"`
	Probability float64   `json:"probability"`
	Label       string    `json:"prediction_label"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditLog is a SQLite backed prediction log.
type AuditLog struct {
	database *sql.DB
	now      func() time.Time
}

// Open opens (or creates) the audit database at path.
func Open(path string) (*AuditLog, error) {
	if path == "" {
		return nil, errors.New("audit database path required")
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	database.SetMaxOpenConns(1)

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, err
	}
	return &AuditLog{database: database, now: time.Now}, nil
}

// SavePredictions stores entries in one transaction. CreatedAt is set when
// zero.
func (a *AuditLog) SavePredictions(ctx context.Context, entries []PredictionEntry) error {
	if a == nil || a.database == nil {
		return errors.New("database not initialized")
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := a.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO predictions (
            request_id, batch_index, features, prediction, probability, prediction_label, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := a.now().UTC()
	for _, e := range entries {
		features, err := json.Marshal(e.Features)
		if err != nil {
			tx.Rollback()
			return err
		}
		created := e.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx, e.RequestID, e.BatchIndex, string(features),
			e.Prediction, e.Probability, e.Label, created); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Recent returns the newest entries first.
func (a *AuditLog) Recent(ctx context.Context, limit int) ([]PredictionEntry, error) {
	if a == nil || a.database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := a.database.QueryContext(ctx, `
        SELECT id, request_id, batch_index, features, prediction, probability, prediction_label, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]PredictionEntry, 0)
	for rows.Next() {
		var (
			e        PredictionEntry
			features string
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.BatchIndex, &features,
			&e.Prediction, &e.Probability, &e.Label, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &e.Features); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored predictions.
func (a *AuditLog) Count(ctx context.Context) (int, error) {
	if a == nil || a.database == nil {
		return 0, errors.New("database not initialized")
	}
	var n int
	err := a.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (a *AuditLog) Close() error {
	if a == nil || a.database == nil {
		return nil
	}
	return a.database.Close()
}
