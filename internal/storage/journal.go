// Package storage persists a local journal of order activity so fills
// and rejections survive restarts. SQLite in WAL mode keeps writes
// cheap on the submit path.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"venue_go/internal/domain"
	"venue_go/internal/enums"
)

// Journal records every order result returned by a venue.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) the journal database with WAL enabled.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			venue TEXT NOT NULL,
			venue_order_id TEXT NOT NULL,
			client_order_id TEXT NOT NULL DEFAULT '',
			symbol TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			payload BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (venue, venue_order_id)
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders table: %w", err)
	}
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_orders_client
		ON orders (venue, client_order_id);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create client index: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record upserts the latest known state of an order. Later states
// replace earlier ones; the full result rides along as JSON.
func (j *Journal) Record(ctx context.Context, v enums.Venue, res domain.OrderResult) error {
	if res.VenueOrderID == "" {
		return fmt.Errorf("journal: result has no venue order id")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("journal: marshal result: %w", err)
	}

	updatedAt := res.UpdatedAtMillis
	if updatedAt == 0 {
		updatedAt = res.CreatedAtMillis
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO orders (venue, venue_order_id, client_order_id, symbol, status, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(venue, venue_order_id) DO UPDATE SET
			client_order_id=excluded.client_order_id,
			symbol=excluded.symbol,
			status=excluded.status,
			payload=excluded.payload,
			updated_at=excluded.updated_at`,
		string(v), res.VenueOrderID, res.ClientOrderID, res.Symbol, string(res.Status), payload, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("journal: upsert order: %w", err)
	}
	return nil
}

// Get returns the journaled state of an order, or sql.ErrNoRows.
func (j *Journal) Get(ctx context.Context, v enums.Venue, venueOrderID string) (domain.OrderResult, error) {
	var payload []byte
	err := j.db.QueryRowContext(ctx,
		"SELECT payload FROM orders WHERE venue = ? AND venue_order_id = ?",
		string(v), venueOrderID,
	).Scan(&payload)
	if err != nil {
		return domain.OrderResult{}, err
	}

	var res domain.OrderResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return domain.OrderResult{}, fmt.Errorf("journal: unmarshal order %s: %w", venueOrderID, err)
	}
	return res, nil
}

// GetByClientID looks an order up by its client order id.
func (j *Journal) GetByClientID(ctx context.Context, v enums.Venue, clientOrderID string) (domain.OrderResult, error) {
	var payload []byte
	err := j.db.QueryRowContext(ctx,
		"SELECT payload FROM orders WHERE venue = ? AND client_order_id = ? ORDER BY updated_at DESC LIMIT 1",
		string(v), clientOrderID,
	).Scan(&payload)
	if err != nil {
		return domain.OrderResult{}, err
	}

	var res domain.OrderResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return domain.OrderResult{}, fmt.Errorf("journal: unmarshal order for %s: %w", clientOrderID, err)
	}
	return res, nil
}

// Recent returns up to limit journaled orders for a venue, newest first.
func (j *Journal) Recent(ctx context.Context, v enums.Venue, limit int) ([]domain.OrderResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		"SELECT payload FROM orders WHERE venue = ? ORDER BY updated_at DESC LIMIT ?",
		string(v), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent: %w", err)
	}
	defer rows.Close()

	var results []domain.OrderResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("journal: scan order: %w", err)
		}
		var res domain.OrderResult
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("journal: unmarshal order: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: rows iteration error: %w", err)
	}
	return results, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}
