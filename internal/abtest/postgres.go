package abtest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sidkm/sift/pkg/database"
)

// PostgresStore persists test documents as JSONB rows keyed by test
// name. Schema:
//
//	CREATE TABLE IF NOT EXISTS ab_tests (
//	    test_name  TEXT PRIMARY KEY,
//	    status     TEXT NOT NULL,
//	    document   JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE IF NOT EXISTS ab_test_history (
//	    id           BIGSERIAL PRIMARY KEY,
//	    test_name    TEXT NOT NULL,
//	    winner       TEXT NOT NULL,
//	    reason       TEXT NOT NULL,
//	    concluded_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a Store backed by the shared pool
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) save(ctx context.Context, test *Test, status string) error {
	doc, err := json.Marshal(test)
	if err != nil {
		return fmt.Errorf("marshal test document: %w", err)
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO ab_tests (test_name, status, document, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (test_name)
		DO UPDATE SET status = $2, document = $3, updated_at = now()`,
		test.TestName, status, doc)
	if err != nil {
		return fmt.Errorf("upsert test %s: %w", test.TestName, err)
	}
	return nil
}

func (s *PostgresStore) SaveActive(ctx context.Context, test *Test) error {
	return s.save(ctx, test, StatusActive)
}

func (s *PostgresStore) SaveCompleted(ctx context.Context, test *Test) error {
	return s.save(ctx, test, StatusCompleted)
}

// DeleteActive is a no-op for the row-per-test layout: SaveCompleted
// already flips the status column.
func (s *PostgresStore) DeleteActive(ctx context.Context, name string) error {
	return nil
}

func (s *PostgresStore) loadByStatus(ctx context.Context, status string) ([]*Test, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT document FROM ab_tests WHERE status = $1 ORDER BY test_name`, status)
	if err != nil {
		return nil, fmt.Errorf("query %s tests: %w", status, err)
	}
	defer rows.Close()

	var tests []*Test
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan test row: %w", err)
		}
		var t Test
		if err := json.Unmarshal(doc, &t); err != nil {
			return nil, fmt.Errorf("unmarshal test document: %w", err)
		}
		tests = append(tests, &t)
	}
	return tests, rows.Err()
}

func (s *PostgresStore) LoadActive(ctx context.Context) ([]*Test, error) {
	return s.loadByStatus(ctx, StatusActive)
}

func (s *PostgresStore) LoadCompleted(ctx context.Context) ([]*Test, error) {
	return s.loadByStatus(ctx, StatusCompleted)
}

func (s *PostgresStore) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO ab_test_history (test_name, winner, reason, concluded_at)
		VALUES ($1, $2, $3, $4)`,
		entry.TestName, entry.Winner, entry.Reason, entry.ConcludedAt)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT test_name, winner, reason, concluded_at
		FROM ab_test_history ORDER BY concluded_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.TestName, &e.Winner, &e.Reason, &e.ConcludedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
