package recommend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sidkm/sift/internal/contracts"
	"github.com/sidkm/sift/pkg/database"
)

// PostgresSnapshots persists scan snapshots. Schema:
//
//	CREATE TABLE IF NOT EXISTS scan_snapshots (
//	    id          BIGSERIAL PRIMARY KEY,
//	    strategy    TEXT NOT NULL,
//	    version     TEXT NOT NULL,
//	    combination JSONB NOT NULL,
//	    metrics     JSONB NOT NULL,
//	    payload     JSONB NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX IF NOT EXISTS idx_scan_snapshots_strategy
//	    ON scan_snapshots (strategy, created_at DESC);
type PostgresSnapshots struct {
	db *database.DB
}

// NewPostgresSnapshots creates a SnapshotStore backed by the shared pool
func NewPostgresSnapshots(db *database.DB) *PostgresSnapshots {
	return &PostgresSnapshots{db: db}
}

func (p *PostgresSnapshots) SaveSnapshot(ctx context.Context, snap contracts.ScanSnapshot) error {
	comb, err := json.Marshal(snap.Combination)
	if err != nil {
		return fmt.Errorf("marshal combination: %w", err)
	}
	metrics, err := json.Marshal(snap.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	payload, err := json.Marshal(snap.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}

	_, err = p.db.Pool.Exec(ctx, `
		INSERT INTO scan_snapshots (strategy, version, combination, metrics, payload)
		VALUES ($1, $2, $3, $4, $5)`,
		string(snap.Strategy), snap.Version, comb, metrics, payload)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (p *PostgresSnapshots) RecentSnapshots(ctx context.Context, strategy contracts.StrategyType, limit int) ([]contracts.ScanSnapshot, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := p.db.Pool.Query(ctx, `
		SELECT id, strategy, version, combination, metrics, payload, created_at
		FROM scan_snapshots
		WHERE strategy = $1
		ORDER BY created_at DESC
		LIMIT $2`, string(strategy), limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []contracts.ScanSnapshot
	for rows.Next() {
		var (
			snap     contracts.ScanSnapshot
			strategy string
			comb     []byte
			metrics  []byte
			payload  []byte
		)
		if err := rows.Scan(&snap.ID, &strategy, &snap.Version, &comb, &metrics, &payload, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Strategy = contracts.StrategyType(strategy)
		if err := json.Unmarshal(comb, &snap.Combination); err != nil {
			return nil, fmt.Errorf("unmarshal combination: %w", err)
		}
		if err := json.Unmarshal(metrics, &snap.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		if err := json.Unmarshal(payload, &snap.Recommendations); err != nil {
			return nil, fmt.Errorf("unmarshal recommendations: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
