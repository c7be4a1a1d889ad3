package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/loanqa/internal/contracts"
)

// ErrNotFound is returned when no snapshot matches the query
var ErrNotFound = errors.New("quality snapshot not found")

// Repository handles data quality snapshot persistence
// ⭐ SSOT: 품질 스냅샷 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quality repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS quality;

	CREATE TABLE IF NOT EXISTS quality.runs (
		run_id          UUID PRIMARY KEY,
		started_at      TIMESTAMPTZ NOT NULL,
		duration_ms     BIGINT NOT NULL,
		source          TEXT NOT NULL,
		removed_loans   INTEGER NOT NULL,
		payload         JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS runs_started_at_idx ON quality.runs (started_at DESC);
`

// EnsureSchema creates the runs table when it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure quality schema: %w", err)
	}
	return nil
}

// SaveSnapshot saves a data quality snapshot
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *contracts.QualitySnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode quality snapshot: %w", err)
	}

	query := `
		INSERT INTO quality.runs (
			run_id, started_at, duration_ms, source, removed_loans, payload
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			duration_ms = EXCLUDED.duration_ms,
			source = EXCLUDED.source,
			removed_loans = EXCLUDED.removed_loans,
			payload = EXCLUDED.payload
	`

	_, err = r.pool.Exec(ctx, query,
		snapshot.RunID,
		snapshot.StartedAt,
		snapshot.DurationMS,
		snapshot.Source,
		snapshot.RemovedCount(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("save quality snapshot: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent quality snapshot
func (r *Repository) GetLatest(ctx context.Context) (*contracts.QualitySnapshot, error) {
	query := `
		SELECT payload
		FROM quality.runs
		ORDER BY started_at DESC
		LIMIT 1
	`
	snapshot, err := r.scanOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get latest quality snapshot: %w", err)
	}
	return snapshot, nil
}

// GetByRunID retrieves a quality snapshot by run id
func (r *Repository) GetByRunID(ctx context.Context, runID uuid.UUID) (*contracts.QualitySnapshot, error) {
	query := `
		SELECT payload
		FROM quality.runs
		WHERE run_id = $1
	`
	snapshot, err := r.scanOne(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get quality snapshot %s: %w", runID, err)
	}
	return snapshot, nil
}

// List returns up to limit snapshots, newest first
func (r *Repository) List(ctx context.Context, limit int) ([]*contracts.QualitySnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT payload
		FROM quality.runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list quality snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*contracts.QualitySnapshot, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan quality snapshot: %w", err)
		}
		snapshot, err := decodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quality snapshots: %w", err)
	}

	return snapshots, nil
}

func (r *Repository) scanOne(ctx context.Context, query string, args ...interface{}) (*contracts.QualitySnapshot, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, query, args...).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(payload)
}

func decodeSnapshot(payload []byte) (*contracts.QualitySnapshot, error) {
	var snapshot contracts.QualitySnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode quality snapshot: %w", err)
	}
	return &snapshot, nil
}
