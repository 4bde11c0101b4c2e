package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ValuationRepo stores and retrieves valuation run documents.
//
// Schema assumption (managed by migrations elsewhere):
//
//	CREATE TABLE IF NOT EXISTS dcf_valuations (
//	  ticker      TEXT NOT NULL,
//	  model       TEXT NOT NULL,
//	  run_id      TEXT,
//	  result_json JSONB,
//	  updated_at  TIMESTAMPTZ,
//	  PRIMARY KEY (ticker, model)
//	);
type ValuationRepo struct{}

// NewValuationRepo creates a repository instance.
func NewValuationRepo() *ValuationRepo {
	return &ValuationRepo{}
}

// Save upserts the latest result document for a ticker/model pair. The
// result can be any of the model output types; it is stored as JSONB.
func (r *ValuationRepo) Save(ctx context.Context, ticker, model, runID string, result interface{}) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal valuation result: %w", err)
	}

	query := `
		INSERT INTO dcf_valuations (ticker, model, run_id, result_json, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker, model)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			result_json = EXCLUDED.result_json,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := pool.Exec(ctx, query, ticker, model, runID, jsonData, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save valuation: %w", err)
	}
	return nil
}

// Load unmarshals the latest stored result for a ticker/model pair into out.
// Returns (false, nil) when no run has been stored yet.
func (r *ValuationRepo) Load(ctx context.Context, ticker, model string, out interface{}) (bool, error) {
	pool := GetPool()
	if pool == nil {
		return false, fmt.Errorf("database pool not initialized")
	}

	var jsonData []byte
	query := `SELECT result_json FROM dcf_valuations WHERE ticker = $1 AND model = $2;`
	err := pool.QueryRow(ctx, query, ticker, model).Scan(&jsonData)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load valuation: %w", err)
	}
	if err := json.Unmarshal(jsonData, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal valuation: %w", err)
	}
	return true, nil
}

// History lists the stored models and timestamps for a ticker.
func (r *ValuationRepo) History(ctx context.Context, ticker string) (map[string]time.Time, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx,
		`SELECT model, updated_at FROM dcf_valuations WHERE ticker = $1;`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var model string
		var at time.Time
		if err := rows.Scan(&model, &at); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out[model] = at
	}
	return out, rows.Err()
}
