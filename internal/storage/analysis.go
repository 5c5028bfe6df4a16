package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pable/riftlens/internal/model"
)

// Get returns the cached insight record for playerKey, or nil, nil when the
// player has never been analysed.
func (db *DB) Get(ctx context.Context, playerKey string) (*model.AnalysisCacheRecord, error) {
	var (
		rec       model.AnalysisCacheRecord
		ids, ins  string
		updatedAt string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT player_key, run_id, processed_match_ids, last_updated, num_matches, recompute_reason, insights
		FROM analysis_cache WHERE player_key = ?`, playerKey).
		Scan(&rec.PlayerKey, &rec.RunID, &ids, &updatedAt, &rec.NumMatchesAnalyzed, &rec.RecomputeReason, &ins)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read analysis cache: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &rec.ProcessedMatchIDs); err != nil {
		return nil, fmt.Errorf("decode processed match ids: %w", err)
	}
	if err := json.Unmarshal([]byte(ins), &rec.Insights); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}
	if rec.LastUpdated, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("decode last_updated: %w", err)
	}
	return &rec, nil
}

// Put overwrites the cached record for rec.PlayerKey. The match ids and
// insights are written in one statement so they cannot drift apart.
func (db *DB) Put(ctx context.Context, rec *model.AnalysisCacheRecord) error {
	ids, err := json.Marshal(rec.ProcessedMatchIDs)
	if err != nil {
		return fmt.Errorf("encode processed match ids: %w", err)
	}
	ins, err := json.Marshal(rec.Insights)
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_cache(player_key, run_id, processed_match_ids, last_updated, num_matches, recompute_reason, insights)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.PlayerKey, rec.RunID, string(ids), rec.LastUpdated.UTC().Format(time.RFC3339Nano),
		rec.NumMatchesAnalyzed, rec.RecomputeReason, string(ins),
	)
	if err != nil {
		return fmt.Errorf("write analysis cache: %w", err)
	}
	return nil
}

// SaveAnalysis persists one final player analysis document.
func (db *DB) SaveAnalysis(ctx context.Context, a *model.PlayerAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO player_analyses(run_id, player_key, riot_id, cached, cache_reason, processed_at, narrative, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.PlayerKey, a.RiotID, boolInt(a.Cached), a.CacheReason,
		a.ProcessedAt.UTC().Format(time.RFC3339Nano), a.Narrative, string(payload),
	)
	if err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	return nil
}

// LatestAnalysis returns the most recent analysis for playerKey, or nil, nil.
func (db *DB) LatestAnalysis(ctx context.Context, playerKey string) (*model.PlayerAnalysis, error) {
	var payload string
	err := db.conn.QueryRowContext(ctx, `
		SELECT payload FROM player_analyses WHERE player_key = ?
		ORDER BY processed_at DESC LIMIT 1`, playerKey).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a model.PlayerAnalysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &a, nil
}
