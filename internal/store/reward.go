package store

import (
	"context"
	"database/sql"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/reward"
)

// ApplyReward modulates the N most recently accessed memories per spec
// §4.4, in one transaction. Position 0 is the oldest of the window (per
// the spec's w_k = gamma^k with k=0 oldest), so the N rows are read
// newest-first then walked in reverse when assigning positions.
func (s *Store) ApplyReward(ctx context.Context, score float64, cfg config.RewardConfig) (int, error) {
	n := cfg.WindowSize
	if n <= 0 {
		n = 3
	}

	var modulated int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, working_strength, stability FROM memories ORDER BY last_accessed_at DESC LIMIT ?`, n)
		if err != nil {
			return errs.New(errs.StorageUnavailable, "reward", "query recent memories", err)
		}
		type row struct {
			id         string
			working    float64
			stability  float64
		}
		var recent []row
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.id, &r.working, &r.stability); err != nil {
				rows.Close()
				return errs.New(errs.StorageUnavailable, "reward", "scan recent memory", err)
			}
			recent = append(recent, r)
		}
		rows.Close()

		for i, r := range recent {
			k := len(recent) - 1 - i // position 0 = oldest of the window
			delta := reward.Apply(score, k, cfg)
			working := r.working*delta.WorkingStrengthMul + delta.WorkingStrengthDelta
			stability := r.stability * delta.StabilityMul
			if _, err := tx.ExecContext(ctx, `UPDATE memories SET working_strength = ?, stability = ? WHERE id = ?`,
				working, stability, r.id); err != nil {
				return errs.New(errs.StorageUnavailable, "reward", "update memory", err)
			}
			modulated++
		}
		return nil
	})
	return modulated, err
}

// ClampWorkingStrength is the anomaly safety valve (spec §9 AnomalyConfig):
// repeated reward() calls can in principle push working_strength toward
// an unbounded value ahead of the next consolidate() cycle's downscaling;
// this caps it at max. Returns the ids that were clamped, so the caller
// can emit an AnomalyEvent per affected memory.
func (s *Store) ClampWorkingStrength(ctx context.Context, max float64) ([]string, error) {
	var clamped []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id FROM memories WHERE working_strength > ?`, max)
		if err != nil {
			return errs.New(errs.StorageUnavailable, "reward", "query anomalous memories", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return errs.New(errs.StorageUnavailable, "reward", "scan anomalous memory", err)
			}
			ids = append(ids, id)
		}
		rows.Close()

		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `UPDATE memories SET working_strength = ? WHERE id = ?`, max, id); err != nil {
				return errs.New(errs.StorageUnavailable, "reward", "clamp working_strength", err)
			}
		}
		clamped = ids
		return nil
	})
	return clamped, err
}
