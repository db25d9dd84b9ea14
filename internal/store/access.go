package store

import (
	"context"
	"database/sql"

	"github.com/rcliao/engram/internal/errs"
)

// AccessTimes returns every AccessRecord timestamp for a memory, used by
// the base-level activation term (spec §4.1).
func (s *Store) AccessTimes(ctx context.Context, memoryID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT accessed_at FROM access_records WHERE memory_id = ? ORDER BY accessed_at`, memoryID)
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "recall", "query access records", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, errs.New(errs.StorageUnavailable, "recall", "scan access record", err)
		}
		out = append(out, textToEpoch(text))
	}
	return out, nil
}

// appendAccessTx inserts one AccessRecord and bumps the owning memory's
// access_count, last_accessed_at, and stability (the beta growth factor
// from spec §3.3 "Mutate"). It does not touch working/core strength.
func appendAccessTx(ctx context.Context, tx *sql.Tx, memoryID string, now, stabilityGrowth float64) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO access_records (memory_id, accessed_at) VALUES (?, ?)`, memoryID, epochToText(now)); err != nil {
		return errs.New(errs.StorageUnavailable, "recall", "insert access record", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE memories SET access_count = access_count + 1, last_accessed_at = ?, stability = stability * ?
		WHERE id = ?`, epochToText(now), 1+stabilityGrowth, memoryID); err != nil {
		return errs.New(errs.StorageUnavailable, "recall", "bump access stats", err)
	}
	return nil
}

// appendSyntheticAccessTx appends a replay-sampled access record (spec
// §4.5 step 4) and bumps access_count so it keeps matching the record
// count (invariant 2). It leaves stability and last_accessed_at alone —
// consolidation's replay boosts core_strength directly and is not a
// "retrieval" in the §3.3 sense.
func appendSyntheticAccessTx(ctx context.Context, tx *sql.Tx, memoryID string, now float64) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO access_records (memory_id, accessed_at) VALUES (?, ?)`, memoryID, epochToText(now)); err != nil {
		return errs.New(errs.StorageUnavailable, "consolidate", "insert replay access record", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE memories SET access_count = access_count + 1 WHERE id = ?`, memoryID); err != nil {
		return errs.New(errs.StorageUnavailable, "consolidate", "bump replay access count", err)
	}
	return nil
}

// RecordRetrievals appends an AccessRecord and bumps stability for every
// id in ids, then feeds the batch into RecordCoactivation — all inside
// one transaction, matching the spec's "co-retrieval batch atomicity"
// design note (§9): a crash between the access appends and the Hebbian
// update could otherwise corrupt invariant 2.
func (s *Store) RecordRetrievals(ctx context.Context, ids []string, now, stabilityGrowth float64, hebbian HebbianParams) ([]FormedLink, error) {
	var formed []FormedLink
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := appendAccessTx(ctx, tx, id, now, stabilityGrowth); err != nil {
				return err
			}
		}
		f, err := recordCoactivationTx(ctx, tx, ids, hebbian)
		if err != nil {
			return err
		}
		formed = f
		return nil
	})
	return formed, err
}
