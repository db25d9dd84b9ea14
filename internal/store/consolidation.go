package store

import (
	"context"
	"database/sql"
	"math/rand"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/consolidation"
	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/hebbian"
	"github.com/rcliao/engram/internal/model"
)

// Consolidate runs one full sleep cycle (spec §4.5) as a single
// transaction: working decay, transfer, core decay, replay, layer
// reclassification, Hebbian decay, and downscaling. Observers see either
// the pre- or post-state, never a partial cycle.
func (s *Store) Consolidate(ctx context.Context, days float64, cfg config.ConsolidationConfig, hebbianCfg HebbianParams, downscaleFactor float64, now float64, rng *rand.Rand) (consolidation.Summary, error) {
	var summary consolidation.Summary
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		memories, err := queryAllMemoriesTx(ctx, tx)
		if err != nil {
			return err
		}
		summary.Processed = len(memories)

		replaySet := make(map[string]bool)
		if days > 0 {
			recentCutoff := now - 24*3600
			var recentIDs []string
			var olderPool []consolidation.WeightedID
			for _, m := range memories {
				if m.CreatedAt >= recentCutoff {
					recentIDs = append(recentIDs, m.ID)
				} else {
					olderPool = append(olderPool, consolidation.WeightedID{ID: m.ID, Importance: m.Importance})
				}
			}
			for _, id := range consolidation.SelectReplaySample(recentIDs, olderPool, cfg.InterleaveRatio, rng) {
				replaySet[id] = true
			}
		}
		summary.Replayed = len(replaySet)

		for _, m := range memories {
			prevLayer := m.Layer
			m = consolidation.StepDecayTransfer(m, days, cfg)
			if replaySet[m.ID] {
				m = consolidation.ApplyReplayBoost(m, cfg)
				if err := appendSyntheticAccessTx(ctx, tx, m.ID, now); err != nil {
					return err
				}
			}
			m.Layer = consolidation.ClassifyLayer(m, cfg)
			if days > 0 {
				m = consolidation.Downscale(m, downscaleFactor)
			}

			if err := updateConsolidationRowTx(ctx, tx, m); err != nil {
				return err
			}
			switch {
			case m.Layer == prevLayer:
			case m.Layer == model.LayerCore:
				summary.Promoted++
			case m.Layer == model.LayerArchive:
				summary.Archived++
			default:
				summary.Demoted++
			}
		}

		return decayLinksTx(ctx, tx, hebbianCfg.DecayFactor, hebbianCfg.PruneBelow)
	})
	return summary, err
}

func queryAllMemoriesTx(ctx context.Context, tx *sql.Tx) ([]model.Memory, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+memoryColumns+` FROM memories`)
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "consolidate", "query memories", err)
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, errs.New(errs.StorageUnavailable, "consolidate", "scan memory", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func updateConsolidationRowTx(ctx context.Context, tx *sql.Tx, m model.Memory) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE memories SET working_strength = ?, core_strength = ?, layer = ? WHERE id = ?`,
		m.WorkingStrength, m.CoreStrength, string(m.Layer), m.ID)
	if err != nil {
		return errs.New(errs.StorageUnavailable, "consolidate", "update memory", err)
	}
	return nil
}

// decayLinksTx is consolidation's in-transaction hook into the same
// decay logic DecayLinks exposes standalone (spec §4.5 step 6).
func decayLinksTx(ctx context.Context, tx *sql.Tx, factor, pruneBelow float64) error {
	rows, err := tx.QueryContext(ctx, `SELECT source_id, target_id, strength, coactivation_count FROM hebbian_links WHERE source_id <= target_id`)
	if err != nil {
		return errs.New(errs.StorageUnavailable, "consolidate", "query links", err)
	}
	var links []model.HebbianLink
	for rows.Next() {
		var l model.HebbianLink
		if err := rows.Scan(&l.SourceID, &l.TargetID, &l.Strength, &l.CoactivationCount); err != nil {
			rows.Close()
			return errs.New(errs.StorageUnavailable, "consolidate", "scan link", err)
		}
		links = append(links, l)
	}
	rows.Close()

	for _, l := range links {
		result := hebbian.Decay(l, factor, pruneBelow)
		if result.Prune {
			if _, err := tx.ExecContext(ctx, `DELETE FROM hebbian_links WHERE (source_id = ? AND target_id = ?) OR (source_id = ? AND target_id = ?)`,
				l.SourceID, l.TargetID, l.TargetID, l.SourceID); err != nil {
				return errs.New(errs.StorageUnavailable, "consolidate", "delete link", err)
			}
			continue
		}
		if err := upsertLinkTx(ctx, tx, result.Link); err != nil {
			return err
		}
		mirror := result.Link
		mirror.SourceID, mirror.TargetID = result.Link.TargetID, result.Link.SourceID
		if err := upsertLinkTx(ctx, tx, mirror); err != nil {
			return err
		}
	}
	return nil
}

// Downscale multiplies every unpinned memory's strengths by factor in one
// transaction (spec §6.1 downscale), independent of a full consolidate
// cycle. Returns the count of memories updated.
func (s *Store) Downscale(ctx context.Context, factor float64) (int, error) {
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		memories, err := queryAllMemoriesTx(ctx, tx)
		if err != nil {
			return err
		}
		for _, m := range memories {
			if m.Pinned {
				continue
			}
			next := consolidation.Downscale(m, factor)
			if _, err := tx.ExecContext(ctx, `UPDATE memories SET working_strength = ?, core_strength = ? WHERE id = ?`,
				next.WorkingStrength, next.CoreStrength, m.ID); err != nil {
				return errs.New(errs.StorageUnavailable, "downscale", "update memory", err)
			}
			count++
		}
		return nil
	})
	return count, err
}
