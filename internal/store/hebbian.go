package store

import (
	"context"
	"database/sql"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/hebbian"
	"github.com/rcliao/engram/internal/model"
)

// HebbianParams is an alias of config.HebbianConfig, the settings
// internal/hebbian's pure transitions read.
type HebbianParams = config.HebbianConfig

// FormedLink reports a pair that crossed the formation threshold during
// one RecordRetrievals/RecordCoactivation call, for the caller to emit a
// LinkFormedEvent.
type FormedLink struct {
	SourceID string
	TargetID string
}

func upsertLinkTx(ctx context.Context, tx *sql.Tx, l model.HebbianLink) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO hebbian_links (source_id, target_id, strength, coactivation_count) VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id, target_id) DO UPDATE SET strength = excluded.strength, coactivation_count = excluded.coactivation_count`,
		l.SourceID, l.TargetID, l.Strength, l.CoactivationCount)
	if err != nil {
		return errs.New(errs.StorageUnavailable, "hebbian", "upsert link", err)
	}
	return nil
}

// recordCoactivationTx advances every canonical pair in ids by one
// co-activation, writing both directional rows whenever a pair forms or
// reinforces (spec invariant 4).
func recordCoactivationTx(ctx context.Context, tx *sql.Tx, ids []string, cfg HebbianParams) ([]FormedLink, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var formed []FormedLink
	for _, pair := range hebbian.Pairs(ids) {
		a, b := pair[0], pair[1]
		existing, err := getLinkTxStatic(ctx, tx, a, b)
		if err != nil {
			return nil, err
		}
		t := hebbian.OnCoactivation(existing, a, b, cfg)
		if err := upsertLinkTx(ctx, tx, t.Link); err != nil {
			return nil, err
		}
		// Mirror row: canonical (a,b) already satisfies a<=b, but we also
		// store the reverse (b,a) so neighbor lookups from either side are
		// a single indexed query without an OR clause.
		mirror := t.Link
		mirror.SourceID, mirror.TargetID = b, a
		if err := upsertLinkTx(ctx, tx, mirror); err != nil {
			return nil, err
		}
		if t.Formed {
			formed = append(formed, FormedLink{SourceID: a, TargetID: b})
		}
	}
	return formed, nil
}

// getLinkTxStatic looks up the canonical (a,b) row for a pair, the shape
// OnCoactivation expects as "existing".
func getLinkTxStatic(ctx context.Context, tx *sql.Tx, a, b string) (*model.HebbianLink, error) {
	row := tx.QueryRowContext(ctx, `SELECT source_id, target_id, strength, coactivation_count FROM hebbian_links WHERE source_id = ? AND target_id = ?`, a, b)
	var l model.HebbianLink
	err := row.Scan(&l.SourceID, &l.TargetID, &l.Strength, &l.CoactivationCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "hebbian", "scan link", err)
	}
	return &l, nil
}

// RecordCoactivation is the standalone entry point for callers that want
// to bump co-activation counts without also appending access records.
// The façade's recall path goes through RecordRetrievals instead.
func (s *Store) RecordCoactivation(ctx context.Context, ids []string, cfg HebbianParams) ([]FormedLink, error) {
	var formed []FormedLink
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		f, err := recordCoactivationTx(ctx, tx, ids, cfg)
		formed = f
		return err
	})
	return formed, err
}

// Strengthen applies an explicit boost to both directions of a formed
// link (spec §4.3 strengthen).
func (s *Store) Strengthen(ctx context.Context, id1, id2 string, boost float64, cfg HebbianParams) error {
	a, b := model.CanonicalPair(id1, id2)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := getLinkTxStatic(ctx, tx, a, b)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		next := hebbian.Strengthen(*existing, boost, cfg)
		if err := upsertLinkTx(ctx, tx, next); err != nil {
			return err
		}
		mirror := next
		mirror.SourceID, mirror.TargetID = b, a
		return upsertLinkTx(ctx, tx, mirror)
	})
}

// DecayLinks multiplies every link's strength by factor, pruning rows
// that fall below pruneBelow (spec §4.3 decay). Returns the number of
// canonical pairs pruned.
func (s *Store) DecayLinks(ctx context.Context, factor, pruneBelow float64) (int, error) {
	var pruned int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT source_id, target_id, strength, coactivation_count FROM hebbian_links WHERE source_id <= target_id`)
		if err != nil {
			return errs.New(errs.StorageUnavailable, "decay", "query links", err)
		}
		var links []model.HebbianLink
		for rows.Next() {
			var l model.HebbianLink
			if err := rows.Scan(&l.SourceID, &l.TargetID, &l.Strength, &l.CoactivationCount); err != nil {
				rows.Close()
				return errs.New(errs.StorageUnavailable, "decay", "scan link", err)
			}
			links = append(links, l)
		}
		rows.Close()

		for _, l := range links {
			result := hebbian.Decay(l, factor, pruneBelow)
			if result.Prune {
				if _, err := tx.ExecContext(ctx, `DELETE FROM hebbian_links WHERE (source_id = ? AND target_id = ?) OR (source_id = ? AND target_id = ?)`,
					l.SourceID, l.TargetID, l.TargetID, l.SourceID); err != nil {
					return errs.New(errs.StorageUnavailable, "decay", "delete link", err)
				}
				pruned++
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
	})
	return pruned, err
}

// Neighbors returns the ids of formed links (strength > 0) touching id.
func (s *Store) Neighbors(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target_id FROM hebbian_links WHERE source_id = ? AND strength > 0`, id)
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "neighbors", "query links", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, errs.New(errs.StorageUnavailable, "neighbors", "scan link", err)
		}
		out = append(out, target)
	}
	return out, nil
}
