package store

import (
	"context"

	"github.com/rcliao/engram/internal/errs"
)

// Stats summarizes the engine's current population (spec §6.1 stats).
type Stats struct {
	Total           int
	ByLayer         map[string]int
	ByType          map[string]int
	PinnedCount     int
	AvgImportance   float64
	AvgWorking      float64
	AvgCore         float64
	HebbianLinks    int
}

// Stats aggregates counts and averages across the current memory
// population in a handful of single-purpose queries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByLayer: map[string]int{}, ByType: map[string]int{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.Total); err != nil {
		return st, errs.New(errs.StorageUnavailable, "stats", "count memories", err)
	}
	if st.Total == 0 {
		return st, nil
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE pinned = 1`).Scan(&st.PinnedCount); err != nil {
		return st, errs.New(errs.StorageUnavailable, "stats", "count pinned", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT AVG(importance), AVG(working_strength), AVG(core_strength) FROM memories`).
		Scan(&st.AvgImportance, &st.AvgWorking, &st.AvgCore); err != nil {
		return st, errs.New(errs.StorageUnavailable, "stats", "average strengths", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hebbian_links WHERE strength > 0 AND source_id <= target_id`).Scan(&st.HebbianLinks); err != nil {
		return st, errs.New(errs.StorageUnavailable, "stats", "count hebbian links", err)
	}

	layerRows, err := s.db.QueryContext(ctx, `SELECT layer, COUNT(*) FROM memories GROUP BY layer`)
	if err != nil {
		return st, errs.New(errs.StorageUnavailable, "stats", "group by layer", err)
	}
	for layerRows.Next() {
		var layer string
		var n int
		if err := layerRows.Scan(&layer, &n); err != nil {
			layerRows.Close()
			return st, errs.New(errs.StorageUnavailable, "stats", "scan layer group", err)
		}
		st.ByLayer[layer] = n
	}
	layerRows.Close()

	typeRows, err := s.db.QueryContext(ctx, `SELECT memory_type, COUNT(*) FROM memories GROUP BY memory_type`)
	if err != nil {
		return st, errs.New(errs.StorageUnavailable, "stats", "group by type", err)
	}
	for typeRows.Next() {
		var t string
		var n int
		if err := typeRows.Scan(&t, &n); err != nil {
			typeRows.Close()
			return st, errs.New(errs.StorageUnavailable, "stats", "scan type group", err)
		}
		st.ByType[t] = n
	}
	typeRows.Close()

	return st, nil
}
