package store

import (
	"context"

	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/forgetting"
)

// ForgetBelowThreshold hard-deletes every unpinned memory whose effective
// strength (spec §4.2) is below threshold, respecting invariant 5 (pinned
// memories are never deleted). Returns the number of memories removed.
// Each memory is deleted in its own transaction, so a failure part-way
// leaves the earlier deletions in place.
func (s *Store) ForgetBelowThreshold(ctx context.Context, now, threshold float64) (int, error) {
	memories, err := s.List(ctx, ListFilter{})
	if err != nil {
		return 0, err
	}

	var toDelete []string
	for _, m := range memories {
		if forgetting.ShouldPrune(m, now, threshold) {
			toDelete = append(toDelete, m.ID)
		}
	}

	for _, id := range toDelete {
		if err := s.Delete(ctx, id); err != nil {
			return 0, errs.New(errs.StorageUnavailable, "forget", "delete memory "+id, err)
		}
	}
	return len(toDelete), nil
}
