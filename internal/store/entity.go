package store

import (
	"context"
	"database/sql"

	"github.com/rcliao/engram/internal/entity"
	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/model"
)

// indexEntitiesTx records a memory's entity set in the inverted index and
// bumps the entity-entity adjacency counts for every pair co-occurring in
// that memory (spec §4.8).
func indexEntitiesTx(ctx context.Context, tx *sql.Tx, memoryID string, entities []string) error {
	for _, e := range entities {
		if e == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entity_memories (entity, memory_id) VALUES (?, ?)`, e, memoryID); err != nil {
			return errs.New(errs.StorageUnavailable, "add", "index entity", err)
		}
	}
	for _, pair := range entity.AdjacencyPairs(entities) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entity_adjacency (entity_a, entity_b, count) VALUES (?, ?, 1)
			ON CONFLICT(entity_a, entity_b) DO UPDATE SET count = count + 1`,
			pair[0], pair[1]); err != nil {
			return errs.New(errs.StorageUnavailable, "add", "bump entity adjacency", err)
		}
	}
	return nil
}

// entitiesForMemory returns the entity tokens attached to one memory.
func (s *Store) entitiesForMemory(ctx context.Context, memoryID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity FROM entity_memories WHERE memory_id = ?`, memoryID)
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "get", "query entities", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, errs.New(errs.StorageUnavailable, "get", "scan entity", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// attachEntities fills in the Entities field of a batch of memories with
// one query per memory; List's candidate sets are bounded (spec §5
// "memory footprint"), so this stays well within a few hundred rows.
func (s *Store) attachEntities(ctx context.Context, memories []model.Memory) ([]model.Memory, error) {
	for i := range memories {
		entities, err := s.entitiesForMemory(ctx, memories[i].ID)
		if err != nil {
			return nil, err
		}
		memories[i].Entities = entities
	}
	return memories, nil
}

// ExpandEntities returns the ids of memories that share at least one
// entity with the given entity set — the 1-hop
// entity-graph expansion used by search (spec §4.7 step 3). It also
// follows one hop of the entity-entity adjacency: entities adjacent to
// the input set are folded in before the memory lookup, so two memories
// whose entities co-occurred elsewhere (but never in the same memory)
// still connect.
func (s *Store) ExpandEntities(ctx context.Context, entities []string) ([]string, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	expanded := make(map[string]bool, len(entities))
	for _, e := range entities {
		expanded[e] = true
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_a, entity_b FROM entity_adjacency
		WHERE entity_a IN (`+placeholders(len(entities))+`) OR entity_b IN (`+placeholders(len(entities))+`)`,
		doubleArgs(entities)...)
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "recall", "query entity adjacency", err)
	}
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			rows.Close()
			return nil, errs.New(errs.StorageUnavailable, "recall", "scan entity adjacency", err)
		}
		expanded[a] = true
		expanded[b] = true
	}
	rows.Close()

	keys := make([]string, 0, len(expanded))
	for e := range expanded {
		keys = append(keys, e)
	}

	memRows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT memory_id FROM entity_memories WHERE entity IN (`+placeholders(len(keys))+`)`,
		toAnySlice(keys)...)
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "recall", "query entity memories", err)
	}
	defer memRows.Close()

	var ids []string
	for memRows.Next() {
		var id string
		if err := memRows.Scan(&id); err != nil {
			return nil, errs.New(errs.StorageUnavailable, "recall", "scan entity memory", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func doubleArgs(entities []string) []any {
	out := make([]any, 0, len(entities)*2)
	for _, e := range entities {
		out = append(out, e)
	}
	for _, e := range entities {
		out = append(out, e)
	}
	return out
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
