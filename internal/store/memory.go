package store

import (
	"context"
	"database/sql"

	"github.com/rcliao/engram/internal/chunker"
	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/model"
)

// AddParams holds the fields needed to create a memory (spec §3.3 Create).
type AddParams struct {
	Content         string
	MemoryType      model.MemoryType
	Importance      float64
	WorkingStrength float64
	CoreStrength    float64
	Stability       float64
	Source          string
	Tags            []string
	Contradicts     string
	Entities        []string
	Now             float64
}

// Add inserts a new memory row, its content chunks (for FTS), and its
// entity index, all in one transaction.
func (s *Store) Add(ctx context.Context, p AddParams) (model.Memory, error) {
	m := model.Memory{
		ID:              s.newID(),
		Content:         p.Content,
		MemoryType:      p.MemoryType,
		Importance:      p.Importance,
		WorkingStrength: p.WorkingStrength,
		CoreStrength:    p.CoreStrength,
		Stability:       p.Stability,
		CreatedAt:       p.Now,
		LastAccessedAt:  p.Now,
		Layer:           model.LayerWorking,
		Source:          p.Source,
		Tags:            p.Tags,
		Contradicts:     p.Contradicts,
		Entities:        p.Entities,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO memories (id, content, memory_type, importance, working_strength,
				core_strength, stability, created_at, last_accessed_at, access_count,
				layer, pinned, source, tags, contradicts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, 0, ?, ?, ?)`,
			m.ID, m.Content, string(m.MemoryType), m.Importance, m.WorkingStrength,
			m.CoreStrength, m.Stability, epochToText(m.CreatedAt), epochToText(m.LastAccessedAt),
			string(m.Layer), nullIfEmpty(m.Source), tagsToText(m.Tags), nullIfEmpty(m.Contradicts))
		if err != nil {
			return errs.New(errs.StorageUnavailable, "add", "insert memory", err)
		}

		if err := insertChunks(ctx, tx, m.ID, m.Content); err != nil {
			return err
		}
		if len(p.Entities) > 0 {
			if err := indexEntitiesTx(ctx, tx, m.ID, p.Entities); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Memory{}, err
	}
	return m, nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, memoryID, content string) error {
	chunks := chunker.Chunk(content, chunker.DefaultOptions())
	for i, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO content_chunks (id, memory_id, seq, text) VALUES (?, ?, ?, ?)`,
			memoryID+"#"+itoa(i), memoryID, i, c.Text); err != nil {
			return errs.New(errs.StorageUnavailable, "add", "insert content chunk", err)
		}
	}
	return nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

const memoryColumns = `id, content, memory_type, importance, working_strength, core_strength,
	stability, created_at, last_accessed_at, access_count, layer, pinned, source, tags,
	contradicted_by, contradicts`

func scanMemory(row interface{ Scan(...any) error }) (model.Memory, error) {
	var m model.Memory
	var createdAt, lastAccessedAt, memType, layer string
	var pinned int
	var source, tags, contradictedBy, contradicts sql.NullString

	err := row.Scan(&m.ID, &m.Content, &memType, &m.Importance, &m.WorkingStrength,
		&m.CoreStrength, &m.Stability, &createdAt, &lastAccessedAt, &m.AccessCount,
		&layer, &pinned, &source, &tags, &contradictedBy, &contradicts)
	if err != nil {
		return m, err
	}

	m.MemoryType = model.MemoryType(memType)
	m.Layer = model.Layer(layer)
	m.CreatedAt = textToEpoch(createdAt)
	m.LastAccessedAt = textToEpoch(lastAccessedAt)
	m.Pinned = pinned != 0
	if source.Valid {
		m.Source = source.String
	}
	m.Tags = textToTags(tags)
	if contradictedBy.Valid {
		m.ContradictedBy = contradictedBy.String
	}
	if contradicts.Valid {
		m.Contradicts = contradicts.String
	}
	return m, nil
}

// Get retrieves one memory by id. It does not append an access record;
// callers that want retrieval bookkeeping should use RecordRetrievals.
func (s *Store) Get(ctx context.Context, id string) (model.Memory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return model.Memory{}, errs.New(errs.NotFound, "get", "memory not found: "+id, nil)
	}
	if err != nil {
		return model.Memory{}, errs.New(errs.StorageUnavailable, "get", "scan memory", err)
	}
	entities, err := s.entitiesForMemory(ctx, id)
	if err != nil {
		return model.Memory{}, err
	}
	m.Entities = entities
	return m, nil
}

// ListFilter narrows List to a subset of memories.
type ListFilter struct {
	Types     []model.MemoryType
	Layers    []model.Layer
	TimeFrom  float64 // 0 means unbounded
	TimeTo    float64 // 0 means unbounded
	IDs       []string // if non-nil, restrict to this id set
}

// List returns every memory matching filter, unordered; callers sort.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]model.Memory, error) {
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE 1=1`
	var args []any

	if len(filter.Types) > 0 {
		query += ` AND memory_type IN (` + placeholders(len(filter.Types)) + `)`
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}
	if len(filter.Layers) > 0 {
		query += ` AND layer IN (` + placeholders(len(filter.Layers)) + `)`
		for _, l := range filter.Layers {
			args = append(args, string(l))
		}
	}
	if filter.TimeFrom > 0 {
		query += ` AND created_at >= ?`
		args = append(args, epochToText(filter.TimeFrom))
	}
	if filter.TimeTo > 0 {
		query += ` AND created_at <= ?`
		args = append(args, epochToText(filter.TimeTo))
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return nil, nil
		}
		query += ` AND id IN (` + placeholders(len(filter.IDs)) + `)`
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "list", "query memories", err)
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, errs.New(errs.StorageUnavailable, "list", "scan memory", err)
		}
		out = append(out, m)
	}
	return s.attachEntities(ctx, out)
}

func placeholders(n int) string {
	out := "?"
	for i := 1; i < n; i++ {
		out += ",?"
	}
	return out
}

// Delete hard-deletes a memory and every row referencing it (access
// records, Hebbian links, entity rows, content chunks) in one
// transaction (spec invariants 6-7).
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM access_records WHERE memory_id = ?`,
			`DELETE FROM hebbian_links WHERE source_id = ? OR target_id = ?`,
			`DELETE FROM entity_memories WHERE memory_id = ?`,
			`DELETE FROM content_chunks WHERE memory_id = ?`,
			`DELETE FROM memories WHERE id = ?`,
		}
		for _, stmt := range stmts {
			var err error
			if stmt == `DELETE FROM hebbian_links WHERE source_id = ? OR target_id = ?` {
				_, err = tx.ExecContext(ctx, stmt, id, id)
			} else {
				_, err = tx.ExecContext(ctx, stmt, id)
			}
			if err != nil {
				return errs.New(errs.StorageUnavailable, "delete", "cascade delete", err)
			}
		}
		return nil
	})
}

// SetPinned flips a memory's pinned flag.
func (s *Store) SetPinned(ctx context.Context, id string, pinned bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE memories SET pinned = ? WHERE id = ?`, boolToInt(pinned), id)
	if err != nil {
		return errs.New(errs.StorageUnavailable, "pin", "update pinned", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errs.New(errs.NotFound, "pin", "memory not found: "+id, nil)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UpdateStrengths overwrites a memory's working/core strength, stability,
// and layer inside the caller's transaction. Consolidation, reward, and
// downscaling do not use it; each writes through its own update statement.
func (s *Store) UpdateStrengths(ctx context.Context, tx *sql.Tx, id string, working, core, stability float64, layer model.Layer) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE memories SET working_strength = ?, core_strength = ?, stability = ?, layer = ? WHERE id = ?`,
		working, core, stability, string(layer), id)
	if err != nil {
		return errs.New(errs.StorageUnavailable, "update", "update strengths", err)
	}
	return nil
}

// SetContradiction atomically marks old as contradicted by new and
// stamps new.Contradicts = old (spec §4.8 update_memory).
func (s *Store) SetContradiction(ctx context.Context, oldID, newID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE memories SET contradicted_by = ? WHERE id = ? AND contradicted_by IS NULL`, newID, oldID)
		if err != nil {
			return errs.New(errs.StorageUnavailable, "update_memory", "set contradicted_by", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errs.New(errs.Conflict, "update_memory", "memory already contradicted: "+oldID, nil)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE memories SET contradicts = ? WHERE id = ?`, oldID, newID); err != nil {
			return errs.New(errs.StorageUnavailable, "update_memory", "set contradicts", err)
		}
		return nil
	})
}
