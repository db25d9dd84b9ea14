// Package store is the durable key/value+relational layer backing the
// engine: memory rows, per-access timestamps, Hebbian link rows, entity
// indexes, and a lexical full-text index, all behind a single SQLite
// file (spec §2.1, §6.2). Every exported method that mutates more than
// one row runs inside a transaction so callers never observe a partial
// write; the one exception is ForgetBelowThreshold, which deletes each
// memory in its own transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/engram/internal/errs"
)

// schemaVersion is the version stamped into the schema_version table at
// migrate time. Opening a database stamped with a newer version than
// this binary knows about is a Corruption error (spec invariant 8).
const schemaVersion = 1

// Store is the SQLite-backed implementation of the engine's storage
// layer. It owns the database handle, an advisory lock file enforcing
// the single-writer-process policy (spec §5), and a ulid entropy source
// for minting memory ids.
type Store struct {
	db       *sql.DB
	entropy  *rand.Rand
	lockPath string
	lockFile *os.File
}

// Open creates or opens a SQLite database at dbPath, acquiring an
// advisory lock file alongside it. A second process attempting to open
// the same path fails with errs.StorageUnavailable rather than
// corrupting the file (spec §5 "shared resource policy").
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.New(errs.StorageUnavailable, "open", "create db directory", err)
	}

	lockPath := dbPath + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "open", fmt.Sprintf("database %s is already open by another process", dbPath), err)
	}
	fmt.Fprintf(lockFile, "%d\n", os.Getpid())

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		lockFile.Close()
		os.Remove(lockPath)
		return nil, errs.New(errs.StorageUnavailable, "open", "open sqlite handle", err)
	}

	s := &Store{
		db:       db,
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
		lockPath: lockPath,
		lockFile: lockFile,
	}

	if err := s.migrate(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// OpenInMemory opens a private, non-shared in-memory database. It skips
// the advisory lock since no other process can ever see the handle; used
// by tests and by callers who only want transient scratch state.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(on)")
	if err != nil {
		return nil, errs.New(errs.StorageUnavailable, "open", "open in-memory sqlite handle", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle and the advisory lock file.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.lockFile != nil {
		s.lockFile.Close()
		os.Remove(s.lockPath)
	}
	return err
}

// newID mints a fresh ULID, lexicographically sortable by creation time
// like the reference store's memory ids.
func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

	CREATE TABLE IF NOT EXISTS memories (
		id                TEXT PRIMARY KEY,
		content           TEXT NOT NULL,
		memory_type       TEXT NOT NULL,
		importance        REAL NOT NULL,
		working_strength  REAL NOT NULL,
		core_strength     REAL NOT NULL,
		stability         REAL NOT NULL,
		created_at        TEXT NOT NULL,
		last_accessed_at  TEXT NOT NULL,
		access_count      INTEGER NOT NULL DEFAULT 0,
		layer             TEXT NOT NULL DEFAULT 'working',
		pinned            INTEGER NOT NULL DEFAULT 0,
		source            TEXT,
		tags              TEXT,
		contradicted_by   TEXT,
		contradicts       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_layer ON memories(layer);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(memory_type);
	CREATE INDEX IF NOT EXISTS idx_memories_pinned ON memories(pinned);

	CREATE TABLE IF NOT EXISTS access_records (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		memory_id   TEXT NOT NULL REFERENCES memories(id),
		accessed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_access_memory ON access_records(memory_id);

	CREATE TABLE IF NOT EXISTS hebbian_links (
		source_id          TEXT NOT NULL REFERENCES memories(id),
		target_id          TEXT NOT NULL REFERENCES memories(id),
		strength           REAL NOT NULL DEFAULT 0,
		coactivation_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (source_id, target_id)
	);
	CREATE INDEX IF NOT EXISTS idx_hebbian_target ON hebbian_links(target_id);

	CREATE TABLE IF NOT EXISTS entity_memories (
		entity    TEXT NOT NULL,
		memory_id TEXT NOT NULL REFERENCES memories(id),
		PRIMARY KEY (entity, memory_id)
	);
	CREATE INDEX IF NOT EXISTS idx_entity_memories_memory ON entity_memories(memory_id);

	CREATE TABLE IF NOT EXISTS entity_adjacency (
		entity_a TEXT NOT NULL,
		entity_b TEXT NOT NULL,
		count    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (entity_a, entity_b)
	);

	CREATE TABLE IF NOT EXISTS content_chunks (
		id        TEXT PRIMARY KEY,
		memory_id TEXT NOT NULL REFERENCES memories(id),
		seq       INTEGER NOT NULL,
		text      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_memory ON content_chunks(memory_id);

	CREATE VIRTUAL TABLE IF NOT EXISTS content_fts USING fts5(
		text,
		content=content_chunks,
		content_rowid=rowid
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errs.New(errs.Corruption, "open", "apply schema", err)
	}

	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS content_chunks_ai AFTER INSERT ON content_chunks BEGIN
		INSERT INTO content_fts(rowid, text) VALUES (new.rowid, new.text);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS content_chunks_ad AFTER DELETE ON content_chunks BEGIN
		INSERT INTO content_fts(content_fts, rowid, text) VALUES('delete', old.rowid, old.text);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS content_chunks_au AFTER UPDATE ON content_chunks BEGIN
		INSERT INTO content_fts(content_fts, rowid, text) VALUES('delete', old.rowid, old.text);
		INSERT INTO content_fts(rowid, text) VALUES (new.rowid, new.text);
	END`)

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return errs.New(errs.Corruption, "open", "read schema_version", err)
	}
	if count == 0 {
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return errs.New(errs.Corruption, "open", "stamp schema_version", err)
		}
		return nil
	}

	var stored int
	if err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&stored); err != nil {
		return errs.New(errs.Corruption, "open", "read schema_version", err)
	}
	if stored > schemaVersion {
		return errs.New(errs.Corruption, "open", fmt.Sprintf("database schema version %d is newer than this binary's %d", stored, schemaVersion), nil)
	}
	return nil
}

// epochToText and textToEpoch convert between the model's float64 Unix
// seconds and the RFC3339 text the database stores, matching the
// reference store's timestamp convention.
func epochToText(epoch float64) string {
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano)
}

func textToEpoch(text string) float64 {
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}

// tagsToText/textToTags marshal the opaque tag list as a simple
// newline-joined string; tags never contain embedded newlines in
// practice, and this avoids pulling in encoding/json for a handful of
// short opaque strings.
func tagsToText(tags []string) sql.NullString {
	if len(tags) == 0 {
		return sql.NullString{}
	}
	joined := ""
	for i, t := range tags {
		if i > 0 {
			joined += "\n"
		}
		joined += t
	}
	return sql.NullString{String: joined, Valid: true}
}

func textToTags(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var tags []string
	start := 0
	for i := 0; i <= len(ns.String); i++ {
		if i == len(ns.String) || ns.String[i] == '\n' {
			tags = append(tags, ns.String[start:i])
			start = i + 1
		}
	}
	return tags
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.StorageUnavailable, "tx", "begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.New(errs.StorageUnavailable, "tx", "commit transaction", err)
	}
	return nil
}
