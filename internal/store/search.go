package store

import (
	"context"

	"github.com/rcliao/engram/internal/errs"
)

// LexicalSearch runs the FTS5 full-text query over content chunks and
// returns the distinct matching memory ids, ranked by BM25 relevance and
// cut off at limit (spec §4.7 step 1). An empty query is the caller's
// signal to fall back to "all memories" instead of calling this method.
func (s *Store) LexicalSearch(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT c.memory_id
		FROM content_fts f
		JOIN content_chunks c ON c.rowid = f.rowid
		WHERE content_fts MATCH ?
		ORDER BY bm25(content_fts)
		LIMIT ?`, ftsQuery(query), limit)
	if err != nil {
		// FTS5 raises a syntax error on bare punctuation/special tokens; the
		// spec requires recall to never raise on missing hits, so a bad
		// query degrades to "no lexical hits" rather than propagating.
		return nil, nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.New(errs.StorageUnavailable, "recall", "scan lexical hit", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ftsQuery wraps each whitespace-separated term in double quotes so
// punctuation and FTS5 operator characters in free-form user queries
// (e.g. "us-east-1") are treated as literal text tokens, not query syntax.
func ftsQuery(query string) string {
	out := ""
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if out != "" {
			out += " "
		}
		out += `"` + query[start:end] + `"`
		start = -1
	}
	for i, r := range query {
		if r == ' ' || r == '\t' || r == '\n' {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(query))
	return out
}
