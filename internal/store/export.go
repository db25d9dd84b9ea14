package store

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/model"
)

// exportRow is the on-disk shape for one memory, including its entity
// set, flattened for a stable JSON export independent of the internal
// schema.
type exportRow struct {
	model.Memory
}

// Export writes every memory (with entities attached) to path as
// newline-delimited JSON and returns the byte count written (spec §6.1
// export).
func (s *Store) Export(ctx context.Context, path string) (int64, error) {
	memories, err := s.List(ctx, ListFilter{})
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errs.New(errs.StorageUnavailable, "export", "create export file", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	var written int64
	for _, m := range memories {
		if err := enc.Encode(exportRow{Memory: m}); err != nil {
			return written, errs.New(errs.StorageUnavailable, "export", "encode memory", err)
		}
	}

	info, err := f.Stat()
	if err != nil {
		return written, errs.New(errs.StorageUnavailable, "export", "stat export file", err)
	}
	return info.Size(), nil
}

// Import reads a newline-delimited JSON export (as written by Export) and
// recreates each memory via Add, preserving content, type, strengths,
// and metadata but minting fresh ids and timestamps are caller-supplied.
func (s *Store) Import(ctx context.Context, path string, now float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errs.New(errs.StorageUnavailable, "import", "open import file", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	var count int
	for dec.More() {
		var row exportRow
		if err := dec.Decode(&row); err != nil {
			return count, errs.New(errs.InvalidArgument, "import", "decode memory", err)
		}
		_, err := s.Add(ctx, AddParams{
			Content:         row.Content,
			MemoryType:      row.MemoryType,
			Importance:      row.Importance,
			WorkingStrength: row.WorkingStrength,
			CoreStrength:    row.CoreStrength,
			Stability:       row.Stability,
			Source:          row.Source,
			Tags:            row.Tags,
			Entities:        row.Entities,
			Now:             now,
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
