package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

type entry struct {
	rec domain.FileRecord
	seq uint64
}

// Index is the in-memory Catalog Index. A single RWMutex serializes all
// mutations, so an upsert's read-modify-write of the per-category
// aggregate is atomic and a path can never be counted twice. The
// monotonic sequence preserves insertion order for stable tie-breaks.
type Index struct {
	mu      sync.RWMutex
	entries map[string]entry
	nextSeq uint64
}

func New() *Index {
	return &Index{entries: make(map[string]entry)}
}

// Upsert inserts or replaces the record at rec.Path. A replaced record
// leaves its old category implicitly; last write wins per path.
func (idx *Index) Upsert(_ context.Context, rec domain.FileRecord) error {
	if rec.Path == "" {
		return domain.WrapError(domain.ErrInvalidInput, "catalog upsert", fmt.Errorf("empty path"))
	}
	if rec.Category == "" {
		return domain.WrapError(domain.ErrInvalidInput, "catalog upsert", fmt.Errorf("record %q has no category", rec.Path))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	seq := idx.nextSeq
	if prev, ok := idx.entries[rec.Path]; ok {
		// Re-ingested paths keep their original position in listings.
		seq = prev.seq
	} else {
		idx.nextSeq++
	}
	idx.entries[rec.Path] = entry{rec: rec, seq: seq}
	return nil
}

func (idx *Index) Contains(_ context.Context, path string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.entries[path]
	return ok, nil
}

func (idx *Index) StatsFor(_ context.Context, category string) (domain.CategoryStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	files := idx.filesInLocked(category)
	return domain.CategoryStats{Count: len(files), Files: files}, nil
}

func (idx *Index) Stats(_ context.Context) (map[string]domain.CategoryStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	grouped := make(map[string][]entry)
	for _, e := range idx.entries {
		grouped[e.rec.Category] = append(grouped[e.rec.Category], e)
	}

	out := make(map[string]domain.CategoryStats, len(grouped))
	for category, entries := range grouped {
		sortBySeq(entries)
		files := make([]domain.FileRecord, 0, len(entries))
		for _, e := range entries {
			files = append(files, e.rec)
		}
		out[category] = domain.CategoryStats{Count: len(files), Files: files}
	}
	return out, nil
}

func (idx *Index) AllFiles(_ context.Context, query domain.FileQuery) ([]domain.FileRecord, error) {
	idx.mu.RLock()
	entries := make([]entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		if query.Category != "" && e.rec.Category != query.Category {
			continue
		}
		entries = append(entries, e)
	}
	idx.mu.RUnlock()

	asc := query.Order == domain.OrderAsc
	switch query.Sort {
	case domain.SortBySize:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].rec.Size != entries[j].rec.Size {
				if asc {
					return entries[i].rec.Size < entries[j].rec.Size
				}
				return entries[i].rec.Size > entries[j].rec.Size
			}
			return entries[i].seq < entries[j].seq
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			ti, tj := entries[i].rec.ModTime, entries[j].rec.ModTime
			if !ti.Equal(tj) {
				if asc {
					return ti.Before(tj)
				}
				return ti.After(tj)
			}
			return entries[i].seq < entries[j].seq
		})
	}

	files := make([]domain.FileRecord, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.rec)
	}
	return files, nil
}

func (idx *Index) FilesIn(_ context.Context, category string) ([]domain.FileRecord, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.filesInLocked(category), nil
}

func (idx *Index) filesInLocked(category string) []domain.FileRecord {
	entries := make([]entry, 0)
	for _, e := range idx.entries {
		if e.rec.Category == category {
			entries = append(entries, e)
		}
	}
	sortBySeq(entries)
	files := make([]domain.FileRecord, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.rec)
	}
	return files
}

func sortBySeq(entries []entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
}
