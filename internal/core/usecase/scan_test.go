package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/catalog/memory"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/registry"
)

func seedStorage(t *testing.T, storage *storageFake, files map[string]string) {
	t.Helper()
	for key, content := range files {
		if _, err := storage.Save(context.Background(), key, strings.NewReader(content)); err != nil {
			t.Fatalf("seed storage: %v", err)
		}
	}
}

func newScanner(t *testing.T, storage *storageFake, index *memory.Index, pipeline ports.FileClassifier, reg *registry.Registry) *Scanner {
	t.Helper()
	return NewScanner(storage, index, pipeline, reg, newMatcher(), nil, 4, testLogger(), nil)
}

func TestFullScanClassifiesUntrackedFiles(t *testing.T) {
	storage := newStorageFake()
	seedStorage(t, storage, map[string]string{
		"invoice_jan.pdf": "aaa",
		"misc/photo.bin":  "bb",
	})
	index := newTestIndex()
	pipeline := newStubPipeline(map[string]domain.Decision{
		"invoice_jan.pdf": {Category: domain.CategoryInvoice, Source: domain.SourceFilename},
	})
	scanner := newScanner(t, storage, index, pipeline, testRegistry(t))

	result, err := scanner.FullScan(context.Background())
	if err != nil {
		t.Fatalf("FullScan() error = %v", err)
	}
	if result.Total != 2 || result.Classified != 2 || result.Skipped != 0 {
		t.Fatalf("result = %+v", result)
	}

	ok, err := index.Contains(context.Background(), "misc/photo.bin")
	if err != nil || !ok {
		t.Fatalf("Contains() = %v, %v", ok, err)
	}
}

func TestFullScanIsIdempotent(t *testing.T) {
	storage := newStorageFake()
	seedStorage(t, storage, map[string]string{"a.txt": "1", "b.txt": "2"})
	index := newTestIndex()
	pipeline := newStubPipeline(nil)
	scanner := newScanner(t, storage, index, pipeline, testRegistry(t))

	if _, err := scanner.FullScan(context.Background()); err != nil {
		t.Fatalf("first FullScan() error = %v", err)
	}
	second, err := scanner.FullScan(context.Background())
	if err != nil {
		t.Fatalf("second FullScan() error = %v", err)
	}
	if second.Classified != 0 || second.Skipped != 2 {
		t.Fatalf("second scan result = %+v", second)
	}
	if len(pipeline.calls) != 2 {
		t.Fatalf("pipeline called %d times, want 2", len(pipeline.calls))
	}
}

func TestRescanForCategoryMovesMatchingFiles(t *testing.T) {
	index := newTestIndex()
	reg := testRegistry(t)
	if _, err := reg.Create("report", "alice"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	records := []domain.FileRecord{
		{Path: "report_q1.txt", Name: "report_q1.txt", Category: domain.CategoryUncategorized, Source: domain.SourceFilename},
		{Path: "notes.txt", Name: "notes.txt", Category: domain.CategoryUncategorized, Source: domain.SourceFilename},
		{Path: "invoice_feb.pdf", Name: "invoice_feb.pdf", Category: domain.CategoryInvoice, Source: domain.SourceFilename},
	}
	for _, rec := range records {
		if err := index.Upsert(context.Background(), rec); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	scanner := newScanner(t, newStorageFake(), index, newStubPipeline(nil), reg)
	result, err := scanner.RescanForCategory(context.Background(), "report")
	if err != nil {
		t.Fatalf("RescanForCategory() error = %v", err)
	}
	if result.Total != 2 || result.Classified != 1 || result.Skipped != 1 {
		t.Fatalf("result = %+v", result)
	}

	stats, err := index.StatsFor(context.Background(), "report")
	if err != nil {
		t.Fatalf("StatsFor() error = %v", err)
	}
	if stats.Count != 1 || stats.Files[0].Path != "report_q1.txt" {
		t.Fatalf("report stats = %+v", stats)
	}

	// A file already assigned elsewhere is never revisited.
	invoiceStats, err := index.StatsFor(context.Background(), domain.CategoryInvoice)
	if err != nil || invoiceStats.Count != 1 {
		t.Fatalf("invoice stats = %+v, %v", invoiceStats, err)
	}
}

func TestRescanForCategoryUnknownCategory(t *testing.T) {
	scanner := newScanner(t, newStorageFake(), newTestIndex(), newStubPipeline(nil), testRegistry(t))
	if _, err := scanner.RescanForCategory(context.Background(), "ghost"); !domain.IsKind(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestStartRescanIsPollable(t *testing.T) {
	index := newTestIndex()
	reg := testRegistry(t)
	if _, err := reg.Create("report", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := index.Upsert(context.Background(), domain.FileRecord{
		Path: "report_q1.txt", Name: "report_q1.txt",
		Category: domain.CategoryUncategorized, Source: domain.SourceFilename,
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	scanner := newScanner(t, newStorageFake(), index, newStubPipeline(nil), reg)
	id := scanner.StartRescan("report")
	if id == "" {
		t.Fatalf("StartRescan() returned empty id")
	}

	deadline := time.After(2 * time.Second)
	for {
		status, err := scanner.RescanJob(id)
		if err != nil {
			t.Fatalf("RescanJob() error = %v", err)
		}
		if status.State == ports.RescanDone {
			if status.Result == nil || status.Result.Classified != 1 {
				t.Fatalf("final status = %+v", status)
			}
			return
		}
		if status.State == ports.RescanFailed {
			t.Fatalf("rescan failed: %s", status.Error)
		}
		select {
		case <-deadline:
			t.Fatalf("rescan never completed, state=%s", status.State)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRescanJobUnknownID(t *testing.T) {
	scanner := newScanner(t, newStorageFake(), newTestIndex(), newStubPipeline(nil), testRegistry(t))
	if _, err := scanner.RescanJob("nope"); !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
