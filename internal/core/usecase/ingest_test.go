package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
)

func uploadOf(path, content string) ports.UploadFile {
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	return ports.UploadFile{
		Filename:     name,
		OriginalPath: path,
		Size:         int64(len(content)),
		Body:         strings.NewReader(content),
	}
}

func TestIngestRejectsOversizedBatchBeforeAnyWrite(t *testing.T) {
	storage := newStorageFake()
	index := newTestIndex()
	ingestor := NewIngestor(storage, newStubPipeline(nil), index, nil, 200, testLogger(), nil)

	batch := make([]ports.UploadFile, 201)
	for i := range batch {
		batch[i] = uploadOf(fmt.Sprintf("doc_%03d.txt", i), "x")
	}

	_, err := ingestor.Ingest(context.Background(), batch)
	if !domain.IsKind(err, domain.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
	if len(storage.files) != 0 {
		t.Fatalf("storage written despite rejected batch")
	}
}

func TestIngestRejectsEmptyBatch(t *testing.T) {
	ingestor := NewIngestor(newStorageFake(), newStubPipeline(nil), newTestIndex(), nil, 200, testLogger(), nil)
	if _, err := ingestor.Ingest(context.Background(), nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestAcceptsFullBatch(t *testing.T) {
	storage := newStorageFake()
	ingestor := NewIngestor(storage, newStubPipeline(nil), newTestIndex(), nil, 200, testLogger(), nil)

	batch := make([]ports.UploadFile, 200)
	for i := range batch {
		batch[i] = uploadOf(fmt.Sprintf("doc_%03d.txt", i), "x")
	}

	result, err := ingestor.Ingest(context.Background(), batch)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.Processed != 200 || len(result.Failures) != 0 {
		t.Fatalf("result = %+v", result)
	}
}

func TestIngestCountsDecisionSources(t *testing.T) {
	storage := newStorageFake()
	index := newTestIndex()
	publisher := &publisherRecorder{}
	pipeline := newStubPipeline(map[string]domain.Decision{
		"contract_a.pdf": {Category: domain.CategoryContract, Source: domain.SourceFilename},
		"scan_b.pdf":     {Category: domain.CategoryInvoice, Source: domain.SourceAI},
	})
	ingestor := NewIngestor(storage, pipeline, index, publisher, 200, testLogger(), nil)

	result, err := ingestor.Ingest(context.Background(), []ports.UploadFile{
		uploadOf("contract_a.pdf", "aaa"),
		uploadOf("scan_b.pdf", "bbbb"),
		uploadOf("notes.txt", "c"),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.Total != 3 || result.Processed != 3 {
		t.Fatalf("result = %+v", result)
	}
	if result.KeywordClassified != 2 || result.AIClassified != 1 {
		t.Fatalf("source counts = %+v", result)
	}

	stats, err := index.StatsFor(context.Background(), domain.CategoryInvoice)
	if err != nil {
		t.Fatalf("StatsFor() error = %v", err)
	}
	if stats.Count != 1 || stats.Files[0].Size != 4 {
		t.Fatalf("invoice stats = %+v", stats)
	}
	if len(publisher.classified) != 3 {
		t.Fatalf("published %d events, want 3", len(publisher.classified))
	}
}

func TestIngestBadFileFailsAlone(t *testing.T) {
	ingestor := NewIngestor(newStorageFake(), newStubPipeline(nil), newTestIndex(), nil, 200, testLogger(), nil)

	result, err := ingestor.Ingest(context.Background(), []ports.UploadFile{
		uploadOf("ok.txt", "fine"),
		{Filename: "evil.txt", OriginalPath: "../evil.txt", Body: strings.NewReader("nope")},
		uploadOf("also_ok.txt", "fine"),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.Processed != 2 || len(result.Failures) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Failures[0].Path != "../evil.txt" {
		t.Fatalf("failure = %+v", result.Failures[0])
	}
}

func TestIngestSamePathOverwrites(t *testing.T) {
	index := newTestIndex()
	ingestor := NewIngestor(newStorageFake(), newStubPipeline(map[string]domain.Decision{
		"report.txt": {Category: domain.CategoryThesis, Source: domain.SourceAI},
	}), index, nil, 200, testLogger(), nil)

	for i := 0; i < 2; i++ {
		if _, err := ingestor.Ingest(context.Background(), []ports.UploadFile{uploadOf("report.txt", "v2")}); err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
	}

	stats, err := index.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	total := 0
	for _, s := range stats {
		total += s.Count
	}
	if total != 1 {
		t.Fatalf("catalog holds %d records for one path", total)
	}
}
