package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
	"github.com/MeiZhiYying/classifyDoc/internal/observability/metrics"
)

// Ingestor accepts upload batches, persists each file, runs it through
// the classification pipeline and records the decision in the catalog.
// A bad file fails alone; its siblings still land.
type Ingestor struct {
	storage    ports.ObjectStorage
	classifier ports.FileClassifier
	index      ports.CatalogIndex
	publisher  ports.EventPublisher
	maxBatch   int
	logger     *slog.Logger
	metrics    *metrics.EngineMetrics
}

func NewIngestor(
	storage ports.ObjectStorage,
	classifier ports.FileClassifier,
	index ports.CatalogIndex,
	publisher ports.EventPublisher,
	maxBatch int,
	logger *slog.Logger,
	engineMetrics *metrics.EngineMetrics,
) *Ingestor {
	if maxBatch <= 0 {
		maxBatch = 200
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Ingestor{
		storage:    storage,
		classifier: classifier,
		index:      index,
		publisher:  publisher,
		maxBatch:   maxBatch,
		logger:     logger,
		metrics:    engineMetrics,
	}
}

func (i *Ingestor) Ingest(ctx context.Context, batch []ports.UploadFile) (*ports.BatchResult, error) {
	if len(batch) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest batch", errEmptyBatch)
	}
	if len(batch) > i.maxBatch {
		return nil, domain.WrapError(domain.ErrBatchTooLarge, "ingest batch", errTooManyFiles(len(batch), i.maxBatch))
	}

	result := &ports.BatchResult{Total: len(batch)}
	for _, upload := range batch {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec, err := i.ingestOne(ctx, upload)
		if err != nil {
			i.recordBatchFile("failed")
			result.Failures = append(result.Failures, ports.FileFailure{
				Path:  uploadPath(upload),
				Error: err.Error(),
			})
			continue
		}
		i.recordBatchFile("ok")
		result.Processed++
		switch rec.Source {
		case domain.SourceAI:
			result.AIClassified++
		default:
			result.KeywordClassified++
		}
	}
	return result, nil
}

func (i *Ingestor) ingestOne(ctx context.Context, upload ports.UploadFile) (domain.FileRecord, error) {
	key, err := domain.CleanPath(uploadPath(upload))
	if err != nil {
		return domain.FileRecord{}, err
	}

	written, err := i.storage.Save(ctx, key, upload.Body)
	if err != nil {
		return domain.FileRecord{}, err
	}

	decision := i.classifier.Classify(ctx, key, upload.Filename)

	rec := domain.FileRecord{
		Path:         key,
		OriginalPath: upload.OriginalPath,
		Name:         upload.Filename,
		Size:         written,
		ModTime:      time.Now(),
		Category:     decision.Category,
		Source:       decision.Source,
	}
	if err := i.index.Upsert(ctx, rec); err != nil {
		return domain.FileRecord{}, err
	}

	if err := i.publisher.PublishFileClassified(ctx, rec); err != nil {
		i.logger.Warn("publish file classified event", "path", rec.Path, "error", err)
	}
	return rec, nil
}

func (i *Ingestor) recordBatchFile(outcome string) {
	if i.metrics != nil {
		i.metrics.RecordBatchFile(outcome)
	}
}

func uploadPath(upload ports.UploadFile) string {
	if upload.OriginalPath != "" {
		return upload.OriginalPath
	}
	return upload.Filename
}
