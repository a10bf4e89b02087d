package ports

import (
	"context"
	"io"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

// CategoryRegistry owns the set of known categories and their keywords.
type CategoryRegistry interface {
	Get(name string) (domain.Category, error)
	// List returns categories in registry order: built-ins first in
	// declared order, then custom categories in creation order.
	List() []domain.Category
	Create(name, seedContext string) (domain.Category, error)
	Keywords() map[string][]string
}

// KeywordMatcher is the pure filename stage of the pipeline.
type KeywordMatcher interface {
	Match(filename string, categories []domain.Category) (string, bool)
}

// CatalogIndex is the authoritative file-to-category mapping plus the
// per-category aggregates. Upsert is the single serialization point for
// a given path.
type CatalogIndex interface {
	Upsert(ctx context.Context, rec domain.FileRecord) error
	Contains(ctx context.Context, path string) (bool, error)
	StatsFor(ctx context.Context, category string) (domain.CategoryStats, error)
	Stats(ctx context.Context) (map[string]domain.CategoryStats, error)
	AllFiles(ctx context.Context, query domain.FileQuery) ([]domain.FileRecord, error)
	FilesIn(ctx context.Context, category string) ([]domain.FileRecord, error)
}

// ObjectStorage persists uploaded file bytes under the upload root.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Resolve(key string) (string, error)
	Walk(ctx context.Context, fn func(key string, size int64) error) error
}

// TextExtractor turns stored file bytes into classifier input.
type TextExtractor interface {
	Extract(ctx context.Context, key string) (string, error)
}

// ContentClassifier is the external content-understanding capability.
// It is consulted only when the keyword stage finds no match.
type ContentClassifier interface {
	Classify(ctx context.Context, filename, content string) (domain.Suggestion, error)
}

// EventPublisher announces catalog changes to interested consumers.
// Publishing is best effort; the engine never fails an operation over it.
type EventPublisher interface {
	PublishFileClassified(ctx context.Context, rec domain.FileRecord) error
	PublishCategoryCreated(ctx context.Context, category string) error
	PublishRescanRequested(ctx context.Context, category string) error
}

// RescanConsumer receives rescan jobs in out-of-process deployments.
type RescanConsumer interface {
	SubscribeRescanRequested(ctx context.Context, handler func(context.Context, string) error) error
}
