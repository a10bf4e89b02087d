package ports

import (
	"context"
	"io"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

// UploadFile is one element of an ingestion batch.
type UploadFile struct {
	Filename     string
	OriginalPath string
	Size         int64
	Body         io.Reader
}

// FileFailure records one file that could not be ingested. Siblings in
// the batch are unaffected.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BatchResult summarizes one ingestion batch.
type BatchResult struct {
	Total             int           `json:"total"`
	Processed         int           `json:"processed"`
	KeywordClassified int           `json:"firstStepClassified"`
	AIClassified      int           `json:"aiClassified"`
	Failures          []FileFailure `json:"failures,omitempty"`
}

// ScanResult summarizes a full scan or a targeted rescan.
type ScanResult struct {
	Total             int           `json:"total"`
	Classified        int           `json:"classified"`
	Skipped           int           `json:"skipped"`
	KeywordClassified int           `json:"firstStepClassified"`
	AIClassified      int           `json:"aiClassified"`
	Failures          []FileFailure `json:"failures,omitempty"`
}

// RescanState is the lifecycle of a background rescan job.
type RescanState string

const (
	RescanPending RescanState = "pending"
	RescanRunning RescanState = "running"
	RescanDone    RescanState = "done"
	RescanFailed  RescanState = "failed"
)

// RescanStatus is the pollable handle for a background rescan.
type RescanStatus struct {
	ID       string      `json:"id"`
	Category string      `json:"category"`
	State    RescanState `json:"state"`
	Result   *ScanResult `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// FileClassifier is the classification pipeline: it always produces a
// terminal decision and never surfaces an error to its caller.
type FileClassifier interface {
	Classify(ctx context.Context, storageKey, filename string) domain.Decision
}

// BatchIngestor accepts an upload batch and feeds it through the pipeline.
type BatchIngestor interface {
	Ingest(ctx context.Context, batch []UploadFile) (*BatchResult, error)
}

// DirectoryScanner walks the upload root and classifies untracked files.
type DirectoryScanner interface {
	FullScan(ctx context.Context) (*ScanResult, error)
	RescanForCategory(ctx context.Context, category string) (*ScanResult, error)
	StartRescan(category string) string
	RescanJob(id string) (RescanStatus, error)
}

// CategoryService creates categories and triggers their retroactive rescan.
type CategoryService interface {
	Create(ctx context.Context, name, seedContext string) (domain.Category, string, error)
}

// CatalogQueryService is the read-only view over the Catalog Index.
type CatalogQueryService interface {
	Stats(ctx context.Context) (map[string]domain.CategoryStats, error)
	CategoryFiles(ctx context.Context, category string) (domain.CategoryStats, error)
	AllFiles(ctx context.Context, category, sortBy, order string) ([]domain.FileRecord, error)
}
