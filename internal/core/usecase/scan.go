package usecase

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
	"github.com/MeiZhiYying/classifyDoc/internal/observability/metrics"
)

// Scanner reconciles the upload root with the catalog. A full scan
// classifies every file the catalog does not know yet; a category
// rescan re-runs the keyword stage over uncategorized files after a
// new category appears.
type Scanner struct {
	storage     ports.ObjectStorage
	index       ports.CatalogIndex
	classifier  ports.FileClassifier
	registry    ports.CategoryRegistry
	matcher     ports.KeywordMatcher
	publisher   ports.EventPublisher
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.EngineMetrics

	mu   sync.Mutex
	jobs map[string]ports.RescanStatus
}

func NewScanner(
	storage ports.ObjectStorage,
	index ports.CatalogIndex,
	classifier ports.FileClassifier,
	registry ports.CategoryRegistry,
	matcher ports.KeywordMatcher,
	publisher ports.EventPublisher,
	concurrency int,
	logger *slog.Logger,
	engineMetrics *metrics.EngineMetrics,
) *Scanner {
	if concurrency <= 0 {
		concurrency = 30
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Scanner{
		storage:     storage,
		index:       index,
		classifier:  classifier,
		registry:    registry,
		matcher:     matcher,
		publisher:   publisher,
		concurrency: concurrency,
		logger:      logger,
		metrics:     engineMetrics,
		jobs:        make(map[string]ports.RescanStatus),
	}
}

// FullScan walks the upload root and classifies every file not yet in
// the catalog. Already catalogued paths keep their category, so running
// it twice is a no-op for the second run.
func (s *Scanner) FullScan(ctx context.Context) (*ports.ScanResult, error) {
	started := time.Now()
	result, err := s.fullScan(ctx)
	if s.metrics != nil {
		s.metrics.RecordScan("full", time.Since(started), err)
	}
	return result, err
}

type scannedFile struct {
	key  string
	size int64
}

func (s *Scanner) fullScan(ctx context.Context) (*ports.ScanResult, error) {
	var files []scannedFile
	err := s.storage.Walk(ctx, func(key string, size int64) error {
		files = append(files, scannedFile{key: key, size: size})
		return nil
	})
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result = ports.ScanResult{Total: len(files)}
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for _, file := range files {
		group.Go(func() error {
			known, err := s.index.Contains(groupCtx, file.key)
			if err != nil {
				return err
			}
			if known {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}

			rec, err := s.classifyScanned(groupCtx, file)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, ports.FileFailure{Path: file.key, Error: err.Error()})
				return nil
			}
			result.Classified++
			if rec.Source == domain.SourceAI {
				result.AIClassified++
			} else {
				result.KeywordClassified++
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Scanner) classifyScanned(ctx context.Context, file scannedFile) (domain.FileRecord, error) {
	decision := s.classifier.Classify(ctx, file.key, baseName(file.key))

	rec := domain.FileRecord{
		Path:     file.key,
		Name:     baseName(file.key),
		Size:     file.size,
		ModTime:  s.modTime(file.key),
		Category: decision.Category,
		Source:   decision.Source,
	}
	if err := s.index.Upsert(ctx, rec); err != nil {
		return domain.FileRecord{}, err
	}
	if err := s.publisher.PublishFileClassified(ctx, rec); err != nil {
		s.logger.Warn("publish file classified event", "path", rec.Path, "error", err)
	}
	return rec, nil
}

func (s *Scanner) modTime(key string) time.Time {
	full, err := s.storage.Resolve(key)
	if err != nil {
		return time.Now()
	}
	info, err := os.Stat(full)
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}

// RescanForCategory re-runs the keyword stage over uncategorized files
// against a single category. Files already assigned elsewhere are left
// untouched; content classification is not repeated.
func (s *Scanner) RescanForCategory(ctx context.Context, category string) (*ports.ScanResult, error) {
	started := time.Now()
	result, err := s.rescanForCategory(ctx, category)
	if s.metrics != nil {
		s.metrics.RecordScan("rescan", time.Since(started), err)
	}
	return result, err
}

func (s *Scanner) rescanForCategory(ctx context.Context, category string) (*ports.ScanResult, error) {
	target, err := s.registry.Get(category)
	if err != nil {
		return nil, err
	}

	candidates, err := s.index.FilesIn(ctx, domain.CategoryUncategorized)
	if err != nil {
		return nil, err
	}

	result := ports.ScanResult{Total: len(candidates)}
	for _, rec := range candidates {
		if err := ctx.Err(); err != nil {
			return &result, err
		}
		if _, ok := s.matcher.Match(rec.Name, []domain.Category{target}); !ok {
			result.Skipped++
			continue
		}

		rec.Category = target.Name
		rec.Source = domain.SourceFilename
		if err := s.index.Upsert(ctx, rec); err != nil {
			result.Failures = append(result.Failures, ports.FileFailure{Path: rec.Path, Error: err.Error()})
			continue
		}
		result.Classified++
		result.KeywordClassified++
		if err := s.publisher.PublishFileClassified(ctx, rec); err != nil {
			s.logger.Warn("publish file classified event", "path", rec.Path, "error", err)
		}
	}
	return &result, nil
}

// StartRescan runs a category rescan in the background and returns a
// job id the caller can poll.
func (s *Scanner) StartRescan(category string) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.jobs[id] = ports.RescanStatus{ID: id, Category: category, State: ports.RescanPending}
	s.mu.Unlock()

	go s.runRescan(id, category)
	return id
}

func (s *Scanner) runRescan(id, category string) {
	s.setJob(id, func(job *ports.RescanStatus) { job.State = ports.RescanRunning })

	result, err := s.RescanForCategory(context.Background(), category)
	if err != nil {
		s.logger.Error("category rescan failed", "job", id, "category", category, "error", err)
		s.setJob(id, func(job *ports.RescanStatus) {
			job.State = ports.RescanFailed
			job.Error = err.Error()
		})
		return
	}

	s.logger.Info("category rescan finished",
		"job", id, "category", category,
		"reclassified", result.Classified, "examined", result.Total)
	s.setJob(id, func(job *ports.RescanStatus) {
		job.State = ports.RescanDone
		job.Result = result
	})
}

func (s *Scanner) setJob(id string, update func(*ports.RescanStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	update(&job)
	s.jobs[id] = job
}

func (s *Scanner) RescanJob(id string) (ports.RescanStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ports.RescanStatus{}, domain.WrapError(domain.ErrJobNotFound, "rescan job", errUnknownJob(id))
	}
	return job, nil
}

func baseName(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}
