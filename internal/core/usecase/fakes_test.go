package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/MeiZhiYying/classifyDoc/internal/config"
	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/catalog/memory"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/matching"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	seeds := []config.CategorySeed{
		{Name: domain.CategoryContract, Keywords: []string{"contract", "agreement", "合同"}},
		{Name: domain.CategoryResume, Keywords: []string{"resume", "cv", "简历"}},
		{Name: domain.CategoryInvoice, Keywords: []string{"invoice", "发票"}},
		{Name: domain.CategoryThesis, Keywords: []string{"thesis", "论文"}},
		{Name: domain.CategoryUncategorized},
	}
	r, err := registry.New(seeds, 3)
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	return r
}

func newTestIndex() *memory.Index { return memory.New() }

func newMatcher() *matching.Matcher { return matching.New() }

// storageFake is an in-memory object store keyed like localfs.
type storageFake struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newStorageFake() *storageFake {
	return &storageFake{files: make(map[string][]byte)}
}

func (s *storageFake) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = content
	return int64(len(content)), nil
}

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrFileNotFound, "open file", fmt.Errorf("no key %q", key))
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *storageFake) Resolve(key string) (string, error) {
	return "/nonexistent/" + key, nil
}

func (s *storageFake) Walk(_ context.Context, fn func(key string, size int64) error) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.files))
	for key := range s.files {
		keys = append(keys, key)
	}
	s.mu.Unlock()
	sort.Strings(keys)

	for _, key := range keys {
		s.mu.Lock()
		size := int64(len(s.files[key]))
		s.mu.Unlock()
		if err := fn(key, size); err != nil {
			return err
		}
	}
	return nil
}

// stubPipeline implements ports.FileClassifier with a fixed decision map.
type stubPipeline struct {
	mu        sync.Mutex
	decisions map[string]domain.Decision
	calls     []string
}

func newStubPipeline(decisions map[string]domain.Decision) *stubPipeline {
	return &stubPipeline{decisions: decisions}
}

func (p *stubPipeline) Classify(_ context.Context, storageKey, _ string) domain.Decision {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, storageKey)
	if decision, ok := p.decisions[storageKey]; ok {
		return decision
	}
	return domain.Decision{Category: domain.CategoryUncategorized, Source: domain.SourceFilename}
}

// extractorStub returns canned text per key.
type extractorStub struct {
	texts map[string]string
	err   error
	calls int
}

func (e *extractorStub) Extract(_ context.Context, key string) (string, error) {
	e.calls++
	if e.err != nil {
		return "", e.err
	}
	return e.texts[key], nil
}

// classifierStub implements ports.ContentClassifier.
type classifierStub struct {
	suggestion domain.Suggestion
	err        error
	calls      int
	lastInput  string
}

func (c *classifierStub) Classify(_ context.Context, _, content string) (domain.Suggestion, error) {
	c.calls++
	c.lastInput = content
	if c.err != nil {
		return domain.Suggestion{}, c.err
	}
	return c.suggestion, nil
}

// publisherRecorder captures every published event.
type publisherRecorder struct {
	mu         sync.Mutex
	classified []domain.FileRecord
	categories []string
	rescans    []string
	err        error
}

func (p *publisherRecorder) PublishFileClassified(_ context.Context, rec domain.FileRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.classified = append(p.classified, rec)
	return p.err
}

func (p *publisherRecorder) PublishCategoryCreated(_ context.Context, category string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.categories = append(p.categories, category)
	return p.err
}

func (p *publisherRecorder) PublishRescanRequested(_ context.Context, category string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rescans = append(p.rescans, category)
	return p.err
}

var _ ports.ObjectStorage = (*storageFake)(nil)
var _ ports.FileClassifier = (*stubPipeline)(nil)
var _ ports.ContentClassifier = (*classifierStub)(nil)
var _ ports.TextExtractor = (*extractorStub)(nil)
var _ ports.EventPublisher = (*publisherRecorder)(nil)
