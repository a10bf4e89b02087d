package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

func newManager(t *testing.T) (*CategoryManager, *publisherRecorder, *Scanner) {
	t.Helper()
	reg := testRegistry(t)
	publisher := &publisherRecorder{}
	scanner := NewScanner(newStorageFake(), newTestIndex(), newStubPipeline(nil), reg, newMatcher(), nil, 4, testLogger(), nil)
	return NewCategoryManager(reg, scanner, publisher, testLogger()), publisher, scanner
}

func TestCreateCategoryStartsRescan(t *testing.T) {
	manager, publisher, scanner := newManager(t)

	category, rescanID, err := manager.Create(context.Background(), "Report", "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if category.Name != "Report" {
		t.Fatalf("category = %+v", category)
	}
	if len(category.Keywords) != 2 || category.Keywords[0] != "report" || category.Keywords[1] != "alice" {
		t.Fatalf("keywords = %v", category.Keywords)
	}
	if rescanID == "" {
		t.Fatalf("expected a rescan job id")
	}
	if _, err := scanner.RescanJob(rescanID); err != nil {
		t.Fatalf("RescanJob() error = %v", err)
	}

	if len(publisher.categories) != 1 || publisher.categories[0] != "Report" {
		t.Fatalf("category events = %v", publisher.categories)
	}
	if len(publisher.rescans) != 1 || publisher.rescans[0] != "Report" {
		t.Fatalf("rescan events = %v", publisher.rescans)
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	manager, _, _ := newManager(t)
	if _, _, err := manager.Create(context.Background(), domain.CategoryInvoice, ""); !domain.IsKind(err, domain.ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
}

func TestCreateCategoryLimit(t *testing.T) {
	manager, _, _ := newManager(t)
	for i := 0; i < 3; i++ {
		if _, _, err := manager.Create(context.Background(), fmt.Sprintf("custom%d", i), ""); err != nil {
			t.Fatalf("Create(custom%d) error = %v", i, err)
		}
	}
	if _, _, err := manager.Create(context.Background(), "one-too-many", ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateCategoryPublishFailureDoesNotBlock(t *testing.T) {
	reg := testRegistry(t)
	publisher := &publisherRecorder{err: fmt.Errorf("broker down")}
	scanner := NewScanner(newStorageFake(), newTestIndex(), newStubPipeline(nil), reg, newMatcher(), nil, 4, testLogger(), nil)
	manager := NewCategoryManager(reg, scanner, publisher, testLogger())

	if _, _, err := manager.Create(context.Background(), "offline", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}
