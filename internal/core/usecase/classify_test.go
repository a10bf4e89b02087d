package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

func newPipeline(t *testing.T, extractor *extractorStub, classifier *classifierStub) *ClassificationPipeline {
	t.Helper()
	return NewClassificationPipeline(
		testRegistry(t), newMatcher(), extractor, classifier,
		time.Second, testLogger(), nil,
	)
}

func TestClassifyKeywordMatchShortCircuits(t *testing.T) {
	extractor := &extractorStub{}
	classifier := &classifierStub{}
	pipeline := newPipeline(t, extractor, classifier)

	got := pipeline.Classify(context.Background(), "docs/invoice_2024.pdf", "invoice_2024.pdf")
	if got.Category != domain.CategoryInvoice || got.Source != domain.SourceFilename {
		t.Fatalf("Classify() = %+v", got)
	}
	if extractor.calls != 0 || classifier.calls != 0 {
		t.Fatalf("content stage consulted despite keyword match")
	}
}

func TestClassifyFallsThroughToContentStage(t *testing.T) {
	extractor := &extractorStub{texts: map[string]string{"scan0001.pdf": "total amount due 45.00"}}
	classifier := &classifierStub{suggestion: domain.Suggestion{Category: domain.CategoryInvoice, Confidence: 0.9}}
	pipeline := newPipeline(t, extractor, classifier)

	got := pipeline.Classify(context.Background(), "scan0001.pdf", "scan0001.pdf")
	if got.Category != domain.CategoryInvoice || got.Source != domain.SourceAI {
		t.Fatalf("Classify() = %+v", got)
	}
	if classifier.lastInput != "total amount due 45.00" {
		t.Fatalf("classifier saw %q", classifier.lastInput)
	}
}

func TestClassifyClassifierErrorDefaultsToUncategorized(t *testing.T) {
	extractor := &extractorStub{}
	classifier := &classifierStub{err: errors.New("model down")}
	pipeline := newPipeline(t, extractor, classifier)

	got := pipeline.Classify(context.Background(), "scan0001.pdf", "scan0001.pdf")
	if got.Category != domain.CategoryUncategorized {
		t.Fatalf("category = %q, want uncategorized", got.Category)
	}
	if got.Source != domain.SourceFilename {
		t.Fatalf("source = %q, want filename default", got.Source)
	}
}

func TestClassifyUnknownSuggestionDefaultsToUncategorized(t *testing.T) {
	extractor := &extractorStub{}
	classifier := &classifierStub{suggestion: domain.Suggestion{Category: "memes"}}
	pipeline := newPipeline(t, extractor, classifier)

	got := pipeline.Classify(context.Background(), "scan0001.pdf", "scan0001.pdf")
	if got.Category != domain.CategoryUncategorized {
		t.Fatalf("category = %q, want uncategorized", got.Category)
	}
}

func TestClassifyExtractionFailureStillConsultsClassifier(t *testing.T) {
	extractor := &extractorStub{err: errors.New("corrupt pdf")}
	classifier := &classifierStub{suggestion: domain.Suggestion{Category: domain.CategoryThesis}}
	pipeline := newPipeline(t, extractor, classifier)

	got := pipeline.Classify(context.Background(), "scan0001.pdf", "scan0001.pdf")
	if got.Category != domain.CategoryThesis || got.Source != domain.SourceAI {
		t.Fatalf("Classify() = %+v", got)
	}
	if classifier.calls != 1 || classifier.lastInput != "" {
		t.Fatalf("classifier calls=%d input=%q", classifier.calls, classifier.lastInput)
	}
}

func TestClassifyNilClassifierDefaultsToUncategorized(t *testing.T) {
	pipeline := NewClassificationPipeline(
		testRegistry(t), newMatcher(), &extractorStub{}, nil,
		time.Second, testLogger(), nil,
	)

	got := pipeline.Classify(context.Background(), "scan0001.pdf", "scan0001.pdf")
	if got.Category != domain.CategoryUncategorized {
		t.Fatalf("category = %q, want uncategorized", got.Category)
	}
}
