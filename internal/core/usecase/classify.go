package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
	"github.com/MeiZhiYying/classifyDoc/internal/observability/metrics"
)

// ClassificationPipeline runs the two-stage decision for one file:
// a keyword pass over the filename first, then the content classifier.
// It always lands on a category; when both stages come up empty the
// file goes to uncategorized.
type ClassificationPipeline struct {
	registry   ports.CategoryRegistry
	matcher    ports.KeywordMatcher
	extractor  ports.TextExtractor
	classifier ports.ContentClassifier
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.EngineMetrics
}

func NewClassificationPipeline(
	registry ports.CategoryRegistry,
	matcher ports.KeywordMatcher,
	extractor ports.TextExtractor,
	classifier ports.ContentClassifier,
	timeout time.Duration,
	logger *slog.Logger,
	engineMetrics *metrics.EngineMetrics,
) *ClassificationPipeline {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ClassificationPipeline{
		registry:   registry,
		matcher:    matcher,
		extractor:  extractor,
		classifier: classifier,
		timeout:    timeout,
		logger:     logger,
		metrics:    engineMetrics,
	}
}

func (p *ClassificationPipeline) Classify(ctx context.Context, storageKey, filename string) domain.Decision {
	if category, ok := p.matcher.Match(filename, p.registry.List()); ok {
		return p.decided(domain.Decision{Category: category, Source: domain.SourceFilename})
	}
	return p.decided(p.classifyByContent(ctx, storageKey, filename))
}

func (p *ClassificationPipeline) decided(decision domain.Decision) domain.Decision {
	if p.metrics != nil {
		p.metrics.RecordDecision(string(decision.Source), decision.Category)
	}
	return decision
}

func (p *ClassificationPipeline) classifyByContent(ctx context.Context, storageKey, filename string) domain.Decision {
	fallback := domain.Decision{Category: domain.CategoryUncategorized, Source: domain.SourceFilename}
	if p.classifier == nil {
		return fallback
	}

	content, err := p.extractor.Extract(ctx, storageKey)
	if err != nil {
		// Unreadable content is not fatal; the classifier still sees
		// the filename.
		p.logger.Debug("content extraction failed", "file", storageKey, "error", err)
		p.recordFallback("extract_failed")
		content = ""
	}

	classifyCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	suggestion, err := p.classifier.Classify(classifyCtx, filename, content)
	if err != nil {
		p.logger.Warn("content classifier unavailable, defaulting to uncategorized",
			"file", storageKey, "error", err)
		p.recordFallback("classifier_error")
		return fallback
	}

	if _, err := p.registry.Get(suggestion.Category); err != nil {
		p.logger.Warn("classifier suggested unknown category",
			"file", storageKey, "category", suggestion.Category)
		p.recordFallback("unknown_category")
		return fallback
	}

	return domain.Decision{Category: suggestion.Category, Source: domain.SourceAI}
}

func (p *ClassificationPipeline) recordFallback(reason string) {
	if p.metrics != nil {
		p.metrics.RecordClassifierFallback(reason)
	}
}
