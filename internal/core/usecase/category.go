package usecase

import (
	"context"
	"log/slog"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
)

// CategoryManager creates custom categories and kicks off the
// retroactive rescan that gives the new category a chance at files
// previously left uncategorized.
type CategoryManager struct {
	registry  ports.CategoryRegistry
	scanner   ports.DirectoryScanner
	publisher ports.EventPublisher
	logger    *slog.Logger
}

func NewCategoryManager(
	registry ports.CategoryRegistry,
	scanner ports.DirectoryScanner,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *CategoryManager {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &CategoryManager{
		registry:  registry,
		scanner:   scanner,
		publisher: publisher,
		logger:    logger,
	}
}

// Create registers the category and returns it together with the id of
// the background rescan job it started.
func (m *CategoryManager) Create(ctx context.Context, name, seedContext string) (domain.Category, string, error) {
	category, err := m.registry.Create(name, seedContext)
	if err != nil {
		return domain.Category{}, "", err
	}

	if err := m.publisher.PublishCategoryCreated(ctx, category.Name); err != nil {
		m.logger.Warn("publish category created event", "category", category.Name, "error", err)
	}
	if err := m.publisher.PublishRescanRequested(ctx, category.Name); err != nil {
		m.logger.Warn("publish rescan requested event", "category", category.Name, "error", err)
	}

	rescanID := m.scanner.StartRescan(category.Name)
	m.logger.Info("category created", "category", category.Name, "rescan_job", rescanID)
	return category, rescanID, nil
}
