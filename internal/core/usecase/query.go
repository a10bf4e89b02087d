package usecase

import (
	"context"
	"fmt"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/core/ports"
)

// CatalogQueries is the read side of the catalog: per-category stats,
// per-category listings and the global filtered/sorted file view.
type CatalogQueries struct {
	registry ports.CategoryRegistry
	index    ports.CatalogIndex
}

func NewCatalogQueries(registry ports.CategoryRegistry, index ports.CatalogIndex) *CatalogQueries {
	return &CatalogQueries{registry: registry, index: index}
}

// Stats reports every registered category, including those that hold no
// files yet.
func (q *CatalogQueries) Stats(ctx context.Context) (map[string]domain.CategoryStats, error) {
	stats, err := q.index.Stats(ctx)
	if err != nil {
		return nil, err
	}
	for _, category := range q.registry.List() {
		if _, ok := stats[category.Name]; !ok {
			stats[category.Name] = domain.CategoryStats{Files: []domain.FileRecord{}}
		}
	}
	return stats, nil
}

func (q *CatalogQueries) CategoryFiles(ctx context.Context, category string) (domain.CategoryStats, error) {
	if _, err := q.registry.Get(category); err != nil {
		return domain.CategoryStats{}, err
	}
	return q.index.StatsFor(ctx, category)
}

func (q *CatalogQueries) AllFiles(ctx context.Context, category, sortBy, order string) ([]domain.FileRecord, error) {
	query := domain.FileQuery{
		Sort:  domain.SortByTime,
		Order: domain.OrderDesc,
	}

	switch sortBy {
	case "", string(domain.SortByTime):
	case string(domain.SortBySize):
		query.Sort = domain.SortBySize
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "list files", fmt.Errorf("unknown sort %q", sortBy))
	}

	switch order {
	case "", string(domain.OrderDesc):
	case string(domain.OrderAsc):
		query.Order = domain.OrderAsc
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "list files", fmt.Errorf("unknown order %q", order))
	}

	if category != "" {
		if _, err := q.registry.Get(category); err != nil {
			return nil, err
		}
		query.Category = category
	}

	return q.index.AllFiles(ctx, query)
}
