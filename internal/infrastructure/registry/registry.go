package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/MeiZhiYying/classifyDoc/internal/config"
	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

// Registry holds the known categories: built-ins seeded from config in
// their declared order, then custom categories in creation order.
// Create is atomic with respect to concurrent creates.
type Registry struct {
	mu          sync.RWMutex
	categories  []domain.Category
	byName      map[string]int
	maxCustom   int
	customCount int
}

func New(seeds []config.CategorySeed, maxCustom int) (*Registry, error) {
	if maxCustom <= 0 {
		maxCustom = 3
	}
	r := &Registry{
		byName:    make(map[string]int, len(seeds)),
		maxCustom: maxCustom,
	}

	for _, seed := range seeds {
		name := strings.TrimSpace(seed.Name)
		if name == "" {
			return nil, fmt.Errorf("category seed with empty name")
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("duplicate category seed: %s", name)
		}
		r.byName[name] = len(r.categories)
		r.categories = append(r.categories, domain.Category{
			Name:      name,
			Keywords:  append([]string(nil), seed.Keywords...),
			IsBuiltin: true,
		})
	}

	if _, ok := r.byName[domain.CategoryUncategorized]; !ok {
		r.byName[domain.CategoryUncategorized] = len(r.categories)
		r.categories = append(r.categories, domain.Category{
			Name:      domain.CategoryUncategorized,
			IsBuiltin: true,
		})
	}
	return r, nil
}

func (r *Registry) Get(name string) (domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[name]
	if !ok {
		return domain.Category{}, domain.WrapError(domain.ErrCategoryNotFound, "registry get", fmt.Errorf("unknown category %q", name))
	}
	return cloneCategory(r.categories[idx]), nil
}

func (r *Registry) List() []domain.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Category, 0, len(r.categories))
	for _, category := range r.categories {
		out = append(out, cloneCategory(category))
	}
	return out
}

// Create registers a custom category. The seed keyword set is the
// category name plus the seed context (a requester identity), so the
// new category immediately claims filenames containing either.
func (r *Registry) Create(name, seedContext string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.WrapError(domain.ErrInvalidInput, "registry create", fmt.Errorf("empty category name"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return domain.Category{}, domain.WrapError(domain.ErrDuplicateCategory, "registry create", fmt.Errorf("category %q already exists", name))
	}
	if r.customCount >= r.maxCustom {
		return domain.Category{}, domain.WrapError(domain.ErrInvalidInput, "registry create", fmt.Errorf("custom category limit %d reached", r.maxCustom))
	}

	category := domain.Category{
		Name:     name,
		Keywords: seedKeywords(name, seedContext),
	}
	r.byName[name] = len(r.categories)
	r.categories = append(r.categories, category)
	r.customCount++
	return cloneCategory(category), nil
}

func (r *Registry) Keywords() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.categories))
	for _, category := range r.categories {
		out[category.Name] = append([]string(nil), category.Keywords...)
	}
	return out
}

func seedKeywords(name, seedContext string) []string {
	keywords := []string{strings.ToLower(name)}
	seedContext = strings.ToLower(strings.TrimSpace(seedContext))
	if seedContext != "" && seedContext != keywords[0] {
		keywords = append(keywords, seedContext)
	}
	return keywords
}

func cloneCategory(c domain.Category) domain.Category {
	c.Keywords = append([]string(nil), c.Keywords...)
	return c
}
