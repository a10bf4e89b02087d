package matching

import (
	"strings"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

// Matcher is the pure filename stage of the pipeline: a case-insensitive
// substring test of each category's keywords against the file name.
type Matcher struct{}

func New() *Matcher {
	return &Matcher{}
}

// Match returns the first category in registry order with a keyword hit.
// Registry order is the tie-break, not keyword specificity. Uncategorized
// never matches; an empty filename never matches.
func (m *Matcher) Match(filename string, categories []domain.Category) (string, bool) {
	lowerName := strings.ToLower(strings.TrimSpace(filename))
	if lowerName == "" {
		return "", false
	}

	for _, category := range categories {
		if category.Name == domain.CategoryUncategorized {
			continue
		}
		for _, keyword := range category.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(lowerName, strings.ToLower(keyword)) {
				return category.Name, true
			}
		}
	}
	return "", false
}
