package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CategorySeed is one built-in category definition loaded from the
// categories file. Order in the file is registry order.
type CategorySeed struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type categoriesDoc struct {
	Categories []CategorySeed `yaml:"categories"`
}

//go:embed categories.yaml
var defaultCategoriesYAML []byte

// LoadCategorySeeds reads the category seed file, falling back to the
// embedded default when path is empty.
func LoadCategorySeeds(path string) ([]CategorySeed, error) {
	raw := defaultCategoriesYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read categories file: %w", err)
		}
		raw = data
	}

	var doc categoriesDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse categories yaml: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("categories yaml: no categories defined")
	}
	return doc.Categories, nil
}
