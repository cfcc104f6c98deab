package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category is one entry of the issue catalog.
type Category struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Icon  string `yaml:"icon" json:"icon"`
	Color string `yaml:"color" json:"color"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var loadCatalog = sync.OnceValue(func() []Category {
	cats, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return cats
})

// ParseCatalog decodes a catalog document and rejects empty or duplicate ids.
func ParseCatalog(data []byte) ([]Category, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, errors.New("catalog has no categories")
	}

	seen := make(map[string]struct{}, len(doc.Categories))
	for i, c := range doc.Categories {
		if c.ID == "" {
			return nil, fmt.Errorf("category %d: empty id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("category %q: duplicate id", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return doc.Categories, nil
}

// Categories returns a copy of the catalog in display order.
func Categories() []Category {
	return slices.Clone(loadCatalog())
}

// LookupCategory returns the category with the given id, or ErrNotFound.
func LookupCategory(id string) (Category, error) {
	for _, c := range loadCatalog() {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("category %q: %w", id, ErrNotFound)
}
