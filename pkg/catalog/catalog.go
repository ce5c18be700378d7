package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/intcat/pkg/util"
)

// Catalog holds the full set of integrations shown on the site.
type Catalog struct {
	Name         string        `json:"name" yaml:"name"`
	Version      string        `json:"version" yaml:"version"`
	Integrations []Integration `json:"integrations" yaml:"integrations"`
}

// CatalogIndex provides O(1) lookups into the catalog.
// Built during loading after validation passes.
type CatalogIndex struct {
	// ByID maps integration id -> *Integration.
	ByID map[string]*Integration

	// ByCategory maps category -> records in catalog order.
	ByCategory map[string][]*Integration

	// Categories is the derived selector list, computed once per load.
	Categories []string
}

// Format identifies a catalog document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a document format from a file extension.
// Anything that is not .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Validate checks the catalog for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (c *Catalog) Validate() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, fmt.Errorf("catalog name is required"))
	}
	if c.Version == "" {
		errs = append(errs, fmt.Errorf("catalog version is required"))
	}

	ids := make(map[string]bool, len(c.Integrations))
	for i, rec := range c.Integrations {
		if rec.ID == "" {
			errs = append(errs, fmt.Errorf("integrations[%d]: id is required", i))
		} else if ids[rec.ID] {
			errs = append(errs, fmt.Errorf("integration %q: duplicate id", rec.ID))
		} else {
			ids[rec.ID] = true
		}

		label := rec.ID
		if label == "" {
			label = fmt.Sprintf("integrations[%d]", i)
		}
		if rec.Name == "" {
			errs = append(errs, fmt.Errorf("integration %q: name is required", label))
		}
		switch rec.Category {
		case "":
			errs = append(errs, fmt.Errorf("integration %q: category is required", label))
		case AllCategory:
			errs = append(errs, fmt.Errorf("integration %q: category %q is reserved", label, AllCategory))
		}
	}

	return errs
}

// BuildIndex creates lookup maps for fast access.
// Should be called after Validate() passes.
func (c *Catalog) BuildIndex() *CatalogIndex {
	idx := &CatalogIndex{
		ByID:       make(map[string]*Integration, len(c.Integrations)),
		ByCategory: make(map[string][]*Integration),
		Categories: DeriveCategories(c.Integrations),
	}

	for i := range c.Integrations {
		rec := &c.Integrations[i]
		idx.ByID[rec.ID] = rec
		idx.ByCategory[rec.Category] = append(idx.ByCategory[rec.Category], rec)
	}

	return idx
}

// LoadFromFile loads a catalog from a JSON or YAML file, validates it, and
// builds the index.
func LoadFromFile(path string) (*Catalog, *CatalogIndex, error) {
	data, err := util.ReadFileMapped(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadFromBytes(data, FormatFromPath(path))
}

// LoadFromBytes parses a catalog document, validates it, and builds the index.
func LoadFromBytes(data []byte, format Format) (*Catalog, *CatalogIndex, error) {
	cat, err := decode(data, format)
	if err != nil {
		return nil, nil, err
	}
	return finish(cat)
}

func decode(data []byte, format Format) (*Catalog, error) {
	var cat Catalog
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
		}
	}
	return &cat, nil
}

func finish(cat *Catalog) (*Catalog, *CatalogIndex, error) {
	if errs := cat.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("catalog validation failed: %w", errors.Join(errs...))
	}
	return cat, cat.BuildIndex(), nil
}
