package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/intcat/pkg/util"
)

// DefaultPatterns selects every catalog document under a directory.
var DefaultPatterns = []string{"**/*.json", "**/*.yaml", "**/*.yml"}

// DiscoverFiles walks root and returns the files whose slash-separated
// relative path matches any of the doublestar patterns, sorted for
// deterministic merge order.
func DiscoverFiles(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid catalog pattern: %s", pattern)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog root: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != absRoot && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// LoadFromDir merges every catalog document under root matching patterns
// into one catalog. Records keep file order, then in-file order. The merged
// catalog takes the first non-empty name and version it sees; ids must be
// unique across all files.
func LoadFromDir(root string, patterns []string) (*Catalog, *CatalogIndex, error) {
	files, err := DiscoverFiles(root, patterns)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no catalog files found under %s", root)
	}

	merged := &Catalog{}
	for _, path := range files {
		data, err := util.ReadFileMapped(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
		}
		part, err := decode(data, FormatFromPath(path))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		if merged.Name == "" {
			merged.Name = part.Name
		}
		if merged.Version == "" {
			merged.Version = part.Version
		}
		merged.Integrations = append(merged.Integrations, part.Integrations...)
	}

	return finish(merged)
}

// Load loads a catalog from path, which may be a single document or a
// directory of documents.
func Load(path string, patterns []string) (*Catalog, *CatalogIndex, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat catalog path: %w", err)
	}
	if info.IsDir() {
		return LoadFromDir(path, patterns)
	}
	return LoadFromFile(path)
}
