package catalog

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of distinct filter states memoized per
// catalog snapshot.
const DefaultCacheSize = 256

// QueryService provides read-only query methods over a loaded catalog.
// Safe for concurrent use; the catalog is never mutated after construction.
type QueryService struct {
	Catalog *Catalog
	Index   *CatalogIndex

	cache     *lru.Cache[string, FilterResult] // nil when memoization is off
	cacheSize int
	logger    *slog.Logger
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithCacheSize sets the filter memo size. Zero or negative disables it.
func WithCacheSize(size int) QueryOption {
	return func(q *QueryService) {
		q.cacheSize = size
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) QueryOption {
	return func(q *QueryService) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// NewQueryService creates a QueryService from a validated catalog and its index.
func NewQueryService(cat *Catalog, idx *CatalogIndex, opts ...QueryOption) *QueryService {
	q := &QueryService{
		Catalog:   cat,
		Index:     idx,
		cacheSize: DefaultCacheSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.cacheSize > 0 {
		cache, err := lru.New[string, FilterResult](q.cacheSize)
		if err != nil {
			q.logger.Warn("filter cache disabled", "size", q.cacheSize, "error", err)
		} else {
			q.cache = cache
		}
	}
	return q
}

// LoadAndQuery loads a catalog file or directory and returns a ready-to-use QueryService.
func LoadAndQuery(path string, patterns []string, opts ...QueryOption) (*QueryService, error) {
	cat, idx, err := Load(path, patterns)
	if err != nil {
		return nil, err
	}
	return NewQueryService(cat, idx, opts...), nil
}

// LoadAndQueryBytes loads a catalog document from raw bytes and returns a ready-to-use QueryService.
func LoadAndQueryBytes(data []byte, format Format, opts ...QueryOption) (*QueryService, error) {
	cat, idx, err := LoadFromBytes(data, format)
	if err != nil {
		return nil, err
	}
	return NewQueryService(cat, idx, opts...), nil
}

// Len returns the number of integrations in the catalog.
func (q *QueryService) Len() int {
	return len(q.Catalog.Integrations)
}

// Categories returns the derived category selector list, "All" first.
func (q *QueryService) Categories() []string {
	out := make([]string, len(q.Index.Categories))
	copy(out, q.Index.Categories)
	return out
}

// HasCategory reports whether category is a valid selector for this catalog.
func (q *QueryService) HasCategory(category string) bool {
	if category == AllCategory {
		return true
	}
	_, ok := q.Index.ByCategory[category]
	return ok
}

// CategoryCounts returns badge counts in selector order.
func (q *QueryService) CategoryCounts() []CategoryCount {
	return countCategories(q.Catalog.Integrations, q.Index.Categories)
}

// Filter returns the integrations matching state. Unknown categories are
// not an error: they produce an empty result and a debug log line.
func (q *QueryService) Filter(state FilterState) FilterResult {
	if !q.HasCategory(state.Category) {
		q.logger.Debug("filter on unknown category", "category", state.Category)
	}

	if q.cache == nil {
		return cloneResult(state.Apply(q.Catalog.Integrations))
	}

	key := state.Category + "\x00" + NormalizeQuery(state.Query)
	res, ok := q.cache.Get(key)
	if !ok {
		res = state.Apply(q.Catalog.Integrations)
		q.cache.Add(key, res)
	}
	return cloneResult(res)
}

// GetIntegration looks up an integration by id and returns a copy.
// The bool indicates whether it was found.
func (q *QueryService) GetIntegration(id string) (*Integration, bool) {
	rec, ok := q.Index.ByID[id]
	if !ok {
		return nil, false
	}
	c := rec.Clone()
	return &c, true
}

// GetIntegrationsByIDs returns integrations matching the given ids.
// Unknown ids are silently skipped. Duplicates are removed.
func (q *QueryService) GetIntegrationsByIDs(ids []string) []*Integration {
	seen := make(map[string]bool, len(ids))
	result := make([]*Integration, 0, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if rec, ok := q.Index.ByID[id]; ok {
			c := rec.Clone()
			result = append(result, &c)
		}
	}

	return result
}

// Popular returns the featured integrations in catalog order.
func (q *QueryService) Popular() []Integration {
	result := make([]Integration, 0)
	for _, rec := range q.Catalog.Integrations {
		if rec.Popular {
			result = append(result, rec.Clone())
		}
	}
	return result
}

func cloneResult(r FilterResult) FilterResult {
	out := make([]Integration, len(r.Results))
	for i := range r.Results {
		out[i] = r.Results[i].Clone()
	}
	return FilterResult{Results: out, Count: r.Count}
}
