package catalog

import "strings"

// FilterCatalog returns the records passing both the category and the
// search predicate, in catalog order.
//
// The category predicate passes every record for AllCategory and otherwise
// requires an exact match, so an unknown category yields zero results.
// The search predicate is skipped when the trimmed query is empty; otherwise
// a record passes if its name, description or any key feature contains the
// query, compared case-insensitively.
//
// The input slice and its records are never modified. The result slice is
// never nil.
func FilterCatalog(items []Integration, activeCategory, searchQuery string) FilterResult {
	query := NormalizeQuery(searchQuery)

	results := make([]Integration, 0)
	for i := range items {
		rec := &items[i]
		if !matchesCategory(rec, activeCategory) {
			continue
		}
		if query != "" && !matchesQuery(rec, query) {
			continue
		}
		results = append(results, *rec)
	}

	return FilterResult{Results: results, Count: len(results)}
}

// Apply runs FilterCatalog with this state.
func (s FilterState) Apply(items []Integration) FilterResult {
	return FilterCatalog(items, s.Category, s.Query)
}

// NormalizeQuery trims and lower-cases a search query. An empty return value
// means "no search".
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func matchesCategory(rec *Integration, category string) bool {
	return category == AllCategory || rec.Category == category
}

// matchesQuery expects query to be normalized already.
func matchesQuery(rec *Integration, query string) bool {
	if strings.Contains(strings.ToLower(rec.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(rec.Description), query) {
		return true
	}
	for _, f := range rec.KeyFeatures {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
