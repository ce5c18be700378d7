package catalog

import "sort"

// DeriveCategories returns the category selector list for a catalog:
// AllCategory first, then every distinct category ordered by descending
// record count. Categories with equal counts keep the order in which they
// first appear in the catalog.
//
// Records carrying the reserved AllCategory label are not listed a second
// time; they stay reachable through the AllCategory selector only. An empty
// category is a distinct value like any other and is listed.
func DeriveCategories(items []Integration) []string {
	counts := make(map[string]int)
	var order []string

	for i := range items {
		cat := items[i].Category
		if cat == AllCategory {
			continue
		}
		if counts[cat] == 0 {
			order = append(order, cat)
		}
		counts[cat]++
	}

	// Stability is required: ties must keep encounter order.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	result := make([]string, 0, len(order)+1)
	result = append(result, AllCategory)
	return append(result, order...)
}

// countCategories returns per-category record counts in the order of cats.
// The AllCategory entry carries the total catalog size.
func countCategories(items []Integration, cats []string) []CategoryCount {
	counts := make(map[string]int, len(cats))
	for i := range items {
		counts[items[i].Category]++
	}

	result := make([]CategoryCount, 0, len(cats))
	for _, name := range cats {
		n := counts[name]
		if name == AllCategory {
			n = len(items)
		}
		result = append(result, CategoryCount{Name: name, Count: n})
	}
	return result
}
