package catalog

// AllCategory is the synthetic category selector meaning "no category filter".
// It is never a valid category on a record.
const AllCategory = "All"

// Integration is one third-party tool the voice agent connects to.
type Integration struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	KeyFeatures []string `json:"key_features,omitempty" yaml:"key_features,omitempty"`
	Popular     bool     `json:"popular" yaml:"popular"`

	// Presentation metadata, never searched.
	Logo       string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Website    string `json:"website,omitempty" yaml:"website,omitempty"`
	DetailPath string `json:"detail_path,omitempty" yaml:"detail_path,omitempty"`
}

// Clone returns a copy that shares no memory with rec.
func (rec Integration) Clone() Integration {
	if rec.KeyFeatures != nil {
		features := make([]string, len(rec.KeyFeatures))
		copy(features, rec.KeyFeatures)
		rec.KeyFeatures = features
	}
	return rec
}

// CategoryCount pairs a category label with the number of records carrying it.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FilterState is the consumer-owned pair driving what is displayed.
type FilterState struct {
	Category string `json:"category"`
	Query    string `json:"query"`
}

// DefaultFilterState selects every record with no search.
func DefaultFilterState() FilterState {
	return FilterState{Category: AllCategory}
}

// WithCategory switches category and clears the search, which is how the
// integrations page behaves when a category tab is clicked.
func (s FilterState) WithCategory(category string) FilterState {
	return FilterState{Category: category}
}

// WithQuery keeps the category and replaces the search text.
func (s FilterState) WithQuery(query string) FilterState {
	return FilterState{Category: s.Category, Query: query}
}

// FilterResult is the ordered subset of the catalog matching a FilterState.
type FilterResult struct {
	Results []Integration `json:"results"`
	Count   int           `json:"count"`
}
