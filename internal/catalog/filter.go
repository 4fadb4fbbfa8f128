package catalog

import (
	"sort"
	"strings"
)

// FilterState holds the three independent predicates driving the catalog
// view. Empty fields mean "no constraint". It lives only in the UI layer and
// is never persisted.
type FilterState struct {
	Category string
	Brand    string
	Search   string
}

// IsZero reports whether no constraint is active.
func (f FilterState) IsZero() bool {
	return f.Category == "" && f.Brand == "" && f.Search == ""
}

// Apply returns the subset of products passing every active predicate,
// preserving the original relative order. Category and brand match exactly
// (case-sensitive); the search term matches case-insensitively against name
// and description.
func Apply(products []Product, state FilterState) []Product {
	if state.IsZero() {
		out := make([]Product, len(products))
		copy(out, products)
		return out
	}

	search := strings.ToLower(state.Search)
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if state.Category != "" && p.Category != state.Category {
			continue
		}
		if state.Brand != "" && p.Brand != state.Brand {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DistinctCategories returns the sorted set of non-empty category names in
// the working set, for populating the category filter control.
func DistinctCategories(products []Product) []string {
	return distinct(products, func(p Product) string { return p.Category })
}

// DistinctBrands returns the sorted set of non-empty brand names.
func DistinctBrands(products []Product) []string {
	return distinct(products, func(p Product) string { return p.Brand })
}

func distinct(products []Product, field func(Product) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range products {
		v := field(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
