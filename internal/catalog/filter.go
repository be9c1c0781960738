package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
)

// AllCategories selects every category
const AllCategories = "all"

// SortKey orders the visible item list
type SortKey string

const (
	SortNone      SortKey = ""
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "new"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
)

// ParseSortKey maps a wire value to a SortKey, reporting unknown values
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortNone, SortRating, SortNewest, SortPriceAsc, SortPriceDesc:
		return k, true
	default:
		return SortNone, false
	}
}

// Criteria is the filter state chosen in the storefront
type Criteria struct {
	Category string
	Sort     SortKey
	Search   string
}

// DefaultCriteria shows every item in catalog order
func DefaultCriteria() Criteria {
	return Criteria{Category: AllCategories}
}

// Filter returns the items matching c in display order.
// The input slice is never modified.
func Filter(items []models.FoodItem, c Criteria) []models.FoodItem {
	out := make([]models.FoodItem, 0, len(items))

	query := strings.ToLower(strings.TrimSpace(c.Search))
	for _, item := range items {
		if !matchesCategory(item, c.Category) {
			continue
		}
		if query != "" && !matchesSearch(item, query) {
			continue
		}
		out = append(out, item)
	}

	Sort(out, c.Sort)
	return out
}

// Sort orders items in place by key; equal keys keep their relative order
func Sort(items []models.FoodItem, key SortKey) {
	var less func(a, b models.FoodItem) bool
	switch key {
	case SortRating:
		less = func(a, b models.FoodItem) bool { return a.Rating > b.Rating }
	case SortNewest:
		less = func(a, b models.FoodItem) bool { return a.ID > b.ID }
	case SortPriceAsc:
		less = func(a, b models.FoodItem) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b models.FoodItem) bool { return a.Price > b.Price }
	default:
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
}

func matchesCategory(item models.FoodItem, category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return strconv.FormatInt(item.CategoryID, 10) == category
}

func matchesSearch(item models.FoodItem, query string) bool {
	return strings.Contains(strings.ToLower(item.Name), query) ||
		strings.Contains(strings.ToLower(item.Description), query)
}
