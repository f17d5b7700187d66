package pipeline

import (
	"strings"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// applyFilters runs the brand -> price -> discount chain in that fixed
// order (spec.md §4.6 step 6). It never relaxes a constraint: a filter
// that empties the set is reported via the returned reason so the caller
// can fail with NoMatch.
func applyFilters(products []domain.Product, filters domain.Filters) ([]domain.Product, string) {
	out := products

	if filters.Brand != nil {
		out = filterBrand(out, *filters.Brand)
		if len(out) == 0 {
			return nil, "brand_filter"
		}
	}

	if filters.MaxPrice != nil {
		out = filterMaxPrice(out, *filters.MaxPrice)
		if len(out) == 0 {
			return nil, "price_filter"
		}
	}

	if filters.MinDiscountPercent != nil {
		out = filterMinDiscount(out, *filters.MinDiscountPercent)
		if len(out) == 0 {
			return nil, "discount_filter"
		}
	}

	return out, ""
}

func filterBrand(products []domain.Product, brand string) []domain.Product {
	want := strings.ToLower(strings.TrimSpace(brand))
	var out []domain.Product
	for _, p := range products {
		if strings.ToLower(strings.TrimSpace(p.Brand)) == want {
			out = append(out, p)
		}
	}
	return out
}

func filterMaxPrice(products []domain.Product, maxPrice int) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		if p.PriceRupees != nil && *p.PriceRupees <= maxPrice {
			out = append(out, p)
		}
	}
	return out
}

func filterMinDiscount(products []domain.Product, minDiscount int) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		discount, ok := p.DiscountPercent()
		if ok && discount >= minDiscount {
			out = append(out, p)
		}
	}
	return out
}
