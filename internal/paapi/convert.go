package paapi

import (
	"time"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// paiseToRupees converts an integer paise amount to rupees, rounding to
// the nearest rupee. Upstream prices arrive in paise for the India
// marketplace; the core stores rupees everywhere (spec.md §3, §4.7).
func paiseToRupees(paise int64) int {
	return int(paise+50) / 100 // round to nearest rupee
}

// ToDomainProduct converts one wire Product into the domain.Product the
// rest of the core consumes. When the AI resource set was requested but
// the upstream silently dropped technical_details/features_list, the
// returned fields are empty slices/maps, never nil — the adapter
// guarantees "empty, not missing" (spec.md §4.7).
func ToDomainProduct(p Product, fetchedAt time.Time) domain.Product {
	out := domain.Product{
		ASIN:         p.ASIN,
		Title:        p.Title,
		Brand:        p.Brand,
		Manufacturer: p.Manufacturer,
		RatingCount:   p.RatingCount,
		AverageRating: p.AverageRating,
		FetchedAt:     fetchedAt,
	}

	if p.PricePaise != nil {
		v := paiseToRupees(*p.PricePaise)
		out.PriceRupees = &v
	}
	if p.ListPricePaise != nil {
		v := paiseToRupees(*p.ListPricePaise)
		out.ListPriceRupees = &v
	}

	out.ImageURL = preferredImage(p)

	out.FeaturesList = p.FeaturesList
	if out.FeaturesList == nil {
		out.FeaturesList = []string{}
	}
	out.TechnicalDetails = p.TechnicalDetails
	if out.TechnicalDetails == nil {
		out.TechnicalDetails = map[string]string{}
	}

	return out
}

// preferredImage reduces the upstream's multiple image sizes to one
// image_url: large preferred, medium fallback (spec.md §4.7).
func preferredImage(p Product) string {
	if p.ImageLarge != "" {
		return p.ImageLarge
	}
	return p.ImageMedium
}

// ToDomainProducts converts a batch of wire products, preserving order.
func ToDomainProducts(items []Product, fetchedAt time.Time) []domain.Product {
	out := make([]domain.Product, 0, len(items))
	for _, p := range items {
		out = append(out, ToDomainProduct(p, fetchedAt))
	}
	return out
}
