// Package paapi is the sole point of contact with the upstream
// product-advertising API (spec.md §4.7): it hides quota management,
// pagination, resource selection, batching, rate limiting, and fallbacks
// behind a stable interface.
package paapi

import "context"

// ResourceSet names one of the two frozen resource presets an operation
// requests from the upstream.
type ResourceSet string

// Resource set presets (spec.md §4.7).
const (
	// ResourceSetSearch is the AI search set: title, features, technical
	// info, brand/manufacturer, price, image, review count, star rating.
	ResourceSetSearch ResourceSet = "ai_search"
	// ResourceSetLookup is the AI lookup set: title, features, technical
	// info, brand, detailed price (including saving basis), image.
	ResourceSetLookup ResourceSet = "ai_lookup"
)

// SearchRequest defines the parameters for one upstream SearchItems call.
type SearchRequest struct {
	Keywords    string
	SearchIndex string
	MinPrice    *int // rupees; converted to paise at the wire boundary
	MaxPrice    *int
	BrowseNode  string
	ItemCount   int
	Resources   ResourceSet
	ItemPage    int // 1-indexed
}

// stripPriceRangeWorkaround implements the §4.7/§6 "send only MinPrice"
// workaround at the adapter boundary: the upstream API rejects a request
// carrying both MinPrice and MaxPrice, so when a caller supplies both, only
// MinPrice is sent upstream. Reports whether the workaround applied so
// callers can filter MaxPrice back in client-side.
func stripPriceRangeWorkaround(req SearchRequest) (SearchRequest, bool) {
	if req.MinPrice == nil || req.MaxPrice == nil {
		return req, false
	}
	req.MaxPrice = nil
	return req, true
}

// RawMeta carries upstream response metadata the pipeline needs for
// provenance (spec.md §4.6 step 12).
type RawMeta struct {
	TotalResultCount     int
	PriceRangeWorkaround bool // true when both min and max price were supplied
	HasMorePages         bool
}

// SearchResponse holds the result of one upstream SearchItems call.
type SearchResponse struct {
	Products []Product
	Meta     RawMeta
}

// Client is the narrow transport interface the adapter drives; swappable
// for a fake in tests.
type Client interface {
	SearchItems(ctx context.Context, req SearchRequest) (SearchResponse, error)
	GetItems(ctx context.Context, asins []string, resources ResourceSet) (map[string]Product, error)
}

// PriceSource is the pluggable fallback price capability (spec.md §4.7):
// ASIN in, price-rupees-or-null out. Not part of the core's invariants.
type PriceSource interface {
	Price(ctx context.Context, asin string) (priceRupees *int, err error)
}
