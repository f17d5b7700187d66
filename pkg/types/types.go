// Package domain defines the core business types shared across the
// query→search→enrich→select pipeline and the watch evaluator.
package domain

import "time"

// Mode is the closed set of SelectionResult presentation sizes.
type Mode string

// Mode constants.
const (
	ModeSingle Mode = "single"
	ModeDuo    Mode = "duo"
	ModeTrio   Mode = "trio"
)

// Slice returns how many products a Mode presents.
func (m Mode) Slice() int {
	switch m {
	case ModeDuo:
		return 2
	case ModeTrio:
		return 3
	default:
		return 1
	}
}

// ModelUsed is the closed set of selection models.
type ModelUsed string

// ModelUsed constants.
const (
	ModelFeatureMatch ModelUsed = "feature_match"
	ModelPopularity   ModelUsed = "popularity"
	ModelRandom       ModelUsed = "random"
)

// AlertKind is the closed set of watch alert kinds.
type AlertKind string

// AlertKind constants.
const (
	AlertPriceDrop AlertKind = "price_drop"
	AlertDeal      AlertKind = "deal"
	AlertRestock   AlertKind = "restock"
)

// WatchState is the per-watch state machine (spec.md §4.8).
type WatchState string

// WatchState constants.
const (
	WatchActive    WatchState = "active"
	WatchThrottled WatchState = "throttled"
	WatchPaused    WatchState = "paused"
	WatchExpired   WatchState = "expired"
)

// Filters holds the structured, user-supplied constraints on a Query.
// A nil pointer field means "not supplied"; the pipeline never relaxes a
// supplied filter to manufacture a result (spec.md invariant 4).
type Filters struct {
	MaxPrice           *int    `json:"max_price,omitempty"`
	MinPrice           *int    `json:"min_price,omitempty"`
	MinDiscountPercent *int    `json:"min_discount_percent,omitempty"`
	Brand              *string `json:"brand,omitempty"`
	CategoryHint       *string `json:"category_hint,omitempty"`
}

// Query is the immutable free-text request plus optional structured filters.
type Query struct {
	Text    string  `json:"text"`
	Filters Filters `json:"filters"`
}

// FeatureValue pairs an extracted or analyzed value with its confidence.
type FeatureValue struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ExtractedFeatures is the structured interpretation of a Query. The
// per-product counterpart is the separate ProductFeatures type below.
type ExtractedFeatures struct {
	Features       map[string]FeatureValue `json:"features"`
	TechnicalQuery bool                    `json:"technical_query"`
	Category       string                  `json:"category,omitempty"`
}

// Get returns a feature's value and whether it is present.
func (f *ExtractedFeatures) Get(name string) (FeatureValue, bool) {
	if f == nil || f.Features == nil {
		return FeatureValue{}, false
	}
	v, ok := f.Features[name]
	return v, ok
}

// Set records a feature value, creating the map if necessary.
func (f *ExtractedFeatures) Set(name string, value any, confidence float64) {
	if f.Features == nil {
		f.Features = make(map[string]FeatureValue)
	}
	f.Features[name] = FeatureValue{Value: value, Confidence: confidence}
}

// ProductFeatures is the analyzed, per-product counterpart of
// ExtractedFeatures, with an aggregate confidence over all resolved
// features (spec.md §3/§4.2).
type ProductFeatures struct {
	Features         map[string]FeatureValue `json:"features"`
	Category         string                  `json:"category,omitempty"`
	OverallConfidence float64                `json:"overall_confidence"`
}

// Get returns a feature's value and whether it is present.
func (f *ProductFeatures) Get(name string) (FeatureValue, bool) {
	if f == nil || f.Features == nil {
		return FeatureValue{}, false
	}
	v, ok := f.Features[name]
	return v, ok
}

// Set records a feature value, creating the map if necessary.
func (f *ProductFeatures) Set(name string, value any, confidence float64) {
	if f.Features == nil {
		f.Features = make(map[string]FeatureValue)
	}
	f.Features[name] = FeatureValue{Value: value, Confidence: confidence}
}

// Empty reports whether no feature was resolved from any source.
func (f *ProductFeatures) Empty() bool {
	return f == nil || len(f.Features) == 0
}

// Product is an immutable snapshot of a marketplace listing at fetch time.
type Product struct {
	ASIN         string `json:"asin"`
	Title        string `json:"title"`
	ImageURL     string `json:"image_url,omitempty"`
	Brand        string `json:"brand,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`

	PriceRupees     *int `json:"price_rupees,omitempty"`
	ListPriceRupees *int `json:"list_price_rupees,omitempty"`

	RatingCount   int     `json:"rating_count"`
	AverageRating float64 `json:"average_rating"`

	FeaturesList      []string          `json:"features_list,omitempty"`
	TechnicalDetails  map[string]string `json:"technical_details,omitempty"`

	// Analyzed is the lazily-computed, cacheable ProductFeatures. Nil until
	// ProductAnalyzer.Analyze has run.
	Analyzed *ProductFeatures `json:"analyzed,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// DiscountPercent derives the discount percent from list and current price.
// Returns (0, false) when either price is unavailable.
func (p *Product) DiscountPercent() (int, bool) {
	if p.PriceRupees == nil || p.ListPriceRupees == nil || *p.ListPriceRupees <= 0 {
		return 0, false
	}
	if *p.PriceRupees >= *p.ListPriceRupees {
		return 0, true
	}
	diff := *p.ListPriceRupees - *p.PriceRupees
	pct := diff * 100 / *p.ListPriceRupees
	return pct, true
}

// InStock reports whether the product currently carries a resolvable price.
// The core treats a null price as "unknown", not "out of stock"; callers
// that need stock semantics do so via the price-history comparison in the
// watch evaluator.
func (p *Product) InStock() bool {
	return p.PriceRupees != nil
}

// Score is the per-product scoring breakdown produced by the ScoringEngine.
type Score struct {
	Technical float64 `json:"technical"`
	Value     float64 `json:"value"`
	Budget     float64 `json:"budget"`
	Excellence float64 `json:"excellence"`
	Weights    MixWeights `json:"weights"`
	Final      float64    `json:"final"`

	MatchedFeatures []string `json:"matched_features"`
	Rationale       string   `json:"rationale"`
}

// MixWeights is the per-category component mix used to compute Score.Final.
// Fields sum to 1.0 (spec.md invariant 5).
type MixWeights struct {
	Technical  float64 `json:"technical"`
	Value      float64 `json:"value"`
	Budget     float64 `json:"budget"`
	Excellence float64 `json:"excellence"`
}

// Sum returns the sum of the four component weights.
func (w MixWeights) Sum() float64 {
	return w.Technical + w.Value + w.Budget + w.Excellence
}

// ComparisonRow is a single differentiating feature row in a ComparisonTable.
type ComparisonRow struct {
	FeatureName string  `json:"feature_name"`
	Values      []any   `json:"values"`
	UserTarget  any     `json:"user_target,omitempty"`
}

// ComparisonTable is the feature-row comparison built for duo/trio results.
type ComparisonTable struct {
	Rows []ComparisonRow `json:"rows"`
}

// SelectionResult is the pipeline's terminal, successful output.
type SelectionResult struct {
	Mode           Mode      `json:"mode"`
	Products       []Product `json:"products"`
	Scores         []Score   `json:"scores"`
	Comparison     *ComparisonTable `json:"comparison,omitempty"`
	ModelUsed      ModelUsed `json:"model_used"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	ProcessingMS   int64     `json:"processing_ms"`

	// Provenance, per spec.md §4.6 step 12.
	EnhancementApplied []string `json:"enhancement_applied,omitempty"`
	EnrichmentPerformed bool    `json:"enrichment_performed"`
	PriceRangeWorkaround bool   `json:"price_range_workaround"`
	PartialResult       bool    `json:"partial_result"`
}

// Watch is a persisted, user-owned saved search with alert criteria. The
// core treats it as read-only except for LastEvalAt, State and
// FailureCount, which the WatchEvaluator updates through WatchRepo.
type Watch struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Keywords           string     `json:"keywords"`
	Brand              *string    `json:"brand,omitempty"`
	MaxPriceRupees     *int       `json:"max_price_rupees,omitempty"`
	MinDiscountPercent *int       `json:"min_discount_percent,omitempty"`
	SelectedASIN       *string    `json:"selected_asin,omitempty"`
	State              WatchState `json:"state"`
	FailureCount       int        `json:"failure_count"`
	CreatedAt          time.Time  `json:"created_at"`
	LastEvalAt         time.Time  `json:"last_eval_at"`
}

// PricePoint is a single observed price for an ASIN.
type PricePoint struct {
	ASIN            string    `json:"asin"`
	PriceRupees     int       `json:"price_rupees"`
	ListPriceRupees *int      `json:"list_price_rupees,omitempty"`
	InStock         bool      `json:"in_stock"`
	ObservedAt      time.Time `json:"observed_at"`
}

// Alert is a triggered watch notification event.
type Alert struct {
	WatchID         string    `json:"watch_id"`
	ASIN            string    `json:"asin"`
	Kind            AlertKind `json:"kind"`
	PreviousPrice   int       `json:"previous_price"`
	CurrentPrice    int       `json:"current_price"`
	DiscountPercent int       `json:"discount_percent"`
	QualityScore    int       `json:"quality_score"`
	EmittedAt       time.Time `json:"emitted_at"`
}
