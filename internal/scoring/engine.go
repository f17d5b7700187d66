// Package scoring implements the hybrid ScoringEngine: a weighted
// combination of technical feature match, value-for-money, budget fit,
// and an excellence bonus, category-mixed per spec.md §4.3.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/subszero0/mandimonitor/internal/vocab"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// numeric features and their tolerance fraction (spec.md §4.3: "10-15%
// tolerance per feature").
var numericTolerance = map[string]float64{
	"refresh_rate": 0.15,
	"size":         0.10,
}

// categoricalFeatures lists features compared by exact/synonym/mismatch
// rather than numeric distance.
var categoricalFeatures = map[string]bool{
	"resolution":    true,
	"curvature":     true,
	"panel_type":    true,
	"usage_context": true,
	"brand":         true,
	"category":      true,
}

// expectedMaxValueRatio normalizes the raw value-for-money ratio into
// [0,1] (spec.md §4.3).
const expectedMaxValueRatio = 0.8

// excellenceCap bounds the additive excellence bonus.
const excellenceCap = 0.25

// Engine computes Score for a (ExtractedFeatures, ProductFeatures) pair.
type Engine struct {
	enableExcellenceBonus bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithExcellenceBonus toggles the excellence bonus component
// (config key scoring.enable_excellence_bonus).
func WithExcellenceBonus(enabled bool) Option {
	return func(e *Engine) { e.enableExcellenceBonus = enabled }
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{enableExcellenceBonus: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the breakdown for one candidate product. budgetRupees is
// nil when the user supplied no budget filter.
func (e *Engine) Score(user domain.ExtractedFeatures, product domain.ProductFeatures, priceRupees, budgetRupees *int) domain.Score {
	cat := vocab.Lookup(user.Category)
	technical, matched, rationale := e.technicalComponent(user, product, cat)
	value := e.valueComponent(technical, priceRupees)
	budget := e.budgetComponent(priceRupees, budgetRupees)
	excellence := e.excellenceComponent(product)

	mix := MixFor(user.Category, usageContextOf(user))
	final := technical*mix.Technical + value*mix.Value + budget*mix.Budget + excellence*mix.Excellence
	final = clamp01(final)

	return domain.Score{
		Technical: technical,
		Value:     value,
		Budget:    budget,
		Excellence: excellence,
		Weights: domain.MixWeights{
			Technical: mix.Technical, Value: mix.Value, Budget: mix.Budget, Excellence: mix.Excellence,
		},
		Final:           final,
		MatchedFeatures: matched,
		Rationale:       rationale,
	}
}

func usageContextOf(user domain.ExtractedFeatures) string {
	if v, ok := user.Get("usage_context"); ok {
		if s, ok := v.Value.(string); ok {
			return s
		}
	}
	return ""
}

type featureMatch struct {
	name      string
	score     float64
	indicator string
}

// technicalComponent implements the weighted feature-match formula of
// spec.md §4.3.
func (e *Engine) technicalComponent(
	user domain.ExtractedFeatures,
	product domain.ProductFeatures,
	cat *vocab.Category,
) (float64, []string, string) {
	var numerator, denominator float64
	var matches []featureMatch

	for name, uv := range user.Features {
		weight := cat.Weights[name]
		if weight == 0 {
			weight = 1.0
		}
		pv, ok := product.Get(name)
		if !ok {
			denominator += weight // missing product feature: full weight to denominator, 0 to numerator
			continue
		}
		score, indicator := featureScore(name, uv.Value, pv.Value)
		numerator += weight * score
		denominator += weight
		matches = append(matches, featureMatch{name: name, score: score, indicator: indicator})
	}

	var technical float64
	if denominator > 0 {
		technical = numerator / denominator
	}

	matched := make([]string, 0, len(matches))
	sort.Slice(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	rationaleParts := make([]string, 0, 6)
	for _, m := range matches {
		if m.score > 0.7 {
			matched = append(matched, m.name)
		}
		if len(rationaleParts) < 6 && m.score > 0 {
			rationaleParts = append(rationaleParts, fmt.Sprintf("%s:%s", m.name, m.indicator))
		}
	}
	return clamp01(technical), matched, strings.Join(rationaleParts, ", ")
}

// featureScore dispatches to the categorical or numeric comparison and
// returns (score, rationale indicator).
func featureScore(feature string, userVal, productVal any) (float64, string) {
	if _, numeric := numericTolerance[feature]; numeric {
		return numericFeatureScore(feature, userVal, productVal)
	}
	if categoricalFeatures[feature] {
		return categoricalFeatureScore(userVal, productVal)
	}
	// generic features (e.g. brand-adjacent extras) fall back to exact match.
	return categoricalFeatureScore(userVal, productVal)
}

func categoricalFeatureScore(userVal, productVal any) (float64, string) {
	if fmt.Sprint(userVal) == fmt.Sprint(productVal) {
		return 1.0, "exact"
	}
	return 0.0, "mismatch"
}

// numericFeatureScore implements the tolerance-band interpolation, plus
// the refresh-rate-specific "upgrade relation" (spec.md's narrowed open
// question): a product strictly better than what the user asked for still
// counts as a near-match.
func numericFeatureScore(feature string, userVal, productVal any) (float64, string) {
	u, uok := toFloat(userVal)
	p, pok := toFloat(productVal)
	if !uok || !pok || u == 0 {
		return 0.0, "mismatch"
	}

	if feature == "refresh_rate" && p >= u {
		if p == u {
			return 1.0, "exact"
		}
		return 0.95, "upgrade"
	}

	tolerance := numericTolerance[feature]
	dist := math.Abs(p-u) / u
	switch {
	case dist <= tolerance:
		return lerp(dist, 0, tolerance, 1.0, 0.85), "tolerance"
	case dist <= 2*tolerance:
		return lerp(dist, tolerance, 2*tolerance, 0.85, 0.0), "tolerance"
	default:
		return 0.0, "mismatch"
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// valueComponent computes performance-per-rupee, normalized to [0,1].
func (e *Engine) valueComponent(technical float64, priceRupees *int) float64 {
	if priceRupees == nil || *priceRupees <= 0 {
		return 0.5 // neutral, per spec.md §4.3
	}
	ratio := technical / (float64(*priceRupees) / 1000.0)
	return clamp01(ratio / expectedMaxValueRatio)
}

// budgetComponent implements the piecewise ratio=price/budget function.
func (e *Engine) budgetComponent(priceRupees, budgetRupees *int) float64 {
	if budgetRupees == nil || *budgetRupees <= 0 || priceRupees == nil {
		return 0.70 // neutral-positive, per spec.md §4.3
	}
	ratio := float64(*priceRupees) / float64(*budgetRupees)
	switch {
	case ratio <= 0.6:
		return 1.00
	case ratio <= 0.8:
		return 0.90
	case ratio <= 0.9:
		return 0.80
	case ratio <= 1.0:
		return 0.70
	case ratio <= 1.2:
		return 0.50
	case ratio <= 1.5:
		return 0.30
	default:
		return 0.20
	}
}

// excellenceComponent rewards superior specs, capped additively at 0.25.
func (e *Engine) excellenceComponent(product domain.ProductFeatures) float64 {
	if !e.enableExcellenceBonus {
		return 0.0
	}
	var bonus float64

	if rr, ok := product.Get("refresh_rate"); ok {
		if v, ok := toFloat(rr.Value); ok {
			switch {
			case v >= 240:
				bonus += 0.15
			case v >= 165:
				bonus += 0.10
			case v >= 144:
				bonus += 0.05
			}
		}
	}

	if res, ok := product.Get("resolution"); ok {
		switch res.Value {
		case "4k", "8k":
			bonus += 0.10
		case "1440p":
			bonus += 0.05
		}
	}

	if sz, ok := product.Get("size"); ok {
		if v, ok := toFloat(sz.Value); ok && v >= 27 && v <= 35 {
			bonus += 0.05
		}
	}

	if bonus > excellenceCap {
		bonus = excellenceCap
	}
	return bonus
}
