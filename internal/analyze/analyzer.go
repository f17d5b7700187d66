// Package analyze normalizes a marketplace Product into comparable
// ProductFeatures by resolving each vocabulary feature against three
// sources in precedence order: technical_details > features_list > title
// (spec.md §4.2).
package analyze

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/subszero0/mandimonitor/internal/repo"
	"github.com/subszero0/mandimonitor/internal/vocab"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// source-weighted confidence, per spec.md §3/§4.2.
const (
	confidenceTechnicalDetails = 0.95
	confidenceFeaturesList     = 0.85
	confidenceTitle            = 0.60
)

// featureConfidenceDelta are the per-feature confidence adjustments applied
// on top of the source weight.
var featureConfidenceDelta = map[string]float64{
	"brand":        0.08,
	"refresh_rate": 0.05,
	"panel_type":   -0.05,
}

// validationRange bounds a numeric feature; out-of-range values are
// dropped, not clamped (spec.md §4.2).
type validationRange struct{ min, max float64 }

var validationRanges = map[string]validationRange{
	"size":         {10, 65},
	"refresh_rate": {30, 480},
}

// Analyzer resolves Product fields into ProductFeatures.
type Analyzer struct {
	log   *slog.Logger
	cache *repo.AnalyzerCache
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

// WithCache enables the ASIN + content-hash result cache (spec.md §4.2,
// §5: "two concurrent requests for the same ASIN cause only one
// underlying computation").
func WithCache(c *repo.AnalyzerCache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// New constructs an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze resolves product features for the given category, single-flighted
// and cached by ASIN + content-hash when WithCache was supplied: concurrent
// Analyze calls for the same unchanged product compute the result once.
func (a *Analyzer) Analyze(p *domain.Product, category string) domain.ProductFeatures {
	if a.cache == nil || p.ASIN == "" {
		return a.analyze(p, category)
	}

	v, err := a.cache.GetOrCompute(p.ASIN, contentHash(p, category), func() (any, error) {
		return a.analyze(p, category), nil
	})
	if err != nil {
		return a.analyze(p, category)
	}
	out, ok := v.(domain.ProductFeatures)
	if !ok {
		return a.analyze(p, category)
	}
	return out
}

// contentHash fingerprints every field Analyze reads, so a product whose
// title/technical_details/features_list changed never reuses a stale cache
// entry (spec.md §4.2: "cacheable by ASIN + content-hash").
func contentHash(p *domain.Product, category string) string {
	h := sha256.New()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(p.Title))
	h.Write([]byte{0})

	keys := make([]string, 0, len(p.TechnicalDetails))
	for k := range p.TechnicalDetails {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(p.TechnicalDetails[k]))
		h.Write([]byte{';'})
	}
	h.Write([]byte{0})

	for _, f := range p.FeaturesList {
		h.Write([]byte(f))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// analyze is the uncached resolution Analyze wraps with the cache lookup.
func (a *Analyzer) analyze(p *domain.Product, category string) domain.ProductFeatures {
	cat := vocab.Lookup(category)
	out := domain.ProductFeatures{
		Features: make(map[string]domain.FeatureValue),
		Category: cat.Name,
	}

	title := stripTitleNoise(p.Title)

	for _, pat := range cat.Patterns {
		value, conf, ok := resolveFromSources(pat, p, title)
		if !ok {
			continue
		}
		conf += featureConfidenceDelta[pat.Feature]
		if conf > 1.0 {
			conf = 1.0
		}
		if conf < 0 {
			conf = 0
		}
		if !inRange(pat.Feature, value) {
			continue // out-of-range values are dropped, not clamped
		}
		out.Set(pat.Feature, value, conf)
	}

	if out.Empty() {
		out.OverallConfidence = 0
		return out
	}

	out.OverallConfidence = weightedMeanConfidence(out, cat) + structureBonus(p)
	if out.OverallConfidence > 1.0 {
		out.OverallConfidence = 1.0
	}
	return out
}

// resolveFromSources tries technical_details, then features_list, then
// title, in that order; the first source that yields a match wins. Later
// sources never override an earlier hit (spec.md §4.2).
func resolveFromSources(pat vocab.Pattern, p *domain.Product, title string) (any, float64, bool) {
	if p.TechnicalDetails != nil {
		for _, v := range p.TechnicalDetails {
			if raw := pat.Regex.FindString(v); raw != "" {
				if val, ok := resolveFeatureValue(pat.Feature, raw); ok {
					return val, confidenceTechnicalDetails, true
				}
			}
		}
	}
	for _, line := range p.FeaturesList {
		if raw := pat.Regex.FindString(line); raw != "" {
			if val, ok := resolveFeatureValue(pat.Feature, raw); ok {
				return val, confidenceFeaturesList, true
			}
		}
	}
	if raw := pat.Regex.FindString(title); raw != "" {
		if val, ok := resolveFeatureValue(pat.Feature, raw); ok {
			return val, confidenceTitle, true
		}
	}
	return nil, 0, false
}

func resolveFeatureValue(feature, raw string) (any, bool) {
	switch feature {
	case "refresh_rate":
		return vocab.NormalizeRefreshRate(raw)
	case "size":
		return vocab.NormalizeSize(raw)
	case "resolution":
		return vocab.NormalizeResolution(raw)
	case "curvature":
		return vocab.NormalizeCurvature(raw)
	case "panel_type":
		return vocab.NormalizePanelType(raw)
	case "usage_context":
		return vocab.NormalizeUsageContext(raw)
	default:
		return raw, raw != ""
	}
}

func inRange(feature string, value any) bool {
	rng, ok := validationRanges[feature]
	if !ok {
		return true
	}
	var v float64
	switch n := value.(type) {
	case int:
		v = float64(n)
	case float64:
		v = n
	default:
		return true
	}
	return v >= rng.min && v <= rng.max
}

// titleNoisePattern additionally strips "(new)" and "(latest)" markers;
// model numbers, "(2023 model)" suffixes and warranty clauses are already
// removed by vocab.ModelNumberNoise.
var titleNoisePattern = regexp.MustCompile(`(?i)\(\s*new\s*\)|\(\s*latest\s*\)`)

func stripTitleNoise(title string) string {
	title = vocab.ModelNumberNoise().ReplaceAllString(title, " ")
	title = titleNoisePattern.ReplaceAllString(title, " ")
	return strings.Join(strings.Fields(title), " ")
}

// weightedMeanConfidence averages per-feature confidence weighted by the
// category's scoring weight for that feature.
func weightedMeanConfidence(f domain.ProductFeatures, cat *vocab.Category) float64 {
	var sumW, sumWC float64
	for name, fv := range f.Features {
		w := cat.Weights[name]
		if w == 0 {
			w = 1.0
		}
		sumW += w
		sumWC += w * fv.Confidence
	}
	if sumW == 0 {
		return 0
	}
	return sumWC / sumW
}

// structureBonus rewards products whose listing carries substantial
// structured data: +0.05 for ≥3 technical-details fields, +0.05 for a
// features-list of ≥5 items (spec.md §4.2), added on top of the weighted
// mean (the sum is capped at 1.0 by the caller).
func structureBonus(p *domain.Product) float64 {
	var bonus float64
	if len(p.TechnicalDetails) >= 3 {
		bonus += 0.05
	}
	if len(p.FeaturesList) >= 5 {
		bonus += 0.05
	}
	return bonus
}
