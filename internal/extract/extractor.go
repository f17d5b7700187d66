// Package extract turns a free-text query into structured, confidence-
// scored features by layered pattern matching against category
// vocabularies (spec.md §4.1). Extraction is deterministic and never
// fails: a query with no recognizable features yields an empty result.
package extract

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/subszero0/mandimonitor/internal/vocab"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// Extractor pulls structured features out of a free-text query.
type Extractor struct {
	log             *slog.Logger
	marketingTerms  []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger for extraction diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.log = l }
}

// WithMarketingDenylist overrides the default marketing deny-list
// (config key feature.marketing_denylist).
func WithMarketingDenylist(terms []string) Option {
	return func(e *Extractor) { e.marketingTerms = terms }
}

// New constructs an Extractor. It holds no mutable state after
// construction and is safe for concurrent calls.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		log:            slog.Default(),
		marketingTerms: vocab.MarketingDenylist(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var priceRangePattern = regexp.MustCompile(
	`(?i)(?:between|from)\s*(?:rs\.?|inr|₹)?\s*([\d,]+)\s*(?:and|to|-)\s*(?:rs\.?|inr|₹)?\s*([\d,]+)`,
)

// Extract classifies and extracts features from a free-text query. It
// never returns an error; an unrecognizable query yields an empty
// ExtractedFeatures.
func (e *Extractor) Extract(query string, categoryHint string) domain.ExtractedFeatures {
	out := domain.ExtractedFeatures{Features: make(map[string]domain.FeatureValue)}

	if strings.TrimSpace(query) == "" {
		return out
	}

	if vocab.IsMarketingOnly(query) {
		e.log.Debug("extract: marketing-only query", "query", query)
		return out
	}

	cleaned := vocab.StripTransliterationNoise(query)

	cat := vocab.Lookup(categoryHint)
	if categoryHint == "" {
		if guessed := guessCategory(cleaned); guessed != "" {
			cat = vocab.Lookup(guessed)
		}
	}
	out.Category = cat.Name

	technicalTermCount := 0
	for _, p := range cat.Patterns {
		raw := p.Regex.FindString(cleaned)
		if raw == "" {
			continue
		}
		value, normalized := resolveFeature(p.Feature, raw)
		if !normalized {
			continue
		}
		out.Set(p.Feature, value, 0.9)
		technicalTermCount++
	}

	extractAlwaysOn(&out, cleaned)

	hasNumeric := hasNumericFeature(out)
	out.TechnicalQuery = hasNumeric ||
		technicalTermCount >= 2 ||
		(out.Category != "" && out.Category != vocab.General.Name && technicalTermCount >= 1)

	return out
}

// resolveFeature applies the feature-specific normalizer on top of the
// vocabulary-level pattern match (vocab.Pattern.Normalize is a thin
// pass-through for numeric features so the real unit math lives here,
// matching spec.md's normalization rules one-to-one).
func resolveFeature(feature, raw string) (any, bool) {
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

func hasNumericFeature(f domain.ExtractedFeatures) bool {
	for name, v := range f.Features {
		switch name {
		case "refresh_rate", "size":
			_ = v
			return true
		}
	}
	return false
}

// extractAlwaysOn runs the category-independent price/brand patterns that
// apply regardless of recognized category (spec.md §4.1).
func extractAlwaysOn(out *domain.ExtractedFeatures, query string) {
	if m := priceRangePattern.FindStringSubmatch(query); m != nil {
		if lo, ok := parseRupees(m[1]); ok {
			out.Set("min_price", lo, 0.9)
		}
		if hi, ok := parseRupees(m[2]); ok {
			out.Set("max_price", hi, 0.9)
		}
	} else if m := vocab.PricePattern().FindStringSubmatch(query); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if v, ok := parseRupees(raw); ok {
			out.Set("max_price", v, 0.85)
		}
	}

	if m := vocab.BrandTokenPattern().FindStringSubmatch(query); m != nil {
		out.Set("brand", strings.ToLower(m[1]), 0.8)
	}
}

func parseRupees(raw string) (int, bool) {
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GuessCategory applies the same minimal category sniff Extract uses
// internally, exported so callers that need a category for text other
// than a query (e.g. a product title) can share the logic.
func GuessCategory(text string) string {
	return guessCategory(text)
}

// guessCategory applies a minimal category sniff: the only populated
// vocabulary in this build is gaming_monitor, so any query mentioning
// "monitor" or "display" routes there; everything else falls through to
// General in Lookup.
func guessCategory(query string) string {
	lower := strings.ToLower(query)
	if strings.Contains(lower, "monitor") || strings.Contains(lower, "display") ||
		strings.Contains(lower, "screen") {
		return vocab.GamingMonitor.Name
	}
	return ""
}
