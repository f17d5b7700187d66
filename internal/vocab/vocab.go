// Package vocab holds the static category vocabularies consulted by the
// feature extractor and the product analyzer: per-category regex patterns,
// normalizers, and the marketing-term deny-list.
package vocab

import "regexp"

// Normalizer turns a raw regex match into a canonical feature value.
type Normalizer func(raw string) (any, bool)

// Pattern pairs a compiled regex with the normalizer that turns a match
// into a feature value.
type Pattern struct {
	Feature    string
	Regex      *regexp.Regexp
	Normalize  Normalizer
	Weight     float64 // unset by the built-in vocabularies; the ScoringEngine reads Category.Weights
}

// Category is a closed vocabulary for one product category: the patterns
// used to pull features out of free text, and the weight table the
// ScoringEngine's technical component consults.
type Category struct {
	Name     string
	Patterns []Pattern
	Weights  map[string]float64
}

var mustCompile = regexp.MustCompile

// marketingDenylist lists terms that read as technical but carry no
// verifiable spec; FeatureExtractor never turns these into features
// (spec.md §4.1). extract.WithMarketingDenylist replaces it per Extractor.
var marketingDenylist = []string{
	"cinematic", "eye-care", "eye care", "stunning", "immersive",
	"breathtaking", "ultra-smooth", "buttery smooth", "next-gen",
	"premium quality", "best in class", "crystal clear", "vivid",
	"lifelike", "jaw-dropping",
}

// MarketingDenylist returns the deny-list terms in lower case.
func MarketingDenylist() []string {
	out := make([]string, len(marketingDenylist))
	copy(out, marketingDenylist)
	return out
}

// transliterationNoise are mixed-language filler tokens (Hindi/English
// transliteration) stripped before technical-term counting, per spec.md
// §4.1. They never affect numeric features.
var transliterationNoise = []string{
	"ka", "ki", "ke", "wala", "wali", "chahiye", "please", "bhai", "hai",
}

// TransliterationNoise returns the filler-token list.
func TransliterationNoise() []string {
	out := make([]string, len(transliterationNoise))
	copy(out, transliterationNoise)
	return out
}

// GamingMonitor is the gaming_monitor category vocabulary: the only fully
// populated category in this build (spec.md's illustrative weight table).
// Other categories fall back to the "general" table.
var GamingMonitor = Category{
	Name: "gaming_monitor",
	Weights: map[string]float64{
		"usage_context": 2.5,
		"refresh_rate":  2.0,
		"resolution":    1.8,
		"size":          1.5,
		"curvature":     1.2,
		"panel_type":    1.0,
		"brand":         0.8,
		"price":         0.5,
		"category":      0.3,
	},
	Patterns: []Pattern{
		{
			Feature: "refresh_rate",
			Regex:   mustCompile(`(?i)(\d{2,3})\s*(hz|fps|hertz)\b`),
			Normalize: func(raw string) (any, bool) {
				return raw, true // resolved numerically by NormalizeRefreshRate
			},
		},
		{
			Feature: "size",
			Regex:   mustCompile(`(?i)(\d{1,2}(?:\.\d)?)\s*(\"|in\b|inch(?:es)?\b|cm\b)`),
			Normalize: func(raw string) (any, bool) {
				return raw, true // resolved numerically by NormalizeSize
			},
		},
		{
			Feature: "resolution",
			Regex: mustCompile(
				`(?i)\b(1080p|full\s*hd|fhd|1440p|2k|qhd|wqhd|4k|uhd|ultra\s*hd|8k|ultrawide|uw)\b`,
			),
			Normalize: func(raw string) (any, bool) {
				return NormalizeResolution(raw)
			},
		},
		{
			Feature:   "curvature",
			Regex:     mustCompile(`(?i)\b(curved|flat|\d{3,4}r)\b`),
			Normalize: func(raw string) (any, bool) { return NormalizeCurvature(raw) },
		},
		{
			Feature:   "panel_type",
			Regex:     mustCompile(`(?i)\b(ips|va|tn|oled|qd-?oled)\b`),
			Normalize: func(raw string) (any, bool) { return NormalizePanelType(raw) },
		},
		{
			Feature: "usage_context",
			Regex:   mustCompile(`(?i)\b(gaming|esports|e-sports|professional|editing|budget|cheap|affordable)\b`),
			Normalize: func(raw string) (any, bool) {
				return NormalizeUsageContext(raw)
			},
		},
	},
}

// General is the fallback vocabulary used when no category-specific table
// matches (spec.md §4.6 step 8: "fall back to general").
var General = Category{
	Name:    "general",
	Weights: map[string]float64{"brand": 1.0, "price": 1.0},
}

// Categories indexes every known category vocabulary by name.
var Categories = map[string]*Category{
	GamingMonitor.Name: &GamingMonitor,
	General.Name:        &General,
}

// Lookup returns the vocabulary for name, or General if unknown.
func Lookup(name string) *Category {
	if c, ok := Categories[name]; ok {
		return c
	}
	return &General
}

// pricePattern matches ₹-prefixed integers and simple range constructs; it
// is always-on regardless of category (spec.md §4.1).
var pricePattern = mustCompile(`₹\s*([\d,]+)|(?i)\b(?:under|below|upto|up to)\s*(?:rs\.?|inr|₹)?\s*([\d,]+)`)

// PricePattern exposes the always-on price pattern.
func PricePattern() *regexp.Regexp { return pricePattern }

// brandTokenPattern recognizes a fixed list of known brand names,
// case-insensitively.
var brandTokenPattern = mustCompile(`(?i)\b(samsung|lg|dell|asus|acer|benq|msi|gigabyte|viewsonic|hp|lenovo|zebronics|aoc|philips|sony|xiaomi|mi|redmi|cooler\s*master)\b`)

// BrandTokenPattern exposes the always-on brand token pattern.
func BrandTokenPattern() *regexp.Regexp { return brandTokenPattern }

// modelNumberNoise matches ornamental model-number suffixes stripped during
// title parsing (spec.md §4.2): all-caps alnum codes, "(2023 model)"
// parentheticals, warranty clauses.
var modelNumberNoise = mustCompile(`\b[A-Z]{2,}\d{3,}[A-Z]*\b|(?i:\(\s*\d{4}\s*model\s*\)|\b\d+\s*(?:yr|year)s?\s*warranty\b)`)

// ModelNumberNoise exposes the title-parsing noise filter.
func ModelNumberNoise() *regexp.Regexp { return modelNumberNoise }
