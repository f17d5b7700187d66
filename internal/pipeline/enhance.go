package pipeline

import (
	"strings"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// enhancementRule adds its Terms to the search keywords once the budget
// reaches Threshold rupees (spec.md §4.6 step 2).
type enhancementRule struct {
	threshold int
	terms     []string
}

var budgetEnhancements = []enhancementRule{
	{threshold: 100000, terms: []string{"professional", "studio", "flagship"}},
	{threshold: 50000, terms: []string{"business", "workstation"}},
	{threshold: 25000, terms: []string{"performance", "quality"}},
}

// categoryEnhancements adds category-specific terms once the budget clears
// the given threshold, independent of the budget tiers above.
var categoryEnhancements = map[string]enhancementRule{
	"gaming_monitor": {threshold: 30000, terms: []string{"4K", "UHD", "HDR", "IPS", "144Hz"}},
}

const noEnhancementBelow = 10000

// enhanceKeywords derives upstream search keywords from the raw query text,
// the budget (max_price if set, else min_price), and the guessed category.
// It returns the enhanced keyword string and the list of terms actually
// added, for provenance (spec.md §4.6 steps 2 and 12).
func enhanceKeywords(queryText string, filters domain.Filters, category string) (string, []string) {
	budget := effectiveBudget(filters)
	if budget < noEnhancementBelow {
		return queryText, nil
	}

	present := tokenSet(queryText)
	if filters.Brand != nil {
		present[normalizeToken(*filters.Brand)] = true
	}

	var added []string
	addTerms := func(terms []string) {
		for _, t := range terms {
			key := normalizeToken(t)
			if present[key] {
				continue
			}
			present[key] = true
			added = append(added, t)
		}
	}

	for _, rule := range budgetEnhancements {
		if budget >= rule.threshold {
			addTerms(rule.terms)
			break // tiers are mutually exclusive; highest threshold met wins
		}
	}

	if rule, ok := categoryEnhancements[category]; ok && budget >= rule.threshold {
		addTerms(rule.terms)
	}

	if len(added) == 0 {
		return queryText, nil
	}
	return queryText + " " + strings.Join(added, " "), added
}

func effectiveBudget(filters domain.Filters) int {
	if filters.MaxPrice != nil {
		return *filters.MaxPrice
	}
	if filters.MinPrice != nil {
		return *filters.MinPrice
	}
	return 0
}

func tokenSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(text) {
		out[normalizeToken(tok)] = true
	}
	return out
}

func normalizeToken(tok string) string {
	return strings.ToLower(strings.Trim(tok, ".,!?\"'"))
}

const (
	baseSearchPages    = 3
	maxSearchPages     = 8
	premiumKeywordMult = 1.15
)

// searchDepth computes the pagination page count from budget, the presence
// of premium keywords, the search index, and the requested item count
// (spec.md §4.6 step 3: "Premium multipliers compound ... capped").
func searchDepth(filters domain.Filters, enhancementAdded []string, searchIndex string, requestedCount int) int {
	pages := float64(baseSearchPages)

	budget := effectiveBudget(filters)
	switch {
	case budget >= 100000:
		pages *= 1.6
	case budget >= 50000:
		pages *= 1.35
	case budget >= 25000:
		pages *= 1.15
	}

	if len(enhancementAdded) > 0 {
		pages *= premiumKeywordMult
	}

	if searchIndex == "Electronics" {
		pages *= 1.1
	}

	if requestedCount > 10 {
		pages *= 1.2
	}

	depth := int(pages + 0.5) // round half up
	if depth < baseSearchPages {
		depth = baseSearchPages
	}
	if depth > maxSearchPages {
		depth = maxSearchPages
	}
	return depth
}
