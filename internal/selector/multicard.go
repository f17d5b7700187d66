package selector

import (
	"fmt"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// MultiCardConfig holds the configurable thresholds of spec.md §4.5
// (config keys multicard.top_gap, multicard.single_override_score,
// multicard.single_override_gap).
type MultiCardConfig struct {
	TopGap              float64
	SingleOverrideScore float64
	SingleOverrideGap   float64
}

// DefaultMultiCardConfig mirrors spec.md's documented defaults.
func DefaultMultiCardConfig() MultiCardConfig {
	return MultiCardConfig{TopGap: 0.20, SingleOverrideScore: 0.95, SingleOverrideGap: 0.30}
}

// priceTier buckets a price against the user's budget into
// budget/mid/premium (spec.md §4.5).
type priceTier int

const (
	tierBudget priceTier = iota
	tierMid
	tierPremium
)

func tierOf(priceRupees int, budgetRupees int) priceTier {
	if budgetRupees <= 0 {
		return tierMid
	}
	switch {
	case float64(priceRupees) < 0.4*float64(budgetRupees):
		return tierBudget
	case float64(priceRupees) > 0.8*float64(budgetRupees):
		return tierPremium
	default:
		return tierMid
	}
}

// DecideMode chooses the presentation mode for a score-descending
// candidate list, per spec.md §4.5. Slice size follows from the mode
// (Mode.Slice()).
func DecideMode(candidates []Candidate, budgetRupees int, cfg MultiCardConfig) domain.Mode {
	if len(candidates) < 2 {
		return domain.ModeSingle
	}

	top := candidates[0].Score.Final
	second := candidates[1].Score.Final
	gap := top - second

	if top >= cfg.SingleOverrideScore && gap >= cfg.SingleOverrideGap {
		return domain.ModeSingle
	}

	multi := gap < cfg.TopGap || disjointStrongFeatures(candidates) ||
		spansPriceTiers(candidates, budgetRupees) || distinctFeatureValueCount(candidates) >= 3

	if !multi {
		return domain.ModeSingle
	}
	if len(candidates) >= 3 {
		return domain.ModeTrio
	}
	return domain.ModeDuo
}

// disjointStrongFeatures reports whether, among the top 3, at least two
// distinct candidates each "win" (matched, score > 0.7) a feature that no
// other top candidate also wins (spec.md §4.5: "disjoint strong feature
// sets").
func disjointStrongFeatures(candidates []Candidate) bool {
	n := top3Count(len(candidates))
	owner := make(map[string]int) // feature -> owner index, -1 once contested
	for i := 0; i < n; i++ {
		for _, f := range candidates[i].Score.MatchedFeatures {
			if seen, ok := owner[f]; ok {
				if seen != i {
					owner[f] = -1
				}
			} else {
				owner[f] = i
			}
		}
	}
	winners := make(map[int]bool)
	for _, idx := range owner {
		if idx >= 0 {
			winners[idx] = true
		}
	}
	return len(winners) >= 2
}

func spansPriceTiers(candidates []Candidate, budgetRupees int) bool {
	n := top3Count(len(candidates))
	tiers := make(map[priceTier]bool)
	for i := 0; i < n; i++ {
		if candidates[i].Product.PriceRupees == nil {
			continue
		}
		tiers[tierOf(*candidates[i].Product.PriceRupees, budgetRupees)] = true
	}
	return len(tiers) >= 2
}

// distinctFeatureValueCount sums, across every technical feature the top-3
// carry, the number of distinct values seen for features where at least
// two different values appear (spec.md §4.5: "≥3 distinct technical
// feature values differentiate them").
func distinctFeatureValueCount(candidates []Candidate) int {
	n := top3Count(len(candidates))
	distinct := make(map[string]map[string]bool)
	for i := 0; i < n; i++ {
		analyzed := candidates[i].Product.Analyzed
		if analyzed == nil {
			continue
		}
		for name, fv := range analyzed.Features {
			if distinct[name] == nil {
				distinct[name] = make(map[string]bool)
			}
			distinct[name][fmt.Sprint(fv.Value)] = true
		}
	}
	total := 0
	for _, vals := range distinct {
		if len(vals) >= 2 {
			total += len(vals)
		}
	}
	return total
}

func top3Count(n int) int {
	if n > 3 {
		return 3
	}
	return n
}

// BuildComparisonTable builds the comparison table from the top-N
// candidates, per spec.md §4.5: rows where values differ across the set,
// drawn only from the user-expressed features in userFeatureOrder (in that
// order), capped to 4 rows, each row carrying the user's target value if
// present. Features the user did not express get no row.
func BuildComparisonTable(candidates []Candidate, user domain.ExtractedFeatures, userFeatureOrder []string) domain.ComparisonTable {
	n := top3Count(len(candidates))
	if n < 2 {
		return domain.ComparisonTable{}
	}

	seen := make(map[string]bool)
	var rows []domain.ComparisonRow

	addRow := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		values := make([]any, n)
		distinctVals := make(map[string]bool)
		for i := 0; i < n; i++ {
			analyzed := candidates[i].Product.Analyzed
			if analyzed == nil {
				continue
			}
			if v, ok := analyzed.Get(name); ok {
				values[i] = v.Value
				distinctVals[fmt.Sprint(v.Value)] = true
			}
		}
		if len(distinctVals) < 2 {
			return
		}
		var target any
		if uv, ok := user.Get(name); ok {
			target = uv.Value
		}
		rows = append(rows, domain.ComparisonRow{FeatureName: name, Values: values, UserTarget: target})
	}

	for _, name := range userFeatureOrder {
		if len(rows) >= 4 {
			break
		}
		addRow(name)
	}

	return domain.ComparisonTable{Rows: rows}
}
