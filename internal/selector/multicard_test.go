package selector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/subszero0/mandimonitor/internal/selector"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

func priceCandidate(final float64, price int, matched []string, analyzed *domain.ProductFeatures) selector.Candidate {
	return selector.Candidate{
		Product: domain.Product{PriceRupees: &price, Analyzed: analyzed},
		Score:   domain.Score{Final: final, MatchedFeatures: matched},
	}
}

func TestDecideMode_FewerThanTwoCandidatesIsSingle(t *testing.T) {
	t.Parallel()

	cfg := selector.DefaultMultiCardConfig()
	assert.Equal(t, domain.ModeSingle, selector.DecideMode(nil, 20000, cfg))
	assert.Equal(t, domain.ModeSingle, selector.DecideMode([]selector.Candidate{priceCandidate(0.9, 10000, nil, nil)}, 20000, cfg))
}

func TestDecideMode_SingleOverrideWhenTopScoreDominatesByGap(t *testing.T) {
	t.Parallel()

	cfg := selector.DefaultMultiCardConfig()
	candidates := []selector.Candidate{
		priceCandidate(0.97, 10000, nil, nil),
		priceCandidate(0.60, 10000, nil, nil),
	}
	assert.Equal(t, domain.ModeSingle, selector.DecideMode(candidates, 20000, cfg))
}

func TestDecideMode_SmallGapTriggersMulti(t *testing.T) {
	t.Parallel()

	cfg := selector.DefaultMultiCardConfig()
	candidates := []selector.Candidate{
		priceCandidate(0.70, 10000, nil, nil),
		priceCandidate(0.65, 10000, nil, nil),
		priceCandidate(0.60, 10000, nil, nil),
	}
	assert.Equal(t, domain.ModeTrio, selector.DecideMode(candidates, 20000, cfg))
}

func TestDecideMode_LargeGapNoOtherDriverIsSingle(t *testing.T) {
	t.Parallel()

	cfg := selector.DefaultMultiCardConfig()
	candidates := []selector.Candidate{
		priceCandidate(0.85, 10000, nil, nil),
		priceCandidate(0.50, 10000, nil, nil),
	}
	assert.Equal(t, domain.ModeSingle, selector.DecideMode(candidates, 20000, cfg))
}

func TestDecideMode_DuoWhenOnlyTwoCandidatesQualifyForMulti(t *testing.T) {
	t.Parallel()

	cfg := selector.DefaultMultiCardConfig()
	candidates := []selector.Candidate{
		priceCandidate(0.70, 10000, nil, nil),
		priceCandidate(0.65, 10000, nil, nil),
	}
	assert.Equal(t, domain.ModeDuo, selector.DecideMode(candidates, 20000, cfg))
}

func TestDecideMode_PriceTiersSpanTriggersMulti(t *testing.T) {
	t.Parallel()

	cfg := selector.DefaultMultiCardConfig()
	candidates := []selector.Candidate{
		priceCandidate(0.85, 5000, nil, nil),  // budget tier: 0.4*20000=8000
		priceCandidate(0.50, 18000, nil, nil), // premium tier: 0.8*20000=16000
	}
	assert.Equal(t, domain.ModeDuo, selector.DecideMode(candidates, 20000, cfg))
}

func TestBuildComparisonTable_FewerThanTwoCandidatesIsEmpty(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	table := selector.BuildComparisonTable([]selector.Candidate{priceCandidate(0.9, 10000, nil, nil)}, user, []string{"refresh_rate"})
	assert.Empty(t, table.Rows)
}

func TestBuildComparisonTable_OnlyDifferingFeaturesIncluded(t *testing.T) {
	t.Parallel()

	var a, b domain.ProductFeatures
	a.Set("refresh_rate", 144, 0.9)
	b.Set("refresh_rate", 165, 0.9)
	a.Set("panel_type", "ips", 0.9)
	b.Set("panel_type", "ips", 0.9) // identical, should be excluded

	var user domain.ExtractedFeatures
	user.Set("refresh_rate", 144, 0.9)

	candidates := []selector.Candidate{
		priceCandidate(0.9, 10000, nil, &a),
		priceCandidate(0.6, 12000, nil, &b),
	}
	table := selector.BuildComparisonTable(candidates, user, []string{"refresh_rate", "panel_type"})

	assert := assert.New(t)
	assert.Len(table.Rows, 1)
	assert.Equal("refresh_rate", table.Rows[0].FeatureName)
	assert.Equal(144, table.Rows[0].UserTarget)
}

func TestBuildComparisonTable_CapsAtFourRows(t *testing.T) {
	t.Parallel()

	var a, b domain.ProductFeatures
	names := []string{"f1", "f2", "f3", "f4", "f5"}
	for i, name := range names {
		a.Set(name, i, 0.9)
		b.Set(name, i+100, 0.9)
	}

	var user domain.ExtractedFeatures
	candidates := []selector.Candidate{
		priceCandidate(0.9, 10000, nil, &a),
		priceCandidate(0.6, 12000, nil, &b),
	}
	table := selector.BuildComparisonTable(candidates, user, names)
	assert.Len(t, table.Rows, 4)
}
