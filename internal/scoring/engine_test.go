package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/subszero0/mandimonitor/internal/scoring"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

func intPtr(v int) *int { return &v }

func TestEngine_ExactRefreshRateMatch(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	user.Category = "gaming_monitor"
	user.Set("refresh_rate", 144, 0.9)

	var product domain.ProductFeatures
	product.Set("refresh_rate", 144, 0.9)

	e := scoring.New()
	score := e.Score(user, product, intPtr(20000), nil)

	assert.Equal(t, 1.0, score.Technical)
	assert.Contains(t, score.MatchedFeatures, "refresh_rate")
}

func TestEngine_RefreshRateUpgradeCountsAsNearMatch(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	user.Category = "gaming_monitor"
	user.Set("refresh_rate", 144, 0.9)

	var product domain.ProductFeatures
	product.Set("refresh_rate", 165, 0.9)

	e := scoring.New()
	score := e.Score(user, product, intPtr(20000), nil)

	assert.InDelta(t, 0.95, score.Technical, 0.001)
}

func TestEngine_MissingProductFeatureZeroesNumerator(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	user.Category = "gaming_monitor"
	user.Set("refresh_rate", 144, 0.9)
	user.Set("panel_type", "ips", 0.8)

	var product domain.ProductFeatures
	product.Set("refresh_rate", 144, 0.9)
	// panel_type absent entirely.

	e := scoring.New()
	score := e.Score(user, product, intPtr(20000), nil)

	assert.Less(t, score.Technical, 1.0)
}

func TestEngine_CategoricalMismatchScoresZero(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	user.Category = "gaming_monitor"
	user.Set("panel_type", "ips", 0.8)

	var product domain.ProductFeatures
	product.Set("panel_type", "va", 0.8)

	e := scoring.New()
	score := e.Score(user, product, intPtr(20000), nil)

	assert.Equal(t, 0.0, score.Technical)
}

func TestEngine_NoBudgetIsNeutralPositive(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	e := scoring.New()
	score := e.Score(user, domain.ProductFeatures{}, intPtr(20000), nil)

	assert.Equal(t, 0.70, score.Budget)
}

func TestEngine_BudgetRatioBands(t *testing.T) {
	t.Parallel()

	e := scoring.New()
	var user domain.ExtractedFeatures

	tests := []struct {
		price, budget int
		want          float64
	}{
		{5000, 10000, 1.00},
		{7500, 10000, 0.90},
		{8500, 10000, 0.80},
		{9500, 10000, 0.70},
		{11000, 10000, 0.50},
		{14000, 10000, 0.30},
		{20000, 10000, 0.20},
	}
	for _, tt := range tests {
		score := e.Score(user, domain.ProductFeatures{}, intPtr(tt.price), intPtr(tt.budget))
		assert.Equal(t, tt.want, score.Budget, "price=%d budget=%d", tt.price, tt.budget)
	}
}

func TestEngine_ExcellenceBonusCappedAndDisableable(t *testing.T) {
	t.Parallel()

	var product domain.ProductFeatures
	product.Set("refresh_rate", 240, 0.9)
	product.Set("resolution", "4k", 0.9)
	product.Set("size", 32, 0.9)

	var user domain.ExtractedFeatures

	e := scoring.New()
	score := e.Score(user, product, intPtr(20000), nil)
	assert.Equal(t, 0.25, score.Excellence) // 0.15+0.10+0.05 = 0.30, capped at 0.25

	disabled := scoring.New(scoring.WithExcellenceBonus(false))
	score = disabled.Score(user, product, intPtr(20000), nil)
	assert.Equal(t, 0.0, score.Excellence)
}

func TestEngine_GamingMixAppliedForGamingCategory(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	user.Category = "gaming_monitor"

	e := scoring.New()
	score := e.Score(user, domain.ProductFeatures{}, intPtr(20000), nil)

	assert.Equal(t, 0.45, score.Weights.Technical)
	assert.Equal(t, 0.30, score.Weights.Value)
}

func TestEngine_DefaultMixForOtherCategories(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	user.Category = "general"

	e := scoring.New()
	score := e.Score(user, domain.ProductFeatures{}, intPtr(20000), nil)

	assert.Equal(t, 0.35, score.Weights.Technical)
	assert.Equal(t, 0.40, score.Weights.Value)
}

func TestEngine_NoPriceIsNeutralValue(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	e := scoring.New()
	score := e.Score(user, domain.ProductFeatures{}, nil, nil)

	assert.Equal(t, 0.5, score.Value)
}

func TestEngine_FinalScoreWithinBounds(t *testing.T) {
	t.Parallel()

	var user domain.ExtractedFeatures
	user.Category = "gaming_monitor"
	user.Set("refresh_rate", 144, 0.9)
	user.Set("size", 27.0, 0.8)

	var product domain.ProductFeatures
	product.Set("refresh_rate", 165, 0.9)
	product.Set("size", 27.0, 0.8)

	e := scoring.New()
	score := e.Score(user, product, intPtr(22000), intPtr(25000))

	assert.GreaterOrEqual(t, score.Final, 0.0)
	assert.LessOrEqual(t, score.Final, 1.0)
}
