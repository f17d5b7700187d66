package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMixFor_GamingByCategoryOrUsageContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, gamingMix, MixFor("gaming_monitor", ""))
	assert.Equal(t, gamingMix, MixFor("general", "gaming"))
	assert.Equal(t, defaultMix, MixFor("general", "professional"))
}

func TestMixWeights_SumToOne(t *testing.T) {
	t.Parallel()

	for _, mix := range []MixWeights{gamingMix, defaultMix} {
		sum := mix.Technical + mix.Value + mix.Budget + mix.Excellence
		assert.InDelta(t, 1.0, sum, 0.0001)
	}
}

func TestLerp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, lerp(0, 0, 0.15, 1.0, 0.85))
	assert.Equal(t, 0.85, lerp(0.15, 0, 0.15, 1.0, 0.85))
	assert.InDelta(t, 0.925, lerp(0.075, 0, 0.15, 1.0, 0.85), 0.001)
	assert.Equal(t, 1.0, lerp(5, 3, 3, 1.0, 0.85)) // maxVal == minVal guard
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
	assert.Equal(t, 0.5, clamp01(0.5))
}
