package vocab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/subszero0/mandimonitor/internal/vocab"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	cat := vocab.Lookup("gaming_monitor")
	assert.Equal(t, "gaming_monitor", cat.Name)

	cat = vocab.Lookup("unknown_category")
	assert.Equal(t, "general", cat.Name)

	cat = vocab.Lookup("")
	assert.Equal(t, "general", cat.Name)
}

func TestMarketingDenylist_ReturnsCopy(t *testing.T) {
	t.Parallel()

	list := vocab.MarketingDenylist()
	require := assert.New(t)
	require.NotEmpty(list)

	list[0] = "mutated"
	assert.NotEqual(t, "mutated", vocab.MarketingDenylist()[0])
}

func TestBrandTokenPattern(t *testing.T) {
	t.Parallel()

	assert.True(t, vocab.BrandTokenPattern().MatchString("Samsung 27 inch monitor"))
	assert.False(t, vocab.BrandTokenPattern().MatchString("no brand name here"))
}

func TestPricePattern(t *testing.T) {
	t.Parallel()

	assert.True(t, vocab.PricePattern().MatchString("under 20000"))
	assert.True(t, vocab.PricePattern().MatchString("₹15,000"))
	assert.False(t, vocab.PricePattern().MatchString("no price mentioned"))
}
