package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

func intp(v int) *int { return &v }

func TestMode_Slice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, domain.ModeSingle.Slice())
	assert.Equal(t, 2, domain.ModeDuo.Slice())
	assert.Equal(t, 3, domain.ModeTrio.Slice())
}

func TestExtractedFeatures_SetAndGet(t *testing.T) {
	t.Parallel()

	var f domain.ExtractedFeatures
	_, ok := f.Get("refresh_rate")
	assert.False(t, ok)

	f.Set("refresh_rate", 144, 0.9)
	v, ok := f.Get("refresh_rate")
	require.True(t, ok)
	assert.Equal(t, 144, v.Value)
	assert.Equal(t, 0.9, v.Confidence)
}

func TestProductFeatures_SetGetAndEmpty(t *testing.T) {
	t.Parallel()

	var f domain.ProductFeatures
	assert.True(t, f.Empty())

	f.Set("panel_type", "ips", 0.8)
	assert.False(t, f.Empty())

	v, ok := f.Get("panel_type")
	require.True(t, ok)
	assert.Equal(t, "ips", v.Value)
}

func TestProduct_DiscountPercent(t *testing.T) {
	t.Parallel()

	p := domain.Product{PriceRupees: intp(8000), ListPriceRupees: intp(10000)}
	pct, ok := p.DiscountPercent()
	require.True(t, ok)
	assert.Equal(t, 20, pct)

	noPrice := domain.Product{ListPriceRupees: intp(10000)}
	_, ok = noPrice.DiscountPercent()
	assert.False(t, ok)

	noList := domain.Product{PriceRupees: intp(8000)}
	_, ok = noList.DiscountPercent()
	assert.False(t, ok)

	priceAboveList := domain.Product{PriceRupees: intp(12000), ListPriceRupees: intp(10000)}
	pct, ok = priceAboveList.DiscountPercent()
	require.True(t, ok)
	assert.Equal(t, 0, pct)
}

func TestProduct_InStock(t *testing.T) {
	t.Parallel()

	assert.True(t, (&domain.Product{PriceRupees: intp(1000)}).InStock())
	assert.False(t, (&domain.Product{}).InStock())
}

func TestMixWeights_Sum(t *testing.T) {
	t.Parallel()

	w := domain.MixWeights{Technical: 0.45, Value: 0.30, Budget: 0.20, Excellence: 0.05}
	assert.InDelta(t, 1.0, w.Sum(), 0.0001)
}
