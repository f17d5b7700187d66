package paapi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subszero0/mandimonitor/internal/paapi"
)

func TestPaginator_Paginate_StripsMaxPriceWhenBothBoundsSupplied(t *testing.T) {
	t.Parallel()

	client := &fakeClient{searchResp: paapi.SearchResponse{
		Products: []paapi.Product{{ASIN: "B001"}},
		Meta:     paapi.RawMeta{HasMorePages: false},
	}}
	p := paapi.NewPaginator(client, paapi.NewRateLimiter(1000, 10), nil)

	result, err := p.Paginate(context.Background(), paapi.SearchRequest{
		Keywords: "monitor", MinPrice: intp(10000), MaxPrice: intp(20000),
	}, 3)
	require.NoError(t, err)
	assert.True(t, result.PriceRangeWorkaround)
	require.Len(t, client.searchReqs, 1)
	assert.Nil(t, client.searchReqs[0].MaxPrice)
}

func TestPaginator_Paginate_NoWorkaroundWhenOnlyOneBoundSupplied(t *testing.T) {
	t.Parallel()

	client := &fakeClient{searchResp: paapi.SearchResponse{
		Products: []paapi.Product{{ASIN: "B001"}},
	}}
	p := paapi.NewPaginator(client, paapi.NewRateLimiter(1000, 10), nil)

	result, err := p.Paginate(context.Background(), paapi.SearchRequest{Keywords: "monitor", MaxPrice: intp(20000)}, 3)
	require.NoError(t, err)
	assert.False(t, result.PriceRangeWorkaround)
	require.Len(t, client.searchReqs, 1)
	require.NotNil(t, client.searchReqs[0].MaxPrice)
}
