package paapi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subszero0/mandimonitor/internal/paapi"
)

type fakeClient struct {
	searchReqs []paapi.SearchRequest
	searchResp paapi.SearchResponse
	searchErr  error
	items      map[string]paapi.Product
	itemsErr   error
}

func (f *fakeClient) SearchItems(_ context.Context, req paapi.SearchRequest) (paapi.SearchResponse, error) {
	f.searchReqs = append(f.searchReqs, req)
	if f.searchErr != nil {
		return paapi.SearchResponse{}, f.searchErr
	}
	return f.searchResp, nil
}

func (f *fakeClient) GetItems(_ context.Context, asins []string, _ paapi.ResourceSet) (map[string]paapi.Product, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.items, nil
}

func intp(v int) *int { return &v }

func TestAdapter_Search_StripsMaxPriceWhenBothBoundsSupplied(t *testing.T) {
	t.Parallel()

	client := &fakeClient{searchResp: paapi.SearchResponse{Products: []paapi.Product{{ASIN: "B001"}}}}
	a := paapi.NewAdapter(client, 100)

	resp, err := a.Search(context.Background(), paapi.SearchRequest{
		Keywords: "monitor", MinPrice: intp(10000), MaxPrice: intp(20000),
	})
	require.NoError(t, err)
	assert.True(t, resp.Meta.PriceRangeWorkaround)
	require.Len(t, client.searchReqs, 1)
	assert.Nil(t, client.searchReqs[0].MaxPrice)
	require.NotNil(t, client.searchReqs[0].MinPrice)
	assert.Equal(t, 10000, *client.searchReqs[0].MinPrice)
}

func TestAdapter_Search_LeavesSingleBoundUntouched(t *testing.T) {
	t.Parallel()

	client := &fakeClient{searchResp: paapi.SearchResponse{}}
	a := paapi.NewAdapter(client, 100)

	resp, err := a.Search(context.Background(), paapi.SearchRequest{Keywords: "monitor", MinPrice: intp(10000)})
	require.NoError(t, err)
	assert.False(t, resp.Meta.PriceRangeWorkaround)
	require.Len(t, client.searchReqs, 1)
	require.NotNil(t, client.searchReqs[0].MinPrice)
}
