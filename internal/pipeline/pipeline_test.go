package pipeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subszero0/mandimonitor/internal/analyze"
	"github.com/subszero0/mandimonitor/internal/extract"
	"github.com/subszero0/mandimonitor/internal/paapi"
	"github.com/subszero0/mandimonitor/internal/pipeline"
	"github.com/subszero0/mandimonitor/internal/repo"
	"github.com/subszero0/mandimonitor/internal/scoring"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

type fakeSource struct {
	searchResult *paapi.PaginateResult
	searchErr    error
	items        map[string]paapi.Product
	itemsErr     error
	searchCalls  atomic.Int32
}

func (f *fakeSource) SearchPaginated(_ context.Context, _ paapi.SearchRequest, _ int) (*paapi.PaginateResult, error) {
	f.searchCalls.Add(1)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

func (f *fakeSource) GetItemsBatch(_ context.Context, _ []string, _ paapi.ResourceSet) (map[string]paapi.Product, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.items, nil
}

func price64(p int64) *int64 { return &p }
func intp(v int) *int        { return &v }

func samsungMonitor() paapi.Product {
	return paapi.Product{
		ASIN: "B001", Title: "Samsung 27 inch 144Hz Curved Gaming Monitor", Brand: "Samsung",
		PricePaise: price64(2200000), RatingCount: 500, AverageRating: 4.5,
		TechnicalDetails: map[string]string{"Refresh Rate": "144hz"},
	}
}

func lgMonitor() paapi.Product {
	return paapi.Product{
		ASIN: "B002", Title: "LG 27 inch 165Hz Curved Gaming Monitor", Brand: "LG",
		PricePaise: price64(2400000), RatingCount: 300, AverageRating: 4.3,
		TechnicalDetails: map[string]string{"Refresh Rate": "165hz"},
	}
}

func newPipeline(source pipeline.ProductSource, opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(source, extract.New(), analyze.New(), scoring.New(), opts...)
}

func TestRunSelection_InvalidInputWhenMinExceedsMax(t *testing.T) {
	t.Parallel()

	p := newPipeline(&fakeSource{})
	query := domain.Query{Text: "monitor", Filters: domain.Filters{MinPrice: intp(50000), MaxPrice: intp(10000)}}

	_, err := p.RunSelection(context.Background(), query, "u1")
	require.Error(t, err)
	assert.Equal(t, pipeline.KindInvalidInput, pipeline.KindOf(err))
}

func TestRunSelection_NoMatchWhenSearchReturnsEmpty(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchResult: &paapi.PaginateResult{Products: nil}}
	p := newPipeline(source, pipeline.WithEnrichment(false))

	_, err := p.RunSelection(context.Background(), domain.Query{Text: "monitor"}, "u1")
	require.Error(t, err)
	assert.True(t, pipeline.IsNoMatch(err))
}

func TestRunSelection_UnavailableWhenBreakerOpen(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchErr: paapi.ErrUnavailable}
	p := newPipeline(source, pipeline.WithEnrichment(false))

	_, err := p.RunSelection(context.Background(), domain.Query{Text: "monitor"}, "u1")
	require.Error(t, err)
	assert.True(t, pipeline.IsUnavailable(err))
}

func TestRunSelection_TransientOnOtherUpstreamError(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchErr: errors.New("connection reset")}
	p := newPipeline(source, pipeline.WithEnrichment(false))

	_, err := p.RunSelection(context.Background(), domain.Query{Text: "monitor"}, "u1")
	require.Error(t, err)
	assert.Equal(t, pipeline.KindTransient, pipeline.KindOf(err))
}

func TestRunSelection_HappyPathReturnsScoredAndSortedProducts(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchResult: &paapi.PaginateResult{Products: []paapi.Product{samsungMonitor(), lgMonitor()}}}
	p := newPipeline(source, pipeline.WithEnrichment(false), pipeline.WithSeed(42))

	result, err := p.RunSelection(context.Background(), domain.Query{Text: "27 inch 144hz curved gaming monitor"}, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, result.Products)
	assert.NotEmpty(t, result.Scores)
	assert.GreaterOrEqual(t, result.Scores[0].Final, 0.0)
}

func TestRunSelection_BrandFilterNarrowsResults(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchResult: &paapi.PaginateResult{Products: []paapi.Product{samsungMonitor(), lgMonitor()}}}
	p := newPipeline(source, pipeline.WithEnrichment(false), pipeline.WithSeed(1))

	brand := "lg"
	result, err := p.RunSelection(context.Background(), domain.Query{
		Text:    "27 inch gaming monitor",
		Filters: domain.Filters{Brand: &brand},
	}, "u1")
	require.NoError(t, err)
	for _, prod := range result.Products {
		assert.Equal(t, "LG", prod.Brand)
	}
}

func TestRunSelection_BrandFilterNoMatch(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchResult: &paapi.PaginateResult{Products: []paapi.Product{samsungMonitor()}}}
	p := newPipeline(source, pipeline.WithEnrichment(false))

	brand := "dell"
	_, err := p.RunSelection(context.Background(), domain.Query{
		Text:    "monitor",
		Filters: domain.Filters{Brand: &brand},
	}, "u1")
	require.Error(t, err)
	assert.True(t, pipeline.IsNoMatch(err))
}

func TestRunSelection_EnrichmentFillsMissingPrice(t *testing.T) {
	t.Parallel()

	noPriceProduct := paapi.Product{ASIN: "B003", Title: "Dell 27 inch Monitor", Brand: "Dell"}
	enriched := paapi.Product{ASIN: "B003", Title: "Dell 27 inch Monitor", Brand: "Dell", PricePaise: price64(1800000)}

	source := &fakeSource{
		searchResult: &paapi.PaginateResult{Products: []paapi.Product{noPriceProduct}},
		items:        map[string]paapi.Product{"B003": enriched},
	}
	p := newPipeline(source, pipeline.WithEnrichment(true))

	result, err := p.RunSelection(context.Background(), domain.Query{Text: "27 inch monitor"}, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, result.Products)
	assert.True(t, result.EnrichmentPerformed)
	require.NotNil(t, result.Products[0].PriceRupees)
	assert.Equal(t, 18000, *result.Products[0].PriceRupees)
}

func TestRunSelection_PriceRangeWorkaroundAppliesClientSideMaxFilter(t *testing.T) {
	t.Parallel()

	cheap := paapi.Product{ASIN: "B004", Title: "Budget 27 inch monitor", PricePaise: price64(1500000)}
	expensive := paapi.Product{ASIN: "B005", Title: "Premium 27 inch monitor", PricePaise: price64(4500000)}

	source := &fakeSource{searchResult: &paapi.PaginateResult{
		Products:             []paapi.Product{cheap, expensive},
		PriceRangeWorkaround: true,
	}}
	p := newPipeline(source, pipeline.WithEnrichment(false))

	result, err := p.RunSelection(context.Background(), domain.Query{
		Text:    "27 inch monitor",
		Filters: domain.Filters{MinPrice: intp(10000), MaxPrice: intp(20000)},
	}, "u1")
	require.NoError(t, err)
	assert.True(t, result.PriceRangeWorkaround)
	for _, prod := range result.Products {
		require.NotNil(t, prod.PriceRupees)
		assert.LessOrEqual(t, *prod.PriceRupees, 20000)
	}
}

func TestRunSelection_PartialResultPropagatedFromPaginator(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchResult: &paapi.PaginateResult{
		Products: []paapi.Product{samsungMonitor()},
		Partial:  true,
	}}
	p := newPipeline(source, pipeline.WithEnrichment(false))

	result, err := p.RunSelection(context.Background(), domain.Query{Text: "gaming monitor"}, "u1")
	require.NoError(t, err)
	assert.True(t, result.PartialResult)
}

func TestRunSelection_SearchCacheAvoidsRepeatUpstreamCall(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchResult: &paapi.PaginateResult{Products: []paapi.Product{samsungMonitor()}}}
	cache := repo.NewTTLSearchCacheRepo(time.Minute, time.Minute)
	p := newPipeline(source, pipeline.WithEnrichment(false), pipeline.WithSearchCache(cache))

	query := domain.Query{Text: "gaming monitor"}
	_, err := p.RunSelection(context.Background(), query, "u1")
	require.NoError(t, err)
	_, err = p.RunSelection(context.Background(), query, "u1")
	require.NoError(t, err)

	assert.EqualValues(t, 1, source.searchCalls.Load())
}

func TestRunSelection_RespectsDeadline(t *testing.T) {
	t.Parallel()

	source := &fakeSource{searchResult: &paapi.PaginateResult{Products: []paapi.Product{samsungMonitor()}}}
	p := newPipeline(source, pipeline.WithEnrichment(false), pipeline.WithDeadline(5*time.Second))

	_, err := p.RunSelection(context.Background(), domain.Query{Text: "monitor"}, "u1")
	require.NoError(t, err)
}
