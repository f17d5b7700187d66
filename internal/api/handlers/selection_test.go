package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subszero0/mandimonitor/internal/analyze"
	"github.com/subszero0/mandimonitor/internal/api/handlers"
	"github.com/subszero0/mandimonitor/internal/extract"
	"github.com/subszero0/mandimonitor/internal/paapi"
	"github.com/subszero0/mandimonitor/internal/pipeline"
	"github.com/subszero0/mandimonitor/internal/scoring"
)

type fakeProductSource struct {
	products []paapi.Product
}

func (f *fakeProductSource) SearchPaginated(_ context.Context, _ paapi.SearchRequest, _ int) (*paapi.PaginateResult, error) {
	return &paapi.PaginateResult{Products: f.products}, nil
}

func (f *fakeProductSource) GetItemsBatch(_ context.Context, _ []string, _ paapi.ResourceSet) (map[string]paapi.Product, error) {
	return map[string]paapi.Product{}, nil
}

func price(p int64) *int64 { return &p }

func newTestPipeline() *pipeline.Pipeline {
	source := &fakeProductSource{
		products: []paapi.Product{
			{
				ASIN: "B001", Title: "Samsung 27 inch 144Hz Gaming Monitor", Brand: "Samsung",
				PricePaise: price(2500000), RatingCount: 120, AverageRating: 4.3,
			},
		},
	}
	return pipeline.New(source, extract.New(), analyze.New(), scoring.New(), pipeline.WithEnrichment(false))
}

func TestSelectionHandler_RunSelection(t *testing.T) {
	t.Parallel()

	h := handlers.NewSelectionHandler(newTestPipeline())

	input := &handlers.SelectionInput{}
	input.Body.Query = "27 inch 144hz gaming monitor"
	input.Body.UserID = "u1"

	out, err := h.RunSelection(context.Background(), input)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Body.Products)
}

func TestSelectionHandler_RunSelection_InvalidInput(t *testing.T) {
	t.Parallel()

	h := handlers.NewSelectionHandler(newTestPipeline())

	minP, maxP := 5000, 1000
	input := &handlers.SelectionInput{}
	input.Body.Query = "gaming monitor"
	input.Body.Filters.MinPrice = &minP
	input.Body.Filters.MaxPrice = &maxP

	_, err := h.RunSelection(context.Background(), input)
	require.Error(t, err)
}
