package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/subszero0/mandimonitor/internal/pipeline"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// SelectionHandler exposes the selection pipeline's RunSelection operation.
type SelectionHandler struct {
	pipeline *pipeline.Pipeline
}

// NewSelectionHandler creates a new SelectionHandler.
func NewSelectionHandler(p *pipeline.Pipeline) *SelectionHandler {
	return &SelectionHandler{pipeline: p}
}

// SelectionInput is the request body for the selection endpoint.
type SelectionInput struct {
	Body struct {
		Query   string `json:"query" minLength:"1" doc:"Free-text product request" example:"gaming monitor under 30000"`
		UserID  string `json:"user_id,omitempty" doc:"Requesting user, recorded in the pipeline's request log"`
		Filters struct {
			MaxPrice           *int    `json:"max_price,omitempty"`
			MinPrice           *int    `json:"min_price,omitempty"`
			MinDiscountPercent *int    `json:"min_discount_percent,omitempty"`
			Brand              *string `json:"brand,omitempty"`
			CategoryHint       *string `json:"category_hint,omitempty"`
		} `json:"filters,omitempty"`
	}
}

// SelectionOutput is the response body for the selection endpoint.
type SelectionOutput struct {
	Body domain.SelectionResult
}

// RunSelection runs the query→search→enrich→select pipeline and returns
// its result.
func (h *SelectionHandler) RunSelection(ctx context.Context, input *SelectionInput) (*SelectionOutput, error) {
	query := domain.Query{
		Text: input.Body.Query,
		Filters: domain.Filters{
			MaxPrice:           input.Body.Filters.MaxPrice,
			MinPrice:           input.Body.Filters.MinPrice,
			MinDiscountPercent: input.Body.Filters.MinDiscountPercent,
			Brand:              input.Body.Filters.Brand,
			CategoryHint:       input.Body.Filters.CategoryHint,
		},
	}

	result, err := h.pipeline.RunSelection(ctx, query, input.Body.UserID)
	if err != nil {
		switch pipeline.KindOf(err) {
		case pipeline.KindInvalidInput:
			return nil, huma.Error422UnprocessableEntity(err.Error())
		case pipeline.KindNoMatch:
			return nil, huma.Error404NotFound(err.Error())
		case pipeline.KindUnavailable:
			return nil, huma.Error503ServiceUnavailable(err.Error())
		case pipeline.KindTransient:
			return nil, huma.Error502BadGateway(err.Error())
		default:
			return nil, huma.Error500InternalServerError(err.Error())
		}
	}

	return &SelectionOutput{Body: result}, nil
}

// RegisterSelectionRoutes registers selection endpoints with the Huma API.
func RegisterSelectionRoutes(api huma.API, h *SelectionHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "run-selection",
		Method:      http.MethodPost,
		Path:        "/api/v1/selection",
		Summary:     "Select products for a query",
		Description: "Runs the extract/search/enrich/filter/analyze/score/select pipeline and returns a SelectionResult.",
		Tags:        []string{"selection"},
		Errors:      []int{422, http.StatusNotFound, http.StatusBadGateway, http.StatusServiceUnavailable},
	}, h.RunSelection)
}
