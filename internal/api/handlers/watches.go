package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/subszero0/mandimonitor/internal/repo"
	domain "github.com/subszero0/mandimonitor/pkg/types"
)

// WatchHandler handles Watch CRUD operations against the in-memory demo
// repo. The core itself never implements a driver-backed store (spec.md
// §1, §6); a real deployment would swap in a persistent WatchRepo here.
type WatchHandler struct {
	store *repo.InMemoryWatchRepo
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(s *repo.InMemoryWatchRepo) *WatchHandler {
	return &WatchHandler{store: s}
}

// ListWatchesInput is the input for listing watches.
type ListWatchesInput struct {
	UserID string `query:"user_id" doc:"Filter by owning user"`
}

// ListWatchesOutput is the response for listing active watches.
type ListWatchesOutput struct {
	Body []domain.Watch
}

// GetWatchInput is the input for getting a single watch.
type GetWatchInput struct {
	ID string `path:"id" doc:"Watch ID"`
}

// GetWatchOutput is the response for getting a single watch.
type GetWatchOutput struct {
	Body domain.Watch
}

// CreateWatchInput is the input for creating a watch.
type CreateWatchInput struct {
	Body struct {
		UserID             string  `json:"user_id" minLength:"1" doc:"Owning user"`
		Keywords           string  `json:"keywords" minLength:"1" doc:"Search keywords to re-run on each evaluation"`
		Brand              *string `json:"brand,omitempty"`
		MaxPriceRupees     *int    `json:"max_price_rupees,omitempty"`
		MinDiscountPercent *int    `json:"min_discount_percent,omitempty"`
		SelectedASIN       *string `json:"selected_asin,omitempty" doc:"ASIN to track, if already selected"`
	}
}

// CreateWatchOutput is the response for creating a watch.
type CreateWatchOutput struct {
	Body domain.Watch
}

// SetWatchStateInput is the input for changing a watch's state.
type SetWatchStateInput struct {
	ID   string `path:"id" doc:"Watch ID"`
	Body struct {
		State domain.WatchState `json:"state" doc:"One of active, paused" example:"paused"`
	}
}

// ListWatches returns active watches, optionally filtered by owning user.
func (h *WatchHandler) ListWatches(ctx context.Context, input *ListWatchesInput) (*ListWatchesOutput, error) {
	watches, err := h.store.ListActive(ctx, input.UserID)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing watches: " + err.Error())
	}
	if watches == nil {
		watches = []domain.Watch{}
	}
	return &ListWatchesOutput{Body: watches}, nil
}

// GetWatch returns a single watch by ID.
func (h *WatchHandler) GetWatch(ctx context.Context, input *GetWatchInput) (*GetWatchOutput, error) {
	w, err := h.store.GetByID(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("watch not found")
	}
	return &GetWatchOutput{Body: w}, nil
}

// CreateWatch creates a new watch in the ACTIVE state.
func (h *WatchHandler) CreateWatch(_ context.Context, input *CreateWatchInput) (*CreateWatchOutput, error) {
	w := domain.Watch{
		ID:                 uuid.NewString(),
		UserID:             input.Body.UserID,
		Keywords:           input.Body.Keywords,
		Brand:              input.Body.Brand,
		MaxPriceRupees:     input.Body.MaxPriceRupees,
		MinDiscountPercent: input.Body.MinDiscountPercent,
		SelectedASIN:       input.Body.SelectedASIN,
		State:              domain.WatchActive,
		CreatedAt:          time.Now(),
	}
	h.store.Put(w)
	return &CreateWatchOutput{Body: w}, nil
}

// SetWatchState pauses or reactivates a watch.
func (h *WatchHandler) SetWatchState(ctx context.Context, input *SetWatchStateInput) (*StatusResponse, error) {
	if _, err := h.store.GetByID(ctx, input.ID); err != nil {
		return nil, huma.Error404NotFound("watch not found")
	}
	h.store.SetState(input.ID, input.Body.State)
	return &StatusResponse{Status: "updated"}, nil
}

// RegisterWatchRoutes registers watch endpoints with the Huma API.
func RegisterWatchRoutes(api huma.API, h *WatchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-watches",
		Method:      http.MethodGet,
		Path:        "/api/v1/watches",
		Summary:     "List active watches",
		Tags:        []string{"watches"},
	}, h.ListWatches)

	huma.Register(api, huma.Operation{
		OperationID: "get-watch",
		Method:      http.MethodGet,
		Path:        "/api/v1/watches/{id}",
		Summary:     "Get a watch by ID",
		Tags:        []string{"watches"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetWatch)

	huma.Register(api, huma.Operation{
		OperationID:   "create-watch",
		Method:        http.MethodPost,
		Path:          "/api/v1/watches",
		Summary:       "Create a watch",
		Tags:          []string{"watches"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateWatch)

	huma.Register(api, huma.Operation{
		OperationID: "set-watch-state",
		Method:      http.MethodPut,
		Path:        "/api/v1/watches/{id}/state",
		Summary:     "Pause or reactivate a watch",
		Tags:        []string{"watches"},
		Errors:      []int{http.StatusNotFound},
	}, h.SetWatchState)
}
