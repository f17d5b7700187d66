package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HealthOutput is the response body for health check endpoints.
type HealthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok" doc:"Health status"`
	}
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := &HealthOutput{}
	resp.Body.Status = "ok"
	return resp, nil
}

// Readyz returns 200; the demo host has no external dependency of its own
// to probe (the upstream PaapiAdapter reports its own breaker state via
// metrics, not through this endpoint).
func (*HealthHandler) Readyz(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := &HealthOutput{}
	resp.Body.Status = "ready"
	return resp, nil
}

// RegisterHealthRoutes registers health endpoints with the Huma API.
func RegisterHealthRoutes(api huma.API, h *HealthHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "healthz",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Liveness check",
		Description: "Returns 200 if the process is running.",
		Tags:        []string{"health"},
	}, h.Healthz)

	huma.Register(api, huma.Operation{
		OperationID: "readyz",
		Method:      http.MethodGet,
		Path:        "/readyz",
		Summary:     "Readiness check",
		Description: "Returns 200 if the process is ready to serve traffic.",
		Tags:        []string{"health"},
	}, h.Readyz)
}
