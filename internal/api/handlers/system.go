package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gavincooper/vehicle-valuator/internal/engine"
	"github.com/gavincooper/vehicle-valuator/internal/store"
	"github.com/gavincooper/vehicle-valuator/pkg/predict"
)

// SystemHandler exposes diagnostics about the running pipeline.
type SystemHandler struct {
	coord *engine.Coordinator
	store store.Store
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(coord *engine.Coordinator, s store.Store) *SystemHandler {
	return &SystemHandler{coord: coord, store: s}
}

// PredictorInfoOutput describes the active base value predictor.
type PredictorInfoOutput struct {
	Body struct {
		Model predict.ModelInfo `json:"model"`
		Ready bool              `json:"ready"`
	}
}

// StatsOutput summarizes the stored valuations.
type StatsOutput struct {
	Body store.ValuationStats
}

// PredictorInfo returns the active predictor's model metadata and readiness.
func (h *SystemHandler) PredictorInfo(
	_ context.Context,
	_ *struct{},
) (*PredictorInfoOutput, error) {
	resp := &PredictorInfoOutput{}
	resp.Body.Model = h.coord.PredictorInfo()
	resp.Body.Ready = h.coord.PredictorReady()
	return resp, nil
}

// Stats returns aggregate statistics over stored valuations.
func (h *SystemHandler) Stats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("valuation storage is disabled")
	}

	stats, err := h.store.GetValuationStats(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("stats query failed: " + err.Error())
	}
	return &StatsOutput{Body: *stats}, nil
}

// RegisterSystemRoutes registers diagnostics endpoints with the Huma API.
func RegisterSystemRoutes(api huma.API, h *SystemHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "predictor-info",
		Method:      http.MethodGet,
		Path:        "/api/v1/predictor",
		Summary:     "Get predictor model info",
		Description: "Returns metadata and readiness of the active base value predictor.",
		Tags:        []string{"system"},
	}, h.PredictorInfo)

	huma.Register(api, huma.Operation{
		OperationID: "valuation-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get valuation statistics",
		Description: "Returns aggregate counts and averages over stored valuations.",
		Tags:        []string{"system"},
		Errors:      []int{http.StatusServiceUnavailable},
	}, h.Stats)
}
