package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gavincooper/vehicle-valuator/internal/engine"
	"github.com/gavincooper/vehicle-valuator/internal/marketdata"
	"github.com/gavincooper/vehicle-valuator/internal/store"
	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// maxBatchSize bounds one batch valuation request.
const maxBatchSize = 50

// ValuationsHandler handles valuation endpoints.
type ValuationsHandler struct {
	coord *engine.Coordinator
	store store.Store
	log   *slog.Logger
}

// NewValuationsHandler creates a new ValuationsHandler. The store may be nil
// when persistence is disabled; history endpoints then return 503.
func NewValuationsHandler(coord *engine.Coordinator, s store.Store, log *slog.Logger) *ValuationsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ValuationsHandler{coord: coord, store: s, log: log}
}

// --- Input/Output types ---

// CreateValuationInput is the input for a single valuation.
type CreateValuationInput struct {
	RequestID string `header:"X-Request-ID" doc:"Request correlation ID"`
	UserID    string `header:"X-User-ID"    doc:"Caller identity for audit attribution"`
	Body      domain.ValuationRequest
}

// CreateValuationOutput is the response for a single valuation.
type CreateValuationOutput struct {
	Body domain.ValuationResult
}

// BatchValuationInput is the input for a batch of valuations.
type BatchValuationInput struct {
	RequestID string `header:"X-Request-ID" doc:"Request correlation ID"`
	UserID    string `header:"X-User-ID"    doc:"Caller identity for audit attribution"`
	Body      struct {
		Vehicles []domain.ValuationRequest `json:"vehicles" minItems:"1" maxItems:"50"`
	}
}

// BatchValuationOutput is the response for a batch of valuations.
type BatchValuationOutput struct {
	Body struct {
		Results []domain.ValuationResult `json:"results"`
	}
}

// GetValuationInput is the input for getting a stored valuation.
type GetValuationInput struct {
	ID string `path:"id" doc:"Valuation ID"`
}

// GetValuationOutput is the response for getting a stored valuation.
type GetValuationOutput struct {
	Body domain.ValuationResult
}

// ListValuationsInput is the input for listing stored valuations.
type ListValuationsInput struct {
	VIN           string  `query:"vin"            doc:"Filter by VIN"`
	Make          string  `query:"make"           doc:"Filter by make"`
	Model         string  `query:"model"          doc:"Filter by model"`
	Year          int     `query:"year"           doc:"Filter by model year"            minimum:"0"`
	Method        string  `query:"method"         doc:"Filter by valuation method"      enum:"MARKET_DATA_PRIMARY,ML_MODEL_PRIMARY,HYBRID_APPROACH,"`
	MinConfidence float64 `query:"min_confidence" doc:"Minimum confidence score"        minimum:"0" maximum:"100"`
	Limit         int     `query:"limit"          doc:"Number of results (default 50)"  minimum:"1" maximum:"500"`
	Offset        int     `query:"offset"         doc:"Pagination offset"               minimum:"0"`
	OrderBy       string  `query:"order_by"       doc:"Sort field"                      enum:"created_at,estimated_value,confidence,"`
}

// ListValuationsOutput is the response for listing stored valuations.
type ListValuationsOutput struct {
	Body struct {
		Valuations []domain.ValuationResult `json:"valuations"`
		Total      int                      `json:"total"`
		Limit      int                      `json:"limit"`
		Offset     int                      `json:"offset"`
	}
}

// VINHistoryInput is the input for a vehicle's valuation history.
type VINHistoryInput struct {
	VIN   string `path:"vin"    doc:"Vehicle identification number" minLength:"17" maxLength:"17"`
	Limit int    `query:"limit" doc:"Number of results (default 50)" minimum:"1" maximum:"500"`
}

// VINHistoryOutput is the response for a vehicle's valuation history.
type VINHistoryOutput struct {
	Body struct {
		VIN        string                   `json:"vin"`
		Valuations []domain.ValuationResult `json:"valuations"`
	}
}

// --- Handlers ---

// CreateValuation runs the full valuation pipeline for one vehicle.
func (h *ValuationsHandler) CreateValuation(
	ctx context.Context,
	input *CreateValuationInput,
) (*CreateValuationOutput, error) {
	req := input.Body
	result, err := h.coord.Valuate(ctx, &req, engine.RequestMeta{
		RequestID: input.RequestID,
		UserID:    input.UserID,
	})
	if err != nil {
		return nil, valuationError(err)
	}

	h.persist(ctx, &req, result, input.UserID)

	return &CreateValuationOutput{Body: *result}, nil
}

// BatchValuation runs the pipeline for up to maxBatchSize vehicles. Failed
// requests yield error placeholders; the batch itself never fails.
func (h *ValuationsHandler) BatchValuation(
	ctx context.Context,
	input *BatchValuationInput,
) (*BatchValuationOutput, error) {
	if len(input.Body.Vehicles) > maxBatchSize {
		return nil, huma.Error422UnprocessableEntity("batch size exceeds limit")
	}

	reqs := make([]*domain.ValuationRequest, len(input.Body.Vehicles))
	for i := range input.Body.Vehicles {
		reqs[i] = &input.Body.Vehicles[i]
	}

	results := h.coord.BatchValuate(ctx, reqs, engine.RequestMeta{
		RequestID: input.RequestID,
		UserID:    input.UserID,
	})

	for i, result := range results {
		if result.ValuationMethod != engine.MethodError {
			h.persist(ctx, reqs[i], result, input.UserID)
		}
	}

	resp := &BatchValuationOutput{}
	resp.Body.Results = make([]domain.ValuationResult, len(results))
	for i, result := range results {
		resp.Body.Results[i] = *result
	}
	return resp, nil
}

// GetValuation returns a stored valuation by ID.
func (h *ValuationsHandler) GetValuation(
	ctx context.Context,
	input *GetValuationInput,
) (*GetValuationOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("valuation storage is disabled")
	}

	result, err := h.store.GetValuation(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("valuation not found")
		}
		return nil, huma.Error500InternalServerError("valuation lookup failed: " + err.Error())
	}

	return &GetValuationOutput{Body: *result}, nil
}

// ListValuations returns stored valuations with optional filters.
func (h *ValuationsHandler) ListValuations(
	ctx context.Context,
	input *ListValuationsInput,
) (*ListValuationsOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("valuation storage is disabled")
	}

	q := &store.ValuationQuery{
		Offset:  input.Offset,
		OrderBy: input.OrderBy,
	}
	if input.VIN != "" {
		q.VIN = &input.VIN
	}
	if input.Make != "" {
		q.Make = &input.Make
	}
	if input.Model != "" {
		q.Model = &input.Model
	}
	if input.Year != 0 {
		q.Year = &input.Year
	}
	if input.Method != "" {
		q.Method = &input.Method
	}
	if input.MinConfidence != 0 {
		q.MinConfidence = &input.MinConfidence
	}
	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	valuations, total, err := h.store.ListValuations(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("valuation query failed: " + err.Error())
	}

	resp := &ListValuationsOutput{}
	resp.Body.Valuations = valuations
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset
	return resp, nil
}

// VINHistory returns the stored valuations for one vehicle, newest first.
func (h *ValuationsHandler) VINHistory(
	ctx context.Context,
	input *VINHistoryInput,
) (*VINHistoryOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("valuation storage is disabled")
	}

	valuations, err := h.store.VINHistory(ctx, input.VIN, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("history query failed: " + err.Error())
	}

	resp := &VINHistoryOutput{}
	resp.Body.VIN = input.VIN
	resp.Body.Valuations = valuations
	return resp, nil
}

// persist saves a completed valuation. Storage failures are logged, never
// surfaced; the valuation itself already succeeded.
func (h *ValuationsHandler) persist(
	ctx context.Context,
	req *domain.ValuationRequest,
	result *domain.ValuationResult,
	userID string,
) {
	if h.store == nil {
		return
	}
	if err := h.store.SaveValuation(ctx, req, result, userID); err != nil {
		h.log.Error("saving valuation failed", "id", result.ID, "error", err)
	}
}

func valuationError(err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidRequest):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, marketdata.ErrNoSources):
		return huma.Error503ServiceUnavailable("no market data available: " + err.Error())
	default:
		return huma.Error500InternalServerError("valuation failed: " + err.Error())
	}
}

// RegisterValuationRoutes registers valuation endpoints with the Huma API.
func RegisterValuationRoutes(api huma.API, h *ValuationsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "create-valuation",
		Method:      http.MethodPost,
		Path:        "/api/v1/valuations",
		Summary:     "Value a vehicle",
		Description: "Runs the full valuation pipeline for one vehicle and returns the result.",
		Tags:        []string{"valuations"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusServiceUnavailable},
	}, h.CreateValuation)

	huma.Register(api, huma.Operation{
		OperationID: "batch-valuation",
		Method:      http.MethodPost,
		Path:        "/api/v1/valuations/batch",
		Summary:     "Value multiple vehicles",
		Description: "Runs the valuation pipeline for up to 50 vehicles. Failed vehicles yield error placeholders.",
		Tags:        []string{"valuations"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.BatchValuation)

	huma.Register(api, huma.Operation{
		OperationID: "get-valuation",
		Method:      http.MethodGet,
		Path:        "/api/v1/valuations/{id}",
		Summary:     "Get a stored valuation",
		Description: "Returns a previously computed valuation by its ID.",
		Tags:        []string{"valuations"},
		Errors:      []int{http.StatusNotFound, http.StatusServiceUnavailable},
	}, h.GetValuation)

	huma.Register(api, huma.Operation{
		OperationID: "list-valuations",
		Method:      http.MethodGet,
		Path:        "/api/v1/valuations",
		Summary:     "List stored valuations",
		Description: "Returns stored valuations with optional filters for vehicle identity, method, and confidence.",
		Tags:        []string{"valuations"},
		Errors:      []int{http.StatusServiceUnavailable},
	}, h.ListValuations)

	huma.Register(api, huma.Operation{
		OperationID: "vin-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/vehicles/{vin}/history",
		Summary:     "Get valuation history for a vehicle",
		Description: "Returns the stored valuations for one VIN, newest first.",
		Tags:        []string{"valuations"},
		Errors:      []int{http.StatusServiceUnavailable},
	}, h.VINHistory)
}
