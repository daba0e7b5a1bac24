package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// BatchResponse wraps the results of a batch valuation.
type BatchResponse struct {
	Results []domain.ValuationResult `json:"results"`
}

// ValuationsResponse wraps a paginated valuations response.
type ValuationsResponse struct {
	Valuations []domain.ValuationResult `json:"valuations"`
	Total      int                      `json:"total"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
}

// HistoryResponse wraps a vehicle's valuation history.
type HistoryResponse struct {
	VIN        string                   `json:"vin"`
	Valuations []domain.ValuationResult `json:"valuations"`
}

// ListValuationsParams defines query parameters for valuation queries.
type ListValuationsParams struct {
	VIN           string
	Make          string
	Model         string
	Year          int
	Method        string
	MinConfidence float64
	Limit         int
	Offset        int
	OrderBy       string
}

// Valuate submits one vehicle for valuation.
func (c *Client) Valuate(ctx context.Context, req *domain.ValuationRequest) (*domain.ValuationResult, error) {
	var result domain.ValuationResult
	if err := c.post(ctx, "/api/v1/valuations", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchValuate submits multiple vehicles for valuation in one call.
func (c *Client) BatchValuate(ctx context.Context, reqs []domain.ValuationRequest) ([]domain.ValuationResult, error) {
	body := struct {
		Vehicles []domain.ValuationRequest `json:"vehicles"`
	}{Vehicles: reqs}

	var resp BatchResponse
	if err := c.post(ctx, "/api/v1/valuations/batch", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetValuation returns a stored valuation by ID.
func (c *Client) GetValuation(ctx context.Context, id string) (*domain.ValuationResult, error) {
	var result domain.ValuationResult
	if err := c.get(ctx, fmt.Sprintf("/api/v1/valuations/%s", id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListValuations returns stored valuations matching the given parameters.
func (c *Client) ListValuations(
	ctx context.Context,
	params *ListValuationsParams,
) (*ValuationsResponse, error) {
	q := url.Values{}
	if params.VIN != "" {
		q.Set("vin", params.VIN)
	}
	if params.Make != "" {
		q.Set("make", params.Make)
	}
	if params.Model != "" {
		q.Set("model", params.Model)
	}
	if params.Year > 0 {
		q.Set("year", strconv.Itoa(params.Year))
	}
	if params.Method != "" {
		q.Set("method", params.Method)
	}
	if params.MinConfidence > 0 {
		q.Set("min_confidence", strconv.FormatFloat(params.MinConfidence, 'f', -1, 64))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.OrderBy != "" {
		q.Set("order_by", params.OrderBy)
	}

	path := "/api/v1/valuations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ValuationsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VINHistory returns the stored valuations for one vehicle, newest first.
func (c *Client) VINHistory(ctx context.Context, vin string, limit int) (*HistoryResponse, error) {
	path := fmt.Sprintf("/api/v1/vehicles/%s/history", vin)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp HistoryResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
