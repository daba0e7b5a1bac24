package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gavincooper/vehicle-valuator/internal/audit"
	"github.com/gavincooper/vehicle-valuator/internal/store"
	"github.com/gavincooper/vehicle-valuator/pkg/predict"
)

// AuditEntriesResponse wraps a filtered audit entries response.
type AuditEntriesResponse struct {
	Entries []audit.Entry `json:"entries"`
	Total   int           `json:"total"`
}

// AuditEntriesParams defines query parameters for audit entry queries.
type AuditEntriesParams struct {
	Event  string
	UserID string
	Limit  int
}

// PredictorInfoResponse describes the server's active predictor.
type PredictorInfoResponse struct {
	Model predict.ModelInfo `json:"model"`
	Ready bool              `json:"ready"`
}

// AuditEntries returns audit entries matching the given parameters.
func (c *Client) AuditEntries(
	ctx context.Context,
	params *AuditEntriesParams,
) (*AuditEntriesResponse, error) {
	q := url.Values{}
	if params.Event != "" {
		q.Set("event", params.Event)
	}
	if params.UserID != "" {
		q.Set("user_id", params.UserID)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}

	path := "/api/v1/audit/entries"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp AuditEntriesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditMetrics returns aggregate performance metrics for the server.
func (c *Client) AuditMetrics(ctx context.Context) (*audit.PerformanceMetrics, error) {
	var m audit.PerformanceMetrics
	if err := c.get(ctx, "/api/v1/audit/metrics", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ExportAudit returns the full audit trail in the given format ("json" or
// "csv") as raw bytes.
func (c *Client) ExportAudit(ctx context.Context, format string) ([]byte, error) {
	path := "/api/v1/audit/export"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	return c.getRaw(ctx, path)
}

// PredictorInfo returns the server's active predictor model info.
func (c *Client) PredictorInfo(ctx context.Context) (*PredictorInfoResponse, error) {
	var resp PredictorInfoResponse
	if err := c.get(ctx, "/api/v1/predictor", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns aggregate statistics over stored valuations.
func (c *Client) Stats(ctx context.Context) (*store.ValuationStats, error) {
	var stats store.ValuationStats
	if err := c.get(ctx, "/api/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
