package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gavincooper/vehicle-valuator/internal/audit"
)

// AuditHandler exposes the in-memory audit trail.
type AuditHandler struct {
	trail *audit.Trail
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(trail *audit.Trail) *AuditHandler {
	return &AuditHandler{trail: trail}
}

// ListAuditEntriesInput filters the returned audit entries.
type ListAuditEntriesInput struct {
	Event  string    `query:"event"     doc:"Filter by event type" enum:"valuation_start,valuation_success,valuation_error,"`
	UserID string    `query:"user_id"   doc:"Filter by user ID"`
	From   time.Time `query:"date_from" doc:"Oldest entry timestamp to include"`
	To     time.Time `query:"date_to"   doc:"Newest entry timestamp to include"`
	Limit  int       `query:"limit"     doc:"Maximum entries to return" minimum:"1" maximum:"1000"`
}

// ListAuditEntriesOutput is the response for listing audit entries.
type ListAuditEntriesOutput struct {
	Body struct {
		Entries []audit.Entry `json:"entries"`
		Total   int           `json:"total"`
	}
}

// AuditMetricsOutput is the response for audit performance metrics.
type AuditMetricsOutput struct {
	Body audit.PerformanceMetrics
}

// ExportAuditInput selects the export format.
type ExportAuditInput struct {
	Format string `query:"format" doc:"Export format" enum:"json,csv" default:"json"`
}

// ExportAuditOutput carries a raw export payload.
type ExportAuditOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ListAuditEntries returns audit entries newest first, optionally filtered.
func (h *AuditHandler) ListAuditEntries(
	_ context.Context,
	input *ListAuditEntriesInput,
) (*ListAuditEntriesOutput, error) {
	entries := h.trail.Entries(audit.Filter{
		Event:    audit.Event(input.Event),
		UserID:   input.UserID,
		DateFrom: input.From,
		DateTo:   input.To,
		Limit:    input.Limit,
	})

	resp := &ListAuditEntriesOutput{}
	resp.Body.Entries = entries
	resp.Body.Total = len(entries)
	return resp, nil
}

// AuditMetrics returns aggregate performance metrics derived from the trail.
func (h *AuditHandler) AuditMetrics(
	_ context.Context,
	_ *struct{},
) (*AuditMetricsOutput, error) {
	return &AuditMetricsOutput{Body: h.trail.Metrics()}, nil
}

// ExportAudit returns the full trail as JSON or CSV.
func (h *AuditHandler) ExportAudit(
	_ context.Context,
	input *ExportAuditInput,
) (*ExportAuditOutput, error) {
	switch input.Format {
	case "csv":
		data, err := h.trail.ExportCSV()
		if err != nil {
			return nil, huma.Error500InternalServerError("audit export failed: " + err.Error())
		}
		return &ExportAuditOutput{ContentType: "text/csv", Body: data}, nil
	default:
		data, err := h.trail.ExportJSON()
		if err != nil {
			return nil, huma.Error500InternalServerError("audit export failed: " + err.Error())
		}
		return &ExportAuditOutput{ContentType: "application/json", Body: data}, nil
	}
}

// RegisterAuditRoutes registers audit endpoints with the Huma API.
func RegisterAuditRoutes(api huma.API, h *AuditHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-entries",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit/entries",
		Summary:     "List audit entries",
		Description: "Returns audit trail entries newest first, with optional event, user, and date filters.",
		Tags:        []string{"audit"},
	}, h.ListAuditEntries)

	huma.Register(api, huma.Operation{
		OperationID: "audit-metrics",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit/metrics",
		Summary:     "Get audit performance metrics",
		Description: "Returns success rate, average processing time, and per-day statistics derived from the trail.",
		Tags:        []string{"audit"},
	}, h.AuditMetrics)

	huma.Register(api, huma.Operation{
		OperationID: "export-audit",
		Method:      http.MethodGet,
		Path:        "/api/v1/audit/export",
		Summary:     "Export the audit trail",
		Description: "Returns every retained audit entry as JSON or CSV.",
		Tags:        []string{"audit"},
	}, h.ExportAudit)
}
