package main

import "errors"

// KnownMetrics is the set of metric names exported by vehicle-valuator
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"vvt_http_request_duration_seconds": true,
	"vvt_http_requests_total":           true,

	// Health metrics.
	"vvt_healthz_up": true,
	"vvt_readyz_up":  true,

	// Valuation pipeline metrics.
	"vvt_valuations_total":           true,
	"vvt_valuation_duration_seconds": true,
	"vvt_batch_size":                 true,
	"vvt_confidence_distribution":    true,

	// Market data source metrics.
	"vvt_source_fetches_total":          true,
	"vvt_source_fetch_duration_seconds": true,
	"vvt_source_daily_usage":            true,

	// Predictor metrics.
	"vvt_predictor_fallbacks_total": true,

	// Audit and notification metrics.
	"vvt_audit_entries_total":           true,
	"vvt_webhook_deliveries_total":      true,
	"vvt_notification_failures_total":   true,
	"vvt_notification_duration_seconds": true,

	// Recording rules.
	"vvt:http_requests:rate5m":    true,
	"vvt:http_errors:rate5m":      true,
	"vvt:valuations:rate5m":       true,
	"vvt:valuation_errors:rate5m": true,
	"vvt:source_errors:rate5m":    true,
	"vvt:webhook_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
