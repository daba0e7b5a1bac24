package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/bargauge"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ValuationRate returns a timeseries panel showing valuations per minute.
func ValuationRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Valuations / min").
		Description("Rate of completed valuations per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`vvt:valuations:rate5m * 60`, "valuations/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ValuationErrors returns a timeseries panel showing valuation errors per
// minute.
func ValuationErrors() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Errors / min").
		Description("Rate of failed valuations per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`vvt:valuation_errors:rate5m * 60`, "errors/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ValuationLatency returns a timeseries panel showing the p95 end-to-end
// valuation duration.
func ValuationLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Valuation Duration (p95)").
		Description("95th percentile end-to-end valuation duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(vvt_valuation_duration_seconds_bucket{job="vehicle-valuator"}[5m])) by (le))`,
			"p95",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ConfidenceDistribution returns a bar gauge panel showing the distribution
// of confidence scores across histogram buckets.
func ConfidenceDistribution() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Confidence Distribution").
		Description("Distribution of valuation confidence scores (0-100)").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(FullWidth).
		WithTarget(PromQuery(
			`sum(increase(vvt_confidence_distribution_bucket{job="vehicle-valuator"}[1h])) by (le)`,
			"{{le}}", "A",
		)).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}
