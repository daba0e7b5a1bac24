package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SourceFetchRate returns a timeseries panel showing vendor fetches per
// second, broken down by source.
func SourceFetchRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Source Fetch Rate").
		Description("Market data fetches per second by source").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(vvt_source_fetches_total{job="vehicle-valuator"}[5m])) by (source)`,
			"{{source}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SourceLatency returns a timeseries panel showing the p95 vendor fetch
// duration, broken down by source.
func SourceLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Source Latency (p95)").
		Description("95th percentile vendor fetch duration by source").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(vvt_source_fetch_duration_seconds_bucket{job="vehicle-valuator"}[5m])) by (le, source))`,
			"{{source}}",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SourceDailyUsage returns a timeseries panel showing rolling daily vendor
// API usage by source.
func SourceDailyUsage() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Daily API Usage").
		Description("Vendor API calls within the rolling 24-hour window").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`vvt_source_daily_usage{job="vehicle-valuator"}`,
			"{{source}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
