package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// PredictorFallbackRate returns a timeseries panel showing remote predictor
// fallbacks per minute.
func PredictorFallbackRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Fallbacks / min").
		Description("Remote predictor failures falling back to the heuristic, per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`rate(vvt_predictor_fallbacks_total{job="vehicle-valuator"}[5m]) * 60`,
			"fallbacks/min", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// PredictorFallbacks24h returns a stat panel showing fallbacks in the past
// 24 hours.
func PredictorFallbacks24h() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Fallbacks (24h)").
		Description("Remote predictor fallbacks in the last 24 hours").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`increase(vvt_predictor_fallbacks_total{job="vehicle-valuator"}[24h])`,
			"", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(10, 100)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
