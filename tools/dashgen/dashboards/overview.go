// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/gavincooper/vehicle-valuator/tools/dashgen/panels"
)

// BuildOverview constructs the VVT Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("VVT Overview").
		Uid("vvt-overview").
		Tags([]string{"vvt", "vehicle-valuator"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.SuccessRateGauge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Valuations.
	b.WithRow(dashboard.NewRowBuilder("Valuations").
		WithPanel(panels.ValuationRate()).
		WithPanel(panels.ValuationErrors()).
		WithPanel(panels.ValuationLatency()).
		WithPanel(panels.ConfidenceDistribution()))

	// Row 4: Market Data Sources.
	b.WithRow(dashboard.NewRowBuilder("Market Data Sources").
		WithPanel(panels.SourceFetchRate()).
		WithPanel(panels.SourceLatency()).
		WithPanel(panels.SourceDailyUsage()))

	// Row 5: Predictor.
	b.WithRow(dashboard.NewRowBuilder("Predictor").
		WithPanel(panels.PredictorFallbackRate()).
		WithPanel(panels.PredictorFallbacks24h()))

	// Row 6: Audit.
	b.WithRow(dashboard.NewRowBuilder("Audit").
		WithPanel(panels.AuditEntriesRate()).
		WithPanel(panels.WebhookDeliveries()).
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
