package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "vvt-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "vvt-recording",
					Rules: []Rule{
						{
							Record: "vvt:http_requests:rate5m",
							Expr:   `sum(rate(vvt_http_requests_total[5m]))`,
						},
						{
							Record: "vvt:http_errors:rate5m",
							Expr:   `sum(rate(vvt_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "vvt:valuations:rate5m",
							Expr:   `sum(rate(vvt_valuations_total[5m]))`,
						},
						{
							Record: "vvt:valuation_errors:rate5m",
							Expr:   `sum(rate(vvt_valuations_total{status="error"}[5m]))`,
						},
						{
							Record: "vvt:source_errors:rate5m",
							Expr:   `sum(rate(vvt_source_fetches_total{status="error"}[5m]))`,
						},
						{
							Record: "vvt:webhook_failures:rate5m",
							Expr:   `sum(rate(vvt_webhook_deliveries_total{status="error"}[5m]))`,
						},
					},
				},
			},
		},
	}
}
