package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// vehicle-valuator operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "vvt-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "vvt-alerts",
					Rules: []Rule{
						{
							Alert: "VvtDown",
							Expr:  `absent(up{job="vehicle-valuator"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Vehicle Valuator is down",
								"description": "The vehicle-valuator job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "VvtReadinessDown",
							Expr:  `vvt_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Vehicle Valuator readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "VvtHighErrorRate",
							Expr:  `vvt:http_errors:rate5m / vvt:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on Vehicle Valuator",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "VvtValuationErrors",
							Expr:  `vvt:valuation_errors:rate5m / vvt:valuations:rate5m > 0.1`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Valuation error rate is elevated",
								"description": "More than 10% of valuations have been failing for the last 5 minutes.",
							},
						},
						{
							Alert: "VvtSourceFetchFailures",
							Expr:  `vvt:source_errors:rate5m > 0.1`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Market data source fetches are failing",
								"description": "Vendor API fetch failures are occurring at more than 0.1/s for the last 5 minutes.",
							},
						},
						{
							Alert: "VvtPredictorFallbacks",
							Expr:  `rate(vvt_predictor_fallbacks_total[5m]) > 0.1`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Remote predictor is falling back to the heuristic",
								"description": "The remote predictor has been failing and falling back at more than 0.1/s for the last 5 minutes.",
							},
						},
						{
							Alert: "VvtWebhookFailures",
							Expr:  `vvt:webhook_failures:rate5m > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Audit webhook deliveries are failing",
								"description": "Audit webhook delivery failures have been occurring for more than 5 minutes.",
							},
						},
						{
							Alert: "VvtNotificationFailures",
							Expr:  `increase(vvt_notification_failures_total[5m]) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more Discord notifications have failed to send.",
							},
						},
					},
				},
			},
		},
	}
}
