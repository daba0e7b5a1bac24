// Package validate checks generated dashboards for PromQL errors and
// references to metrics the service does not export.
package validate

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation findings for one dashboard.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors.
func (r Result) Ok() bool { return len(r.Errors) == 0 }

// Dashboard validates every Prometheus target expression in the dashboard:
// each must parse as PromQL and reference only metrics in knownMetrics.
func Dashboard(dash dashboard.Dashboard, knownMetrics map[string]bool) Result {
	var res Result

	for _, p := range dash.Panels {
		if p.Panel != nil {
			validatePanel(*p.Panel, knownMetrics, &res)
		}
		if p.RowPanel != nil {
			for _, inner := range p.RowPanel.Panels {
				validatePanel(inner, knownMetrics, &res)
			}
		}
	}

	return res
}

func validatePanel(p dashboard.Panel, knownMetrics map[string]bool, res *Result) {
	title := "untitled"
	if p.Title != nil && *p.Title != "" {
		title = *p.Title
	}

	if len(p.Targets) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no targets", title))
		return
	}

	for _, t := range p.Targets {
		expr := targetExpr(t)
		if expr == "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("panel %q has a non-Prometheus or empty target", title))
			continue
		}
		validateExpr(title, expr, knownMetrics, res)
	}
}

func targetExpr(t any) string {
	switch q := t.(type) {
	case prometheus.Dataquery:
		return q.Expr
	case *prometheus.Dataquery:
		return q.Expr
	default:
		return ""
	}
}

func validateExpr(title, expr string, knownMetrics map[string]bool, res *Result) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors,
			fmt.Sprintf("panel %q: invalid PromQL %q: %v", title, expr, err))
		return
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !metricKnown(vs.Name, knownMetrics) {
			res.Errors = append(res.Errors,
				fmt.Sprintf("panel %q references unknown metric %q", title, vs.Name))
		}
		return nil
	})
}

// metricKnown accepts histogram series suffixes for known base metrics.
func metricKnown(name string, knownMetrics map[string]bool) bool {
	if knownMetrics[name] {
		return true
	}
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if base, found := strings.CutSuffix(name, suffix); found && knownMetrics[base] {
			return true
		}
	}
	return false
}
