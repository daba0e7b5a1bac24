package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	apiclient "github.com/gavincooper/vehicle-valuator/internal/api/client"
	"github.com/gavincooper/vehicle-valuator/internal/audit"
	"github.com/gavincooper/vehicle-valuator/internal/store"
	"github.com/gavincooper/vehicle-valuator/pkg/adjust"
	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printValuationsTable(valuations []domain.ValuationResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tVALUE\tRANGE\tCONFIDENCE\tMETHOD\tWHEN\n")
	for i := range valuations {
		v := &valuations[i]
		tw.writef("%s\t$%.0f\t$%.0f-$%.0f\t%.0f\t%s\t%s\n",
			v.ID,
			v.EstimatedValue,
			v.PriceRange[0],
			v.PriceRange[1],
			v.ConfidenceScore,
			v.ValuationMethod,
			v.Metadata.Timestamp.Format("2006-01-02 15:04"),
		)
	}
	return tw.finish()
}

func printValuationDetail(w io.Writer, v *domain.ValuationResult) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", v.ID)
	tw.writef("Estimated Value:\t$%.0f\n", v.EstimatedValue)
	tw.writef("Price Range:\t$%.0f - $%.0f\n", v.PriceRange[0], v.PriceRange[1])
	tw.writef("Confidence:\t%.0f/100\n", v.ConfidenceScore)
	tw.writef("Method:\t%s\n", v.ValuationMethod)
	tw.writef("Base Value:\t$%.0f (%s)\n", v.BaseValuation.Value, v.BaseValuation.Source)
	tw.writef("Position:\t%s\n", v.MarketInsights.CompetitivePosition)
	tw.writef("Comparables:\t%d listings, avg $%.0f\n",
		v.MarketInsights.ListingCount,
		v.MarketInsights.AvgMarketplacePrice,
	)
	for i := range v.Adjustments {
		a := &v.Adjustments[i]
		tw.writef("Adjustment:\t%s %+.0f (%s)\n", a.Factor, a.Impact, a.Description)
	}
	if len(v.Adjustments) > 0 {
		summary := adjust.Summarize(v.Adjustments)
		tw.writef("Total Adjustment:\t%+.0f (%d up, %d down)\n",
			v.TotalAdjustment(), len(summary.Positive), len(summary.Negative))

		categories := make([]string, 0, len(summary.CategoryBreakdown))
		for category := range summary.CategoryBreakdown {
			categories = append(categories, string(category))
		}
		sort.Strings(categories)
		for _, category := range categories {
			tw.writef("  %s:\t%+.0f\n",
				category, summary.CategoryBreakdown[domain.AdjustmentCategory(category)])
		}
	}
	for _, r := range v.Confidence.Recommendations {
		tw.writef("Note:\t%s\n", r)
	}
	tw.writef("Valued At:\t%s\n", v.Metadata.Timestamp.Format("2006-01-02 15:04:05"))
	return tw.finish()
}

func printAuditEntriesTable(entries []audit.Entry) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("TIME\tEVENT\tVIN\tUSER\tMS\tERROR\n")
	for i := range entries {
		e := &entries[i]
		tw.writef("%s\t%s\t%s\t%s\t%.0f\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Event,
			e.Vehicle.VIN,
			e.UserID,
			e.ProcessingTimeMS,
			truncate(e.Error, 40),
		)
	}
	return tw.finish()
}

func printAuditMetrics(m *audit.PerformanceMetrics) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Total Valuations:\t%d\n", m.TotalValuations)
	tw.writef("Success Rate:\t%.1f%%\n", m.SuccessRate)
	tw.writef("Error Rate:\t%.1f%%\n", m.ErrorRate)
	tw.writef("Avg Processing:\t%.0f ms\n", m.AverageProcessingTime)
	tw.writef("Avg Confidence:\t%.1f\n", m.AverageConfidenceScore)
	for _, d := range m.DailyStats {
		tw.writef("%s:\t%d valuations, %.1f%% ok, avg confidence %.1f\n",
			d.Date, d.Valuations, d.SuccessRate, d.AvgConfidence)
	}
	return tw.finish()
}

func printPredictorInfo(p *apiclient.PredictorInfoResponse) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Model:\t%s\n", p.Model.Name)
	tw.writef("Version:\t%s\n", p.Model.Version)
	tw.writef("Accuracy:\t%.2f\n", p.Model.Accuracy)
	tw.writef("Trained:\t%s\n", p.Model.TrainingDate)
	tw.writef("Ready:\t%v\n", p.Ready)
	return tw.finish()
}

func printStats(s *store.ValuationStats) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Total Valuations:\t%d\n", s.Total)
	tw.writef("Distinct Vehicles:\t%d\n", s.DistinctVINs)
	tw.writef("Avg Value:\t$%.0f\n", s.AvgValue)
	tw.writef("Avg Confidence:\t%.1f\n", s.AvgConfidence)
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
