package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/gavincooper/vehicle-valuator/internal/api/client"
)

func auditCmd() *cobra.Command {
	auditRoot := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the valuation audit trail",
		Long: "Inspect the server's audit trail: individual entries, derived\n" +
			"performance metrics, and full exports.",
	}

	auditRoot.AddCommand(
		auditEntriesCmd(),
		auditMetricsCmd(),
		auditExportCmd(),
	)

	return auditRoot
}

func auditEntriesCmd() *cobra.Command {
	var (
		event  string
		userID string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List audit entries",
		Example: `  # Show recent audit entries
  vvt audit entries --limit 20

  # Show only failed valuations
  vvt audit entries --event valuation_error`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.AuditEntries(context.Background(), &apiclient.AuditEntriesParams{
				Event:  event,
				UserID: userID,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Entries) == 0 {
				fmt.Println("No audit entries found.")
				return nil
			}
			return printAuditEntriesTable(resp.Entries)
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "filter by event (valuation_start, valuation_success, valuation_error)")
	cmd.Flags().StringVar(&userID, "user-id", "", "filter by user ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of entries")

	return cmd
}

func auditMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show audit performance metrics",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			m, err := c.AuditMetrics(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(m)
			}
			return printAuditMetrics(m)
		},
	}
}

func auditExportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the audit trail",
		Example: `  # Export as CSV to a file
  vvt audit export --format csv --out audit.csv

  # Export as JSON to stdout
  vvt audit export`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			data, err := c.ExportAudit(context.Background(), format)
			if err != nil {
				return err
			}

			if out == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec // export file
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Printf("Wrote %d bytes to %s\n", len(data), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "export format (json, csv)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")

	return cmd
}

func predictorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predictor",
		Short: "Show the server's predictor model info",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.PredictorInfo(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}
			return printPredictorInfo(resp)
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate valuation statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			stats, err := c.Stats(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(stats)
			}
			return printStats(stats)
		},
	}
}
