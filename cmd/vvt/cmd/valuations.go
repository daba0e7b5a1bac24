package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/gavincooper/vehicle-valuator/internal/api/client"
)

func valuationsCmd() *cobra.Command {
	valuationsRoot := &cobra.Command{
		Use:   "valuations",
		Short: "Query stored valuations",
		Long: "Query and inspect valuations persisted by the Vehicle Valuator\n" +
			"pipeline.",
	}

	valuationsRoot.AddCommand(
		valuationsListCmd(),
		valuationsGetCmd(),
	)

	return valuationsRoot
}

func valuationsListCmd() *cobra.Command {
	var (
		vin           string
		makeName      string
		model         string
		year          int
		method        string
		minConfidence float64
		limit         int
		offset        int
		orderBy       string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored valuations with optional filters",
		Example: `  # List recent valuations
  vvt valuations list

  # Filter by vehicle and minimum confidence
  vvt valuations list --make Honda --model Accord --min-confidence 70

  # Sort by estimated value with pagination
  vvt valuations list --order-by estimated_value --limit 20 --offset 40`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListValuations(context.Background(), &apiclient.ListValuationsParams{
				VIN:           vin,
				Make:          makeName,
				Model:         model,
				Year:          year,
				Method:        method,
				MinConfidence: minConfidence,
				Limit:         limit,
				Offset:        offset,
				OrderBy:       orderBy,
			})
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Valuations) == 0 {
				fmt.Println("No valuations found.")
				return nil
			}

			fmt.Printf("Showing %d of %d valuations\n\n", len(resp.Valuations), resp.Total)
			return printValuationsTable(resp.Valuations)
		},
	}

	cmd.Flags().StringVar(&vin, "vin", "", "filter by VIN")
	cmd.Flags().StringVar(&makeName, "make", "", "filter by make")
	cmd.Flags().StringVar(&model, "model", "", "filter by model")
	cmd.Flags().IntVar(&year, "year", 0, "filter by model year")
	cmd.Flags().StringVar(&method, "method", "", "filter by valuation method")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "minimum confidence score")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	cmd.Flags().StringVar(&orderBy, "order-by", "", "sort field (created_at, estimated_value, confidence)")

	return cmd
}

func valuationsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one stored valuation",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			result, err := c.GetValuation(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(result)
			}
			return printValuationDetail(os.Stdout, result)
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <vin>",
		Short: "Show the valuation history for a vehicle",
		Args:  cobra.ExactArgs(1),
		Example: `  # Show all stored valuations for a VIN, newest first
  vvt history 1HGCM82633A004352`,
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.VINHistory(context.Background(), args[0], limit)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Valuations) == 0 {
				fmt.Println("No valuations found for", resp.VIN)
				return nil
			}

			fmt.Printf("Valuation history for %s\n\n", resp.VIN)
			return printValuationsTable(resp.Valuations)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of results")

	return cmd
}
