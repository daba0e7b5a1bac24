package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	domain "github.com/gavincooper/vehicle-valuator/pkg/types"
)

func valuateCmd() *cobra.Command {
	valuateRoot := valuateSingleCmd()
	valuateRoot.AddCommand(valuateBatchCmd())
	return valuateRoot
}

func valuateSingleCmd() *cobra.Command {
	var (
		vin       string
		makeName  string
		model     string
		year      int
		trim      string
		bodyType  string
		mileage   int
		condition string
		zipCode   string
		radius    int
		file      string
	)

	cmd := &cobra.Command{
		Use:   "valuate",
		Short: "Value a vehicle",
		Long: "Submit one vehicle for valuation. Vehicle details come from\n" +
			"flags, or from a JSON file with --file.",
		Example: `  # Value a vehicle from flags
  vvt valuate --vin 1HGCM82633A004352 --make Honda --model Accord \
    --year 2018 --mileage 72000 --condition good --zip 94103

  # Value a vehicle described in a JSON file
  vvt valuate --file vehicle.json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			var req domain.ValuationRequest
			if file != "" {
				data, err := os.ReadFile(file) //nolint:gosec // path from CLI flag
				if err != nil {
					return fmt.Errorf("reading vehicle file: %w", err)
				}
				if err := json.Unmarshal(data, &req); err != nil {
					return fmt.Errorf("parsing vehicle file: %w", err)
				}
			} else {
				req = domain.ValuationRequest{
					VIN:          vin,
					Make:         makeName,
					Model:        model,
					Year:         year,
					Trim:         trim,
					BodyType:     bodyType,
					Mileage:      mileage,
					Condition:    domain.Condition(condition),
					ZipCode:      zipCode,
					SearchRadius: radius,
				}
			}

			c := newClient()
			result, err := c.Valuate(context.Background(), &req)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(result)
			}
			return printValuationDetail(os.Stdout, result)
		},
	}

	cmd.Flags().StringVar(&vin, "vin", "", "vehicle identification number")
	cmd.Flags().StringVar(&makeName, "make", "", "vehicle make")
	cmd.Flags().StringVar(&model, "model", "", "vehicle model")
	cmd.Flags().IntVar(&year, "year", 0, "model year")
	cmd.Flags().StringVar(&trim, "trim", "", "trim level")
	cmd.Flags().StringVar(&bodyType, "body-type", "", "body type")
	cmd.Flags().IntVar(&mileage, "mileage", 0, "odometer reading in miles")
	cmd.Flags().StringVar(&condition, "condition", "good", "condition (excellent, very_good, good, fair, poor)")
	cmd.Flags().StringVar(&zipCode, "zip", "", "5-digit US ZIP code")
	cmd.Flags().IntVar(&radius, "radius", 0, "comparable search radius in miles")
	cmd.Flags().StringVar(&file, "file", "", "JSON file describing the vehicle")

	return cmd
}

func valuateBatchCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Value multiple vehicles from a JSON file",
		Long: "Submit a batch of vehicles for valuation. The file must contain\n" +
			"a JSON array of vehicle objects. Vehicles that fail validation\n" +
			"yield error placeholders without failing the batch.",
		Example: `  # Value every vehicle in fleet.json
  vvt valuate batch --file fleet.json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file) //nolint:gosec // path from CLI flag
			if err != nil {
				return fmt.Errorf("reading batch file: %w", err)
			}

			var reqs []domain.ValuationRequest
			if err := json.Unmarshal(data, &reqs); err != nil {
				return fmt.Errorf("parsing batch file: %w", err)
			}

			c := newClient()
			results, err := c.BatchValuate(context.Background(), reqs)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(results)
			}

			fmt.Printf("Valued %d vehicles\n\n", len(results))
			return printValuationsTable(results)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file with an array of vehicles")
	cobra.CheckErr(cmd.MarkFlagRequired("file"))

	return cmd
}
