// Package cmd implements the CLI commands for the vehicle-valuator server.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vehicle-valuator",
	Short: "Vehicle valuation API server",
	Long:  "An API-first service that values used vehicles by aggregating comparable market listings, running a base value predictor, applying condition and mileage adjustments, and scoring the confidence of each result.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Root returns the root command, for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
