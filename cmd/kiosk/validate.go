package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/kiosk/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [catalog]",
	Short: "Check the catalog for problems",
	Long:  `Parses the catalog strictly and reports unpriced products, malformed prices and broken reviews.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := optionsFrom(cmd)
		if len(args) > 0 {
			opts.CatalogPath = args[0]
		}

		report, err := cli.Validate(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		cli.PrintReport(cmd.OutOrStdout(), report)
		if !report.OK() {
			return fmt.Errorf("found %d issue(s)", len(report.Issues))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
