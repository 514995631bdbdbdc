package cli

import (
	"fmt"

	"github.com/splitcheck/splitcheck/internal/report"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		flags  analysisFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export the simulated null distribution",
		Long: `Run the analysis and export every simulated difference in CSV or JSON
format, for plotting or checking elsewhere.

Examples:
  splitcheck export ab_data.csv --format csv > null.csv
  splitcheck export ab_data.csv --format json > null.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format, "csv", "json"); err != nil {
				return err
			}

			opts := a.cfg.Options()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}

			path := a.datasetPath(args)
			records, err := a.loadRecords(cmd, path)
			if err != nil {
				return err
			}

			result, err := stats.Analyze(records, opts)
			if err != nil {
				return fmt.Errorf("analysis of %s failed: %w", path, err)
			}

			if format == "csv" {
				return report.WriteDifferencesCSV(cmd.OutOrStdout(), result.Null.Differences)
			}
			return report.WriteDifferencesJSON(cmd.OutOrStdout(), result.Null)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv or json)")

	return cmd
}
