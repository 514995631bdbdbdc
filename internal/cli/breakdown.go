package cli

import (
	"fmt"

	"github.com/splitcheck/splitcheck/internal/report"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/spf13/cobra"
)

func newBreakdownCmd(a *app) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "breakdown [path]",
		Short: "Show conversion rates per day or hour",
		Long: `Show visitors, conversions and conversion rate of every group per
calendar day or hour of day. Records without a timestamp are skipped.

Examples:
  splitcheck breakdown ab_data.csv
  splitcheck breakdown ab_data.csv --by hour`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var breakdown func([]stats.VisitorRecord) []stats.BucketRate
			switch by {
			case "day":
				breakdown = stats.DailyBreakdown
			case "hour":
				breakdown = stats.HourlyBreakdown
			default:
				return fmt.Errorf("invalid --by %q: must be 'day' or 'hour'", by)
			}

			records, err := a.loadRecords(cmd, a.datasetPath(args))
			if err != nil {
				return err
			}

			return report.WriteBreakdown(cmd.OutOrStdout(), by, breakdown(records))
		},
	}

	cmd.Flags().StringVar(&by, "by", "day", "bucket size (day or hour)")
	return cmd
}
