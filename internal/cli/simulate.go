package cli

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/splitcheck/splitcheck/internal/logger"
	"github.com/splitcheck/splitcheck/internal/report"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/spf13/cobra"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		flags           analysisFlags
		params          stats.NullTestParams
		format          string
		withDifferences bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the null-distribution simulator directly",
		Long: `Simulate differences in conversion rate between two groups that share
the rate --p-null, and report how often they reach --obs-diff.

Example:
  splitcheck simulate --p-null 0.1196 --n-control 145274 --n-treatment 145310 --obs-diff -0.0016`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format, "text", "json"); err != nil {
				return err
			}

			opts := a.cfg.Options()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			if err := stats.ValidateThreshold(opts.Threshold); err != nil {
				return err
			}

			params.Simulations = opts.Simulations
			params.Seed = opts.Seed
			params.Workers = opts.Workers
			params.Tail = opts.Tail

			result, err := stats.RunNullTest(params)
			if err != nil {
				return err
			}

			rep := report.NewNullTest(uuid.NewString(), params, result, opts.Threshold, withDifferences)
			logger.Log.WithFields(logrus.Fields{
				"run_id":      rep.RunID,
				"simulations": params.Simulations,
				"p_value":     rep.PValue,
			}).Info("null test complete")

			if format == "json" {
				return report.WriteJSON(cmd.OutOrStdout(), rep)
			}
			return report.WriteNullTestText(cmd.OutOrStdout(), rep)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().Float64Var(&params.PNull, "p-null", 0, "shared conversion rate under the null hypothesis (required)")
	cmd.Flags().IntVar(&params.NControl, "n-control", 0, "control group size (required)")
	cmd.Flags().IntVar(&params.NTreatment, "n-treatment", 0, "treatment group size (required)")
	cmd.Flags().Float64Var(&params.ObsDiff, "obs-diff", 0, "observed treatment minus control rate")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text or json)")
	cmd.Flags().BoolVar(&withDifferences, "with-differences", false, "include simulated differences in JSON output")
	cmd.MarkFlagRequired("p-null")
	cmd.MarkFlagRequired("n-control")
	cmd.MarkFlagRequired("n-treatment")

	return cmd
}
