package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/sirupsen/logrus"
	"github.com/splitcheck/splitcheck/internal/logger"
	"github.com/splitcheck/splitcheck/internal/report"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		flags           analysisFlags
		format          string
		withDifferences bool
		pickGroups      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Test whether treatment converts better than control",
		Long: `Aggregate the dataset per group, simulate the null distribution of the
conversion-rate difference at the pooled rate and report the p-value.

Without a path the configured dataset is used.

Examples:
  splitcheck analyze ab_data.csv
  splitcheck analyze experiment.db --simulations 50000 --workers 4
  splitcheck analyze ab_data.csv --format json --with-differences`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format, "text", "json"); err != nil {
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

			if pickGroups {
				opts.ControlLabel, opts.TreatmentLabel, err = promptGroups(stats.Labels(records))
				if err != nil {
					return err
				}
			}

			result, err := stats.Analyze(records, opts)
			if err != nil {
				return fmt.Errorf("analysis of %s failed: %w", path, err)
			}

			runID := uuid.NewString()
			logger.Log.WithFields(logrus.Fields{
				"run_id":      runID,
				"dataset":     path,
				"records":     len(records),
				"simulations": opts.Simulations,
				"p_value":     result.Null.PValue,
			}).Info("analysis complete")

			rep := report.New(runID, result, opts, withDifferences)
			if format == "json" {
				return report.WriteJSON(cmd.OutOrStdout(), rep)
			}
			return report.WriteText(cmd.OutOrStdout(), rep)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text or json)")
	cmd.Flags().BoolVar(&withDifferences, "with-differences", false, "include simulated differences in JSON output")
	cmd.Flags().BoolVar(&pickGroups, "pick-groups", false, "choose which of the two group labels is control (datasets must have exactly two labels)")

	return cmd
}

// promptGroups asks which of the two labels is the control group. Datasets
// with any other number of labels are refused before prompting.
func promptGroups(labels []string) (control, treatment string, err error) {
	switch {
	case len(labels) < 2:
		return "", "", &stats.DegenerateInputError{Reason: fmt.Sprintf("found %d group label(s), need two", len(labels))}
	case len(labels) > 2:
		return "", "", &stats.AggregationError{
			Group:  labels[2],
			Reason: fmt.Sprintf("found %d group labels %q, only two groups are supported", len(labels), labels),
		}
	}

	control, err = selectLabel("Control group", labels)
	if err != nil {
		return "", "", err
	}

	treatment = labels[0]
	if treatment == control {
		treatment = labels[1]
	}
	return control, treatment, nil
}

func selectLabel(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  min(len(items), 10),
	}

	_, choice, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}
	return choice, nil
}
