package cli

import (
	"fmt"

	"github.com/splitcheck/splitcheck/internal/dataset"
	"github.com/splitcheck/splitcheck/internal/stats"
	"github.com/spf13/cobra"
)

// analysisFlags override the analysis section of the config for one run.
// Only flags given on the command line take effect.
type analysisFlags struct {
	simulations int
	seed        uint64
	workers     int
	tail        string
	threshold   float64
	control     string
	treatment   string
}

func (f *analysisFlags) register(cmd *cobra.Command, withGroups bool) {
	flags := cmd.Flags()
	flags.IntVarP(&f.simulations, "simulations", "n", stats.DefaultSimulations, "number of null simulations")
	flags.Uint64Var(&f.seed, "seed", stats.DefaultSeed, "random seed")
	flags.IntVarP(&f.workers, "workers", "w", 1, "parallel simulation workers")
	flags.StringVar(&f.tail, "tail", stats.TailInclusive.String(), "tail rule (inclusive or strict)")
	flags.Float64Var(&f.threshold, "threshold", stats.DefaultSignificanceThreshold, "significance threshold")

	if withGroups {
		flags.StringVar(&f.control, "control", stats.DefaultControlLabel, "control group label")
		flags.StringVar(&f.treatment, "treatment", stats.DefaultTreatmentLabel, "treatment group label")
	}
}

func (f *analysisFlags) apply(cmd *cobra.Command, opts *stats.Options) error {
	flags := cmd.Flags()

	if flags.Changed("simulations") {
		opts.Simulations = f.simulations
	}
	if flags.Changed("seed") {
		opts.Seed = f.seed
	}
	if flags.Changed("workers") {
		opts.Workers = f.workers
	}
	if flags.Changed("threshold") {
		opts.Threshold = f.threshold
	}
	if flags.Changed("control") {
		opts.ControlLabel = f.control
	}
	if flags.Changed("treatment") {
		opts.TreatmentLabel = f.treatment
	}
	if flags.Changed("tail") {
		tail, err := stats.ParseTail(f.tail)
		if err != nil {
			return err
		}
		opts.Tail = tail
	}
	return nil
}

// datasetPath returns the path argument, or the configured dataset.
func (a *app) datasetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Dataset.Path
}

func (a *app) loadRecords(cmd *cobra.Command, path string) ([]stats.VisitorRecord, error) {
	records, err := dataset.Load(cmd.Context(), path, a.cfg.Dataset.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	return records, nil
}

func validateFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be '%s' or '%s'", format, allowed[0], allowed[1])
}
