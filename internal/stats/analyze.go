package stats

// Options configures a full analysis run
type Options struct {
	ControlLabel   string
	TreatmentLabel string
	Simulations    int
	Seed           uint64
	Threshold      float64
	Workers        int
	Tail           Tail
	HistogramBins  int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ControlLabel:   DefaultControlLabel,
		TreatmentLabel: DefaultTreatmentLabel,
		Simulations:    DefaultSimulations,
		Seed:           DefaultSeed,
		Threshold:      DefaultSignificanceThreshold,
		Workers:        1,
		Tail:           TailInclusive,
		HistogramBins:  DefaultHistogramBins,
	}
}

// Result represents the statistical analysis of an experiment
type Result struct {
	Summary     *Summary
	Null        *NullSimulationResult
	NullSummary NullSummary
	Decision    Decision
	ZTestPValue float64
	Groups      []GroupDescription
}

// Analyze aggregates records, simulates the null distribution at the pooled
// rate and applies the significance threshold.
func Analyze(records []VisitorRecord, opts Options) (*Result, error) {
	if err := ValidateThreshold(opts.Threshold); err != nil {
		return nil, err
	}

	summary, err := Summarize(records, opts.ControlLabel, opts.TreatmentLabel)
	if err != nil {
		return nil, err
	}

	null, err := RunNullTest(NullTestParams{
		PNull:       summary.GlobalRate,
		NControl:    summary.Control.Visitors,
		NTreatment:  summary.Treatment.Visitors,
		ObsDiff:     summary.ObservedDiff(),
		Simulations: opts.Simulations,
		Seed:        opts.Seed,
		Workers:     opts.Workers,
		Tail:        opts.Tail,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Summary:     summary,
		Null:        null,
		NullSummary: SummarizeNull(null.Differences, opts.Threshold, opts.HistogramBins),
		Decision:    Decide(null.PValue, opts.Threshold),
		ZTestPValue: ZTestPValue(summary),
		Groups:      Describe(records, summary),
	}, nil
}
