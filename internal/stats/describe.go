package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const DefaultHistogramBins = 30

// GroupDescription holds descriptive statistics of a group's converted flag
// (1 for converted, 0 otherwise).
type GroupDescription struct {
	Label  string
	Mean   float64
	Median float64
	StdDev float64 // Sample standard deviation, 0 for a single visitor
	Min    float64
	Max    float64
}

// Describe computes descriptive statistics for both groups of s.
func Describe(records []VisitorRecord, s *Summary) []GroupDescription {
	values := map[string][]float64{
		s.Control.Label:   make([]float64, 0, s.Control.Visitors),
		s.Treatment.Label: make([]float64, 0, s.Treatment.Visitors),
	}
	for _, r := range records {
		v := 0.0
		if r.Converted {
			v = 1
		}
		values[r.Group] = append(values[r.Group], v)
	}

	out := make([]GroupDescription, 0, 2)
	for _, g := range []GroupSummary{s.Control, s.Treatment} {
		out = append(out, describeGroup(g, values[g.Label]))
	}
	return out
}

func describeGroup(g GroupSummary, x []float64) GroupDescription {
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		std = 0
	}
	return GroupDescription{
		Label:  g.Label,
		Mean:   mean,
		Median: binaryMedian(g.Conversions, g.Visitors),
		StdDev: std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
	}
}

// binaryMedian is the median of a 0/1 sample, averaging the two middle
// values when they differ.
func binaryMedian(ones, n int) float64 {
	zeros := n - ones
	switch {
	case ones > zeros:
		return 1
	case ones < zeros:
		return 0
	default:
		return 0.5
	}
}

// HistogramBin is one bar of the null-distribution histogram
type HistogramBin struct {
	Lower float64
	Upper float64
	Count int
}

// NullSummary condenses a simulated null distribution for display.
type NullSummary struct {
	Mean         float64
	StdDev       float64
	CriticalDiff float64 // Smallest difference in the rejection region at the threshold
	Histogram    []HistogramBin
}

// SummarizeNull computes the mean, spread, critical difference and
// histogram of the simulated differences.
func SummarizeNull(diffs []float64, threshold float64, bins int) NullSummary {
	if len(diffs) == 0 {
		return NullSummary{}
	}
	if bins < 1 {
		bins = DefaultHistogramBins
	}

	sorted := make([]float64, len(diffs))
	copy(sorted, diffs)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}

	return NullSummary{
		Mean:         mean,
		StdDev:       std,
		CriticalDiff: stat.Quantile(1-threshold, stat.Empirical, sorted, nil),
		Histogram:    histogram(sorted, bins),
	}
}

func histogram(sorted []float64, bins int) []HistogramBin {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []HistogramBin{{Lower: lo, Upper: hi, Count: len(sorted)}}
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// The last bin is closed on the right.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	out := make([]HistogramBin, bins)
	for i, c := range counts {
		out[i] = HistogramBin{Lower: dividers[i], Upper: dividers[i+1], Count: int(c)}
	}
	out[bins-1].Upper = hi
	return out
}
