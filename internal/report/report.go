package report

import (
	"github.com/splitcheck/splitcheck/internal/stats"
)

// Report is the serializable form of one analysis run
type Report struct {
	RunID            string           `json:"run_id"`
	Groups           []Group          `json:"groups"`
	TotalVisitors    int              `json:"total_visitors"`
	TotalConversions int              `json:"total_conversions"`
	GlobalRate       float64          `json:"global_rate"`
	ObservedDiff     float64          `json:"observed_diff"`
	Simulations      int              `json:"simulations"`
	Seed             uint64           `json:"seed"`
	Tail             string           `json:"tail"`
	PValue           float64          `json:"p_value"`
	ZTestPValue      float64          `json:"z_test_p_value"`
	Threshold        float64          `json:"significance_threshold"`
	Significant      bool             `json:"significant"`
	Verdict          string           `json:"verdict"`
	Null             NullDistribution `json:"null_distribution"`
	Differences      []float64        `json:"differences,omitempty"`
}

type Group struct {
	Label       string  `json:"label"`
	Visitors    int     `json:"visitors"`
	Conversions int     `json:"conversions"`
	Rate        float64 `json:"rate"`
	Share       float64 `json:"share"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	StdDev      float64 `json:"std_dev"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

type NullDistribution struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	CriticalDiff float64 `json:"critical_diff"`
	Histogram    []Bin   `json:"histogram"`
}

type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// New builds a report from an analysis result. The simulated differences
// are only attached when withDifferences is set.
func New(runID string, r *stats.Result, opts stats.Options, withDifferences bool) *Report {
	s := r.Summary

	groups := make([]Group, 0, 2)
	for i, g := range []stats.GroupSummary{s.Control, s.Treatment} {
		d := r.Groups[i]
		groups = append(groups, Group{
			Label:       g.Label,
			Visitors:    g.Visitors,
			Conversions: g.Conversions,
			Rate:        g.Rate,
			Share:       g.Share(s.TotalVisitors),
			Mean:        d.Mean,
			Median:      d.Median,
			StdDev:      d.StdDev,
			Min:         d.Min,
			Max:         d.Max,
		})
	}

	bins := make([]Bin, len(r.NullSummary.Histogram))
	for i, b := range r.NullSummary.Histogram {
		bins[i] = Bin{Lower: b.Lower, Upper: b.Upper, Count: b.Count}
	}

	rep := &Report{
		RunID:            runID,
		Groups:           groups,
		TotalVisitors:    s.TotalVisitors,
		TotalConversions: s.TotalConversions,
		GlobalRate:       s.GlobalRate,
		ObservedDiff:     r.Null.ObservedDiff,
		Simulations:      len(r.Null.Differences),
		Seed:             opts.Seed,
		Tail:             opts.Tail.String(),
		PValue:           r.Null.PValue,
		ZTestPValue:      r.ZTestPValue,
		Threshold:        r.Decision.Threshold,
		Significant:      r.Decision.Significant,
		Verdict:          r.Decision.Label,
		Null: NullDistribution{
			Mean:         r.NullSummary.Mean,
			StdDev:       r.NullSummary.StdDev,
			CriticalDiff: r.NullSummary.CriticalDiff,
			Histogram:    bins,
		},
	}
	if withDifferences {
		rep.Differences = r.Null.Differences
	}
	return rep
}

// NullTest is the serializable form of a bare simulator run
type NullTest struct {
	RunID        string    `json:"run_id"`
	PNull        float64   `json:"p_null"`
	NControl     int       `json:"n_control"`
	NTreatment   int       `json:"n_treatment"`
	ObservedDiff float64   `json:"observed_diff"`
	Simulations  int       `json:"simulations"`
	Seed         uint64    `json:"seed"`
	Tail         string    `json:"tail"`
	PValue       float64   `json:"p_value"`
	Significant  bool      `json:"significant"`
	Verdict      string    `json:"verdict"`
	Differences  []float64 `json:"differences,omitempty"`
}

// NewNullTest builds a report for a direct simulator run.
func NewNullTest(runID string, p stats.NullTestParams, r *stats.NullSimulationResult, threshold float64, withDifferences bool) *NullTest {
	d := stats.Decide(r.PValue, threshold)
	rep := &NullTest{
		RunID:        runID,
		PNull:        p.PNull,
		NControl:     p.NControl,
		NTreatment:   p.NTreatment,
		ObservedDiff: r.ObservedDiff,
		Simulations:  len(r.Differences),
		Seed:         p.Seed,
		Tail:         p.Tail.String(),
		PValue:       r.PValue,
		Significant:  d.Significant,
		Verdict:      d.Label,
	}
	if withDifferences {
		rep.Differences = r.Differences
	}
	return rep
}
