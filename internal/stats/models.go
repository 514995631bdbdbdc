package stats

import "time"

const (
	DefaultControlLabel   = "control"
	DefaultTreatmentLabel = "treatment"
)

// VisitorRecord is one visitor of the experiment
type VisitorRecord struct {
	Group     string
	Converted bool
	Timestamp time.Time // Zero when the source has no timestamp column
}

// GroupSummary contains the counts for a single group
type GroupSummary struct {
	Label       string
	Visitors    int
	Conversions int
	Rate        float64
}

// Share returns the fraction of all visitors that belong to this group.
func (g GroupSummary) Share(total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(g.Visitors) / float64(total)
}

// Summary is the aggregated view of a record set
type Summary struct {
	Control          GroupSummary
	Treatment        GroupSummary
	TotalVisitors    int
	TotalConversions int
	GlobalRate       float64
}

// ObservedDiff returns treatment rate minus control rate.
func (s *Summary) ObservedDiff() float64 {
	return s.Treatment.Rate - s.Control.Rate
}

// NullSimulationResult holds the simulated null distribution of rate
// differences and where the observed difference falls in it.
type NullSimulationResult struct {
	Differences  []float64
	ObservedDiff float64
	PValue       float64
}
