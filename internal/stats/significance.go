package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ZTestPValue performs a one-sided two-proportion z-test.
// Returns the normal-approximation probability of a treatment-minus-control
// difference at least as large as the observed one if both groups shared
// the pooled rate. It is reported next to the simulated p-value as a
// closed-form cross-check.
func ZTestPValue(s *Summary) float64 {
	// Pooled proportion under null hypothesis (pT = pC)
	pooled := s.GlobalRate

	// Standard error of the difference
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(s.Control.Visitors) + 1/float64(s.Treatment.Visitors)))

	diff := s.ObservedDiff()
	if se == 0 {
		// Every visitor converted or none did; the difference is 0.
		if diff > 0 {
			return 0
		}
		return 1
	}

	z := diff / se
	return distuv.UnitNormal.Survival(z)
}
