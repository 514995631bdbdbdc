package stats

import "math"

// DefaultSignificanceThreshold is the p-value below which a result is
// reported as significant.
const DefaultSignificanceThreshold = 0.05

const (
	LabelSignificant    = "statistically significant"
	LabelNotSignificant = "not significant"
)

// Decision is the verdict for a p-value at a fixed threshold
type Decision struct {
	Significant bool
	Threshold   float64
	Label       string
}

// Decide applies the rule p < threshold.
func Decide(pValue, threshold float64) Decision {
	if pValue < threshold {
		return Decision{Significant: true, Threshold: threshold, Label: LabelSignificant}
	}
	return Decision{Significant: false, Threshold: threshold, Label: LabelNotSignificant}
}

// ValidateThreshold rejects thresholds outside (0, 1).
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
		return &InvalidParameterError{Param: "significance_threshold", Value: threshold, Reason: "must be in (0, 1)"}
	}
	return nil
}
