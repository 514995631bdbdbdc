package stats

import (
	"errors"
	"fmt"
)

var (
	ErrAggregation      = errors.New("aggregation failed")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrDegenerateInput  = errors.New("degenerate input")
)

// AggregationError reports a group that cannot produce a conversion rate.
// When only one of the two groups has records the error also matches
// ErrDegenerateInput.
type AggregationError struct {
	Group      string
	Reason     string
	Degenerate bool
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("group %q: %s", e.Group, e.Reason)
}

func (e *AggregationError) Is(target error) bool {
	return target == ErrAggregation || (e.Degenerate && target == ErrDegenerateInput)
}

// InvalidParameterError reports a simulation input outside its domain.
type InvalidParameterError struct {
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Param, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// DegenerateInputError reports a dataset on which no comparison is possible.
type DegenerateInputError struct {
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return "degenerate input: " + e.Reason
}

func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}
