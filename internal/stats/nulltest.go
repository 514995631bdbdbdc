package stats

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultSimulations = 10000
	DefaultSeed        = 42
)

// chunkSize is the number of simulations drawn from one random stream.
// Chunk i always uses the stream seeded with (seed, i), which keeps the
// output independent of how chunks are spread over workers.
const chunkSize = 1024

// tieTolerance absorbs rounding so that differences that are equal on paper
// (e.g. 0.7-0.3 and 0.8-0.4) compare as ties. Runs at p_null 0 or 1 produce
// exact zeros and compare without it.
const tieTolerance = 1e-14

// Tail selects which simulated differences count toward the p-value.
type Tail int

const (
	TailInclusive Tail = iota // simulated >= observed
	TailStrict                // simulated > observed
)

func (t Tail) String() string {
	switch t {
	case TailInclusive:
		return "inclusive"
	case TailStrict:
		return "strict"
	default:
		return fmt.Sprintf("Tail(%d)", int(t))
	}
}

// ParseTail accepts "inclusive" (or ">=") and "strict" (or ">").
func ParseTail(s string) (Tail, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inclusive", ">=":
		return TailInclusive, nil
	case "strict", ">":
		return TailStrict, nil
	}
	return 0, &InvalidParameterError{Param: "tail", Value: s, Reason: `must be "inclusive" or "strict"`}
}

func (t Tail) includes(simulated, observed, tolerance float64) bool {
	if t == TailStrict {
		return simulated > observed+tolerance
	}
	return simulated >= observed-tolerance
}

// NullTestParams are the inputs of RunNullTest.
type NullTestParams struct {
	PNull       float64 // Success probability shared by both groups under the null
	NControl    int
	NTreatment  int
	ObsDiff     float64 // Observed treatment rate minus control rate
	Simulations int
	Seed        uint64
	Workers     int // 0 or 1 runs sequentially
	Tail        Tail
}

// Validate checks every parameter against its domain. Nothing is clamped.
func (p NullTestParams) Validate() error {
	if p.Simulations <= 0 {
		return &InvalidParameterError{Param: "simulations", Value: p.Simulations, Reason: "must be positive"}
	}
	if math.IsNaN(p.PNull) || p.PNull < 0 || p.PNull > 1 {
		return &InvalidParameterError{Param: "p_null", Value: p.PNull, Reason: "must be in [0, 1]"}
	}
	if err := validateSize("n_control", p.NControl); err != nil {
		return err
	}
	if err := validateSize("n_treatment", p.NTreatment); err != nil {
		return err
	}
	if math.IsNaN(p.ObsDiff) || math.IsInf(p.ObsDiff, 0) {
		return &InvalidParameterError{Param: "obs_diff", Value: p.ObsDiff, Reason: "must be a finite number"}
	}
	if p.Workers < 0 {
		return &InvalidParameterError{Param: "workers", Value: p.Workers, Reason: "must not be negative"}
	}
	if p.Tail != TailInclusive && p.Tail != TailStrict {
		return &InvalidParameterError{Param: "tail", Value: p.Tail, Reason: "unknown tail rule"}
	}
	return nil
}

func validateSize(name string, n int) error {
	if n < 0 {
		return &InvalidParameterError{Param: name, Value: n, Reason: "must not be negative"}
	}
	if n == 0 {
		return &InvalidParameterError{Param: name, Value: n, Reason: "sample mean over zero trials is undefined"}
	}
	return nil
}

// RunNullTest simulates the distribution of treatment-minus-control rate
// differences when both groups convert with probability PNull, then returns
// the fraction of simulated differences in the right tail of ObsDiff.
//
// With PNull 0 or 1 every simulated difference is exactly 0, so the p-value
// is 0 for any positive ObsDiff and 1 otherwise.
//
// Each call builds its own random streams from Seed, so identical params
// always produce identical differences and p-value, for any worker count.
func RunNullTest(p NullTestParams) (*NullSimulationResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	diffs := make([]float64, p.Simulations)
	chunks := (p.Simulations + chunkSize - 1) / chunkSize

	workers := max(p.Workers, 1)
	workers = min(workers, chunks)

	if workers == 1 {
		for c := 0; c < chunks; c++ {
			p.simulateChunk(diffs, c)
		}
	} else {
		var g errgroup.Group
		for w := 0; w < workers; w++ {
			g.Go(func() error {
				// Chunks write to disjoint ranges of diffs.
				for c := w; c < chunks; c += workers {
					p.simulateChunk(diffs, c)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	tolerance := tieTolerance
	if p.PNull == 0 || p.PNull == 1 {
		tolerance = 0
	}

	return &NullSimulationResult{
		Differences:  diffs,
		ObservedDiff: p.ObsDiff,
		PValue:       tailFraction(diffs, p.ObsDiff, p.Tail, tolerance),
	}, nil
}

func (p NullTestParams) simulateChunk(diffs []float64, chunk int) {
	start := chunk * chunkSize
	end := min(start+chunkSize, len(diffs))

	src := pcgSource{rand.NewPCG(p.Seed, uint64(chunk))}
	nc := float64(p.NControl)
	nt := float64(p.NTreatment)

	for i := start; i < end; i++ {
		control, treatment := drawPair(src, p.PNull, p.NControl, p.NTreatment)
		diffs[i] = float64(treatment)/nt - float64(control)/nc
	}
}

// TailFraction returns the share of simulated differences that lie in the
// right tail of observed under the given rule.
func TailFraction(diffs []float64, observed float64, tail Tail) float64 {
	return tailFraction(diffs, observed, tail, tieTolerance)
}

func tailFraction(diffs []float64, observed float64, tail Tail, tolerance float64) float64 {
	if len(diffs) == 0 {
		return 0
	}
	n := 0
	for _, d := range diffs {
		if tail.includes(d, observed, tolerance) {
			n++
		}
	}
	return float64(n) / float64(len(diffs))
}

// pcgSource feeds a PCG stream seeded with two words to the gonum samplers.
type pcgSource struct {
	pcg *rand.PCG
}

func (s pcgSource) Uint64() uint64 { return s.pcg.Uint64() }

func (s pcgSource) Seed(seed uint64) { s.pcg.Seed(seed, 0) }

// drawPair draws one synthetic control sample and one synthetic treatment
// sample in a single call and returns their success counts.
func drawPair(src pcgSource, p float64, nControl, nTreatment int) (control, treatment int) {
	return binomial(src, nControl, p), binomial(src, nTreatment, p)
}

func binomial(src pcgSource, n int, p float64) int {
	switch p {
	case 0:
		return 0
	case 1:
		return n
	}
	return int(distuv.Binomial{N: float64(n), P: p, Src: src}.Rand())
}
