package stats_test

import (
	"errors"
	"math"
	"testing"

	"github.com/splitcheck/splitcheck/internal/stats"
)

func scenarioParams() stats.NullTestParams {
	return stats.NullTestParams{
		PNull:       0.5,
		NControl:    10,
		NTreatment:  10,
		ObsDiff:     0.7 - 0.3,
		Simulations: 10000,
		Seed:        42,
	}
}

func TestRunNullTest_Length(t *testing.T) {
	for _, n := range []int{1, 7, 1024, 1025, 10000} {
		p := scenarioParams()
		p.Simulations = n

		result, err := stats.RunNullTest(p)
		if err != nil {
			t.Fatalf("simulations=%d: unexpected error: %v", n, err)
		}
		if len(result.Differences) != n {
			t.Errorf("simulations=%d: got %d differences", n, len(result.Differences))
		}
	}
}

func TestRunNullTest_Deterministic(t *testing.T) {
	first, err := stats.RunNullTest(scenarioParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := stats.RunNullTest(scenarioParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.PValue != second.PValue {
		t.Errorf("p-value differs between runs: %v vs %v", first.PValue, second.PValue)
	}
	for i := range first.Differences {
		if math.Float64bits(first.Differences[i]) != math.Float64bits(second.Differences[i]) {
			t.Fatalf("difference %d differs between runs: %v vs %v", i, first.Differences[i], second.Differences[i])
		}
	}
}

func TestRunNullTest_SeedChangesSequence(t *testing.T) {
	p := scenarioParams()
	a, err := stats.RunNullTest(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Seed = 43
	b, err := stats.RunNullTest(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := true
	for i := range a.Differences {
		if a.Differences[i] != b.Differences[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different seeds to produce different sequences")
	}
}

func TestRunNullTest_WorkerCountDoesNotChangeResult(t *testing.T) {
	sequential, err := stats.RunNullTest(scenarioParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, workers := range []int{0, 2, 3, 8, 64} {
		p := scenarioParams()
		p.Workers = workers

		parallel, err := stats.RunNullTest(p)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		if parallel.PValue != sequential.PValue {
			t.Errorf("workers=%d: p-value %v, sequential %v", workers, parallel.PValue, sequential.PValue)
		}
		for i := range sequential.Differences {
			if parallel.Differences[i] != sequential.Differences[i] {
				t.Fatalf("workers=%d: difference %d is %v, sequential %v", workers, i, parallel.Differences[i], sequential.Differences[i])
			}
		}
	}
}

func TestRunNullTest_ConcreteScenarioPValue(t *testing.T) {
	// Under the null, T-C+10 ~ Binomial(20, 0.5), so P(T-C >= 4) = 60460/2^20 ~ 0.0577.
	// Seed 42 lands 565 of the 10,000 draws in the tail.
	result, err := stats.RunNullTest(scenarioParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PValue != 0.0565 {
		t.Errorf("p-value = %v, want 0.0565", result.PValue)
	}
	if result.ObservedDiff != scenarioParams().ObsDiff {
		t.Errorf("observed diff %v not carried through", result.ObservedDiff)
	}

	strict := scenarioParams()
	strict.Tail = stats.TailStrict
	result, err = stats.RunNullTest(strict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PValue != 0.0196 {
		t.Errorf("strict p-value = %v, want 0.0196", result.PValue)
	}
}

func TestRunNullTest_ConcreteScenarioDifferences(t *testing.T) {
	result, err := stats.RunNullTest(scenarioParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Control and treatment conversions drawn for seed 42, by simulation index.
	// 1024 and 9216 are the first draws of chunks 1 and 9.
	expected := map[int][2]int{
		0:    {7, 4},
		1:    {5, 4},
		2:    {5, 5},
		3:    {5, 4},
		1024: {3, 5},
		1025: {3, 6},
		9216: {6, 4},
		9217: {4, 6},
	}
	for i, counts := range expected {
		want := rateDiff(counts[0], counts[1])
		if math.Float64bits(result.Differences[i]) != math.Float64bits(want) {
			t.Errorf("difference %d = %v, want %v (control %d, treatment %d)",
				i, result.Differences[i], want, counts[0], counts[1])
		}
	}
}

// rateDiff is the treatment minus control rate of two groups of 10.
func rateDiff(control, treatment int) float64 {
	return float64(treatment)/10 - float64(control)/10
}

func TestRunNullTest_LargeGroups(t *testing.T) {
	p := stats.NullTestParams{
		PNull:       0.1196,
		NControl:    145274,
		NTreatment:  145310,
		ObsDiff:     -0.0016,
		Simulations: 2000,
		Seed:        42,
	}

	result, err := stats.RunNullTest(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	for _, d := range result.Differences {
		if d < -0.02 || d > 0.02 {
			t.Fatalf("difference %v implausible for groups of this size", d)
		}
		sum += d
	}
	if mean := sum / float64(len(result.Differences)); math.Abs(mean) > 0.0005 {
		t.Errorf("null distribution mean %v, expected ~0", mean)
	}
	// obs is about -1.3 standard deviations, so most draws exceed it
	if result.PValue < 0.8 || result.PValue > 0.95 {
		t.Errorf("p-value %v, expected around 0.9", result.PValue)
	}
}

func TestRunNullTest_NullMeanNearZero(t *testing.T) {
	p := scenarioParams()
	p.NControl = 500
	p.NTreatment = 700
	p.PNull = 0.12

	result, err := stats.RunNullTest(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	for _, d := range result.Differences {
		sum += d
	}
	mean := sum / float64(len(result.Differences))
	if math.Abs(mean) > 0.002 {
		t.Errorf("null distribution mean %v, expected ~0", mean)
	}
}

func TestRunNullTest_PValueMonotoneInObservedDiff(t *testing.T) {
	prev := 1.1
	for obs := -0.6; obs <= 0.6; obs += 0.05 {
		p := scenarioParams()
		p.ObsDiff = obs

		result, err := stats.RunNullTest(p)
		if err != nil {
			t.Fatalf("obs=%v: unexpected error: %v", obs, err)
		}
		if result.PValue > prev {
			t.Errorf("p-value increased from %v to %v at obs=%v", prev, result.PValue, obs)
		}
		if result.PValue < 0 || result.PValue > 1 {
			t.Errorf("p-value %v out of [0, 1]", result.PValue)
		}
		prev = result.PValue
	}
}

func TestRunNullTest_BoundaryProbabilities(t *testing.T) {
	for _, pNull := range []float64{0, 1} {
		p := scenarioParams()
		p.PNull = pNull
		p.Simulations = 500

		p.ObsDiff = 0.1
		result, err := stats.RunNullTest(p)
		if err != nil {
			t.Fatalf("p_null=%v: unexpected error: %v", pNull, err)
		}
		for i, d := range result.Differences {
			if d != 0 {
				t.Fatalf("p_null=%v: difference %d = %v, want 0", pNull, i, d)
			}
		}
		if result.PValue != 0 {
			t.Errorf("p_null=%v, obs>0: p-value %v, want 0", pNull, result.PValue)
		}

		for _, obs := range []float64{0, -0.2} {
			p.ObsDiff = obs
			result, err = stats.RunNullTest(p)
			if err != nil {
				t.Fatalf("p_null=%v: unexpected error: %v", pNull, err)
			}
			if result.PValue != 1 {
				t.Errorf("p_null=%v, obs=%v: p-value %v, want 1", pNull, obs, result.PValue)
			}
		}
	}
}

func TestRunNullTest_BoundaryTinyObservedDiff(t *testing.T) {
	for _, pNull := range []float64{0, 1} {
		p := scenarioParams()
		p.PNull = pNull
		p.Simulations = 100

		p.ObsDiff = 1e-15
		result, err := stats.RunNullTest(p)
		if err != nil {
			t.Fatalf("p_null=%v: unexpected error: %v", pNull, err)
		}
		if result.PValue != 0 {
			t.Errorf("p_null=%v, obs=1e-15: p-value %v, want 0", pNull, result.PValue)
		}

		p.ObsDiff = -1e-15
		result, err = stats.RunNullTest(p)
		if err != nil {
			t.Fatalf("p_null=%v: unexpected error: %v", pNull, err)
		}
		if result.PValue != 1 {
			t.Errorf("p_null=%v, obs=-1e-15: p-value %v, want 1", pNull, result.PValue)
		}
	}
}

func TestRunNullTest_StrictTail(t *testing.T) {
	p := scenarioParams()
	p.PNull = 0
	p.ObsDiff = 0
	p.Tail = stats.TailStrict

	result, err := stats.RunNullTest(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Every simulated difference ties the observed one
	if result.PValue != 0 {
		t.Errorf("strict tail p-value %v, want 0", result.PValue)
	}

	inclusive := scenarioParams()
	strict := scenarioParams()
	strict.Tail = stats.TailStrict

	a, _ := stats.RunNullTest(inclusive)
	b, _ := stats.RunNullTest(strict)
	if b.PValue > a.PValue {
		t.Errorf("strict p-value %v exceeds inclusive %v", b.PValue, a.PValue)
	}
}

func TestRunNullTest_InvalidParameters(t *testing.T) {
	cases := []struct {
		name  string
		mod   func(*stats.NullTestParams)
		param string
	}{
		{"zero control", func(p *stats.NullTestParams) { p.NControl = 0 }, "n_control"},
		{"negative control", func(p *stats.NullTestParams) { p.NControl = -1 }, "n_control"},
		{"zero treatment", func(p *stats.NullTestParams) { p.NTreatment = 0 }, "n_treatment"},
		{"probability below 0", func(p *stats.NullTestParams) { p.PNull = -0.01 }, "p_null"},
		{"probability above 1", func(p *stats.NullTestParams) { p.PNull = 1.01 }, "p_null"},
		{"probability NaN", func(p *stats.NullTestParams) { p.PNull = math.NaN() }, "p_null"},
		{"zero simulations", func(p *stats.NullTestParams) { p.Simulations = 0 }, "simulations"},
		{"negative simulations", func(p *stats.NullTestParams) { p.Simulations = -5 }, "simulations"},
		{"observed NaN", func(p *stats.NullTestParams) { p.ObsDiff = math.NaN() }, "obs_diff"},
		{"negative workers", func(p *stats.NullTestParams) { p.Workers = -1 }, "workers"},
		{"unknown tail", func(p *stats.NullTestParams) { p.Tail = stats.Tail(9) }, "tail"},
	}

	for _, tc := range cases {
		p := scenarioParams()
		tc.mod(&p)

		result, err := stats.RunNullTest(p)
		if result != nil {
			t.Errorf("%s: expected no result", tc.name)
		}
		if !errors.Is(err, stats.ErrInvalidParameter) {
			t.Errorf("%s: expected invalid parameter error, got %v", tc.name, err)
			continue
		}
		var paramErr *stats.InvalidParameterError
		if errors.As(err, &paramErr) && paramErr.Param != tc.param {
			t.Errorf("%s: error names %s, want %s", tc.name, paramErr.Param, tc.param)
		}
	}
}

func TestTailFraction(t *testing.T) {
	diffs := []float64{-0.2, 0, 0.1, 0.1, 0.3}

	if got := stats.TailFraction(diffs, 0.1, stats.TailInclusive); got != 0.6 {
		t.Errorf("inclusive fraction = %v, want 0.6", got)
	}
	if got := stats.TailFraction(diffs, 0.1, stats.TailStrict); got != 0.2 {
		t.Errorf("strict fraction = %v, want 0.2", got)
	}
	if got := stats.TailFraction(nil, 0.1, stats.TailInclusive); got != 0 {
		t.Errorf("empty fraction = %v, want 0", got)
	}
}

func TestTailFraction_RoundingTies(t *testing.T) {
	// 0.7-0.3 and 0.8-0.4 differ in the last bit but are the same gap
	diffs := []float64{0.8 - 0.4}
	if got := stats.TailFraction(diffs, 0.7-0.3, stats.TailInclusive); got != 1 {
		t.Errorf("expected tie to count, got %v", got)
	}
	if got := stats.TailFraction([]float64{0.7 - 0.3}, 0.8-0.4, stats.TailInclusive); got != 1 {
		t.Errorf("expected tie to count in either direction, got %v", got)
	}
}

func TestParseTail(t *testing.T) {
	cases := map[string]stats.Tail{
		"":          stats.TailInclusive,
		"inclusive": stats.TailInclusive,
		">=":        stats.TailInclusive,
		"Strict":    stats.TailStrict,
		">":         stats.TailStrict,
	}
	for in, want := range cases {
		got, err := stats.ParseTail(in)
		if err != nil {
			t.Errorf("ParseTail(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseTail(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := stats.ParseTail("two-sided"); !errors.Is(err, stats.ErrInvalidParameter) {
		t.Errorf("expected invalid parameter error, got %v", err)
	}
}
