package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/splitcheck/splitcheck/internal/stats"
)

// WriteText prints the report as the table shown by `splitcheck analyze`.
func WriteText(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "RUN: %s\n", r.RunID)
	fmt.Fprintf(&b, "VISITORS: %s (%s converted, %s)\n",
		FormatNumber(r.TotalVisitors), FormatNumber(r.TotalConversions), FormatPercent(r.GlobalRate))
	b.WriteString("\n")

	b.WriteString("GROUP             VISITORS  SHARE   CONVERSIONS  RATE     STD DEV\n")
	b.WriteString(strings.Repeat("─", 66) + "\n")

	for _, g := range r.Groups {
		// Truncate name if too long
		name := g.Label
		if len(name) > 16 {
			name = name[:13] + "..."
		}

		fmt.Fprintf(&b, "%-16s  %-8s  %-6s  %-11s  %-7s  %.4f\n",
			name,
			FormatNumber(g.Visitors),
			fmt.Sprintf("%.1f%%", g.Share*100),
			FormatNumber(g.Conversions),
			FormatPercent(g.Rate),
			g.StdDev,
		)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Observed difference:   %+.4f\n", r.ObservedDiff)
	fmt.Fprintf(&b, "Null distribution:     mean %+.4f, std %.4f, %d simulations (seed %d)\n",
		r.Null.Mean, r.Null.StdDev, r.Simulations, r.Seed)
	fmt.Fprintf(&b, "Critical difference:   %+.4f at alpha %.2f\n", r.Null.CriticalDiff, r.Threshold)
	fmt.Fprintf(&b, "p-value:               %.4f (%s tail)\n", r.PValue, r.Tail)
	fmt.Fprintf(&b, "z-test p-value:        %.4f\n", r.ZTestPValue)
	b.WriteString("\n")

	if r.Significant {
		fmt.Fprintf(&b, "Result: %s (p < %.2f), treatment likely improves on control\n", r.Verdict, r.Threshold)
	} else {
		fmt.Fprintf(&b, "Result: %s (p >= %.2f), the difference can be explained by chance\n", r.Verdict, r.Threshold)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteNullTestText prints a direct simulator run.
func WriteNullTestText(w io.Writer, r *NullTest) error {
	_, err := fmt.Fprintf(w, `RUN: %s
p_null:        %.4f
n_control:     %s
n_treatment:   %s
observed diff: %+.4f
simulations:   %d (seed %d)
p-value:       %.4f (%s tail)
Result: %s
`,
		r.RunID, r.PNull, FormatNumber(r.NControl), FormatNumber(r.NTreatment),
		r.ObservedDiff, r.Simulations, r.Seed, r.PValue, r.Tail, r.Verdict)
	return err
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteDifferencesCSV writes one simulated difference per row.
func WriteDifferencesCSV(w io.Writer, diffs []float64) error {
	cw := csv.NewWriter(w)

	// Write header
	if err := cw.Write([]string{"simulation", "difference"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Write rows
	for i, d := range diffs {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(d, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

type differencesExport struct {
	ObservedDiff float64   `json:"observed_diff"`
	PValue       float64   `json:"p_value"`
	Differences  []float64 `json:"differences"`
}

// WriteDifferencesJSON writes the simulated differences with the observed
// difference and p-value they produced.
func WriteDifferencesJSON(w io.Writer, r *stats.NullSimulationResult) error {
	return WriteJSON(w, differencesExport{
		ObservedDiff: r.ObservedDiff,
		PValue:       r.PValue,
		Differences:  r.Differences,
	})
}

// WriteBreakdown prints bucketed conversion rates as an aligned table.
func WriteBreakdown(w io.Writer, bucketTitle string, rows []stats.BucketRate) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No timestamped records.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tGROUP\tVISITORS\tCONVERSIONS\tRATE\n", strings.ToUpper(bucketTitle))
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Bucket,
			r.Group,
			FormatNumber(r.Visitors),
			FormatNumber(r.Conversions),
			FormatPercent(r.Rate),
		)
	}
	return tw.Flush()
}

func FormatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

func FormatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
