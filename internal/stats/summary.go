package stats

import "fmt"

// Summarize counts visitors and conversions for the control and treatment
// groups and computes their conversion rates and the pooled global rate.
func Summarize(records []VisitorRecord, control, treatment string) (*Summary, error) {
	if len(records) == 0 {
		return nil, &DegenerateInputError{Reason: "no records"}
	}
	if control == treatment {
		return nil, &DegenerateInputError{Reason: fmt.Sprintf("control and treatment labels are both %q", control)}
	}

	c := GroupSummary{Label: control}
	t := GroupSummary{Label: treatment}

	for _, r := range records {
		var g *GroupSummary
		switch r.Group {
		case control:
			g = &c
		case treatment:
			g = &t
		default:
			return nil, &AggregationError{Group: r.Group, Reason: "unexpected group label, only two groups are supported"}
		}

		g.Visitors++
		if r.Converted {
			g.Conversions++
		}
	}

	// Exactly one empty group means only one label is populated.
	if c.Visitors == 0 {
		return nil, &AggregationError{Group: control, Reason: "no records", Degenerate: true}
	}
	if t.Visitors == 0 {
		return nil, &AggregationError{Group: treatment, Reason: "no records", Degenerate: true}
	}

	c.Rate = float64(c.Conversions) / float64(c.Visitors)
	t.Rate = float64(t.Conversions) / float64(t.Visitors)

	total := c.Visitors + t.Visitors
	conversions := c.Conversions + t.Conversions

	return &Summary{
		Control:          c,
		Treatment:        t,
		TotalVisitors:    total,
		TotalConversions: conversions,
		GlobalRate:       float64(conversions) / float64(total),
	}, nil
}

// Labels returns the distinct group labels in order of first appearance.
func Labels(records []VisitorRecord) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, r := range records {
		if !seen[r.Group] {
			seen[r.Group] = true
			labels = append(labels, r.Group)
		}
	}
	return labels
}
