package stats

import (
	"fmt"
	"sort"
)

// BucketRate is the conversion rate of one group within one time bucket
type BucketRate struct {
	Bucket      string // "2006-01-02" for days, "00".."23" for hours
	Group       string
	Visitors    int
	Conversions int
	Rate        float64
}

// DailyBreakdown returns the conversion rate per calendar day and group.
// Records without a timestamp are skipped.
func DailyBreakdown(records []VisitorRecord) []BucketRate {
	return breakdown(records, func(r VisitorRecord) string {
		return r.Timestamp.Format("2006-01-02")
	})
}

// HourlyBreakdown returns the conversion rate per hour of day and group.
func HourlyBreakdown(records []VisitorRecord) []BucketRate {
	return breakdown(records, func(r VisitorRecord) string {
		return fmt.Sprintf("%02d", r.Timestamp.Hour())
	})
}

func breakdown(records []VisitorRecord, bucketOf func(VisitorRecord) string) []BucketRate {
	type key struct{ bucket, group string }
	counts := make(map[key]*BucketRate)

	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		k := key{bucket: bucketOf(r), group: r.Group}
		b, ok := counts[k]
		if !ok {
			b = &BucketRate{Bucket: k.bucket, Group: k.group}
			counts[k] = b
		}
		b.Visitors++
		if r.Converted {
			b.Conversions++
		}
	}

	out := make([]BucketRate, 0, len(counts))
	for _, b := range counts {
		b.Rate = float64(b.Conversions) / float64(b.Visitors)
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Bucket != out[j].Bucket {
			return out[i].Bucket < out[j].Bucket
		}
		return out[i].Group < out[j].Group
	})
	return out
}
