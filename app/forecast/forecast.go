// Package forecast projects funding activity from the stored event
// history. It reads, computes, and returns; it never writes back.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/mklsv/deal-comb/app/deal"
)

const (
	// MinMonthlyBuckets is the minimum number of populated monthly
	// buckets required before a numeric forecast is produced.
	MinMonthlyBuckets = 3

	// DefaultHorizon is the number of months projected forward.
	DefaultHorizon = 6

	intervalZ = 1.96
)

// Options restricts the history before bucketing. Empty fields mean no
// restriction.
type Options struct {
	Sector  string
	Stage   string
	Periods int
}

// Bucket is one month of observed activity.
type Bucket struct {
	Month        time.Time `json:"month"`
	DealCount    int       `json:"deal_count"`
	TotalFunding float64   `json:"total_funding"`
}

// Point is one projected period with its confidence band.
type Point struct {
	Period time.Time `json:"period"`
	Value  float64   `json:"value"`
	Low    float64   `json:"low"`
	High   float64   `json:"high"`
}

// Report is the forecast result. When Insufficient is set no numeric
// projection is included: sparse data never yields fabricated numbers.
type Report struct {
	Insufficient bool     `json:"insufficient"`
	SampleSize   int      `json:"sample_size"`
	History      []Bucket `json:"history,omitempty"`
	DealCount    []Point  `json:"deal_count,omitempty"`
	TotalFunding []Point  `json:"total_funding,omitempty"`
}

// Forecast buckets the matching events by month, fits a least-squares
// trend line per series, and extrapolates it forward with an interval
// derived from in-sample residual variance.
func Forecast(events []deal.FundingEvent, opts Options) Report {
	periods := opts.Periods
	if periods <= 0 {
		periods = DefaultHorizon
	}

	buckets := bucketMonthly(filter(events, opts))

	populated := 0
	for _, b := range buckets {
		if b.DealCount > 0 {
			populated++
		}
	}

	if populated < MinMonthlyBuckets {
		return Report{Insufficient: true, SampleSize: populated, History: buckets}
	}

	counts := make([]float64, len(buckets))
	funding := make([]float64, len(buckets))
	for i, b := range buckets {
		counts[i] = float64(b.DealCount)
		funding[i] = b.TotalFunding
	}

	last := buckets[len(buckets)-1].Month
	return Report{
		SampleSize:   populated,
		History:      buckets,
		DealCount:    project(counts, last, periods),
		TotalFunding: project(funding, last, periods),
	}
}

func filter(events []deal.FundingEvent, opts Options) []deal.FundingEvent {
	if opts.Sector == "" && opts.Stage == "" {
		return events
	}
	var out []deal.FundingEvent
	for _, e := range events {
		if opts.Sector != "" && e.Subsector != opts.Sector {
			continue
		}
		if opts.Stage != "" && e.FundingStage != opts.Stage {
			continue
		}
		out = append(out, e)
	}
	return out
}

// bucketMonthly produces a contiguous month series from the earliest to
// the latest event, with empty months kept as zero buckets so the trend
// fit sees real gaps.
func bucketMonthly(events []deal.FundingEvent) []Bucket {
	if len(events) == 0 {
		return nil
	}

	byMonth := make(map[time.Time]*Bucket)
	var first, last time.Time
	for _, e := range events {
		month := monthOf(e.EventDate())
		if first.IsZero() || month.Before(first) {
			first = month
		}
		if last.IsZero() || month.After(last) {
			last = month
		}
		b := byMonth[month]
		if b == nil {
			b = &Bucket{Month: month}
			byMonth[month] = b
		}
		b.DealCount++
		b.TotalFunding += e.AmountRaised
	}

	var buckets []Bucket
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		if b := byMonth[month]; b != nil {
			buckets = append(buckets, *b)
		} else {
			buckets = append(buckets, Bucket{Month: month})
		}
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month.Before(buckets[j].Month) })
	return buckets
}

func monthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// project fits y = a + b*x over the series and extrapolates periods
// months past lastMonth. The band is the point estimate plus/minus
// 1.96 residual standard deviations, floored at zero.
func project(series []float64, lastMonth time.Time, periods int) []Point {
	a, b := fitLine(series)
	sd := residualStddev(series, a, b)

	points := make([]Point, 0, periods)
	for i := 1; i <= periods; i++ {
		x := float64(len(series) - 1 + i)
		v := a + b*x
		points = append(points, Point{
			Period: lastMonth.AddDate(0, i, 0),
			Value:  math.Max(0, v),
			Low:    math.Max(0, v-intervalZ*sd),
			High:   math.Max(0, v+intervalZ*sd),
		})
	}
	return points
}

// fitLine is ordinary least squares over x = 0..n-1.
func fitLine(y []float64) (intercept, slope float64) {
	n := float64(len(y))
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return sumY / n, 0
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return intercept, slope
}

func residualStddev(y []float64, intercept, slope float64) float64 {
	if len(y) <= 2 {
		return 0
	}
	var sse float64
	for i, v := range y {
		r := v - (intercept + slope*float64(i))
		sse += r * r
	}
	return math.Sqrt(sse / float64(len(y)-2))
}
