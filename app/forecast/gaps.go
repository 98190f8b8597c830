package forecast

import (
	"sort"
	"time"

	"github.com/mklsv/deal-comb/app/deal"
)

const (
	// DefaultGapWindow is the trailing window compared against the
	// historical baseline.
	DefaultGapWindow = 90 * 24 * time.Hour

	// gapRatio: a series is a gap when its trailing activity is below
	// this share of its per-window baseline.
	gapRatio = 0.5
)

// GapSignal marks a subsector or stage whose trailing-window activity
// is disproportionately low relative to its own historical baseline.
type GapSignal struct {
	Dimension       string  `json:"dimension"` // "subsector" or "stage"
	Value           string  `json:"value"`
	TrailingCount   int     `json:"trailing_count"`
	BaselineCount   float64 `json:"baseline_count"`
	TrailingFunding float64 `json:"trailing_funding"`
	BaselineFunding float64 `json:"baseline_funding"`
}

// Gaps computes investment-gap signals over the event history. A group
// needs a baseline of at least one deal per window before its absence
// means anything.
func Gaps(events []deal.FundingEvent, now time.Time, window time.Duration) []GapSignal {
	if window <= 0 {
		window = DefaultGapWindow
	}

	var signals []GapSignal
	signals = append(signals, dimensionGaps(events, now, window, "subsector",
		func(e deal.FundingEvent) string { return e.Subsector })...)
	signals = append(signals, dimensionGaps(events, now, window, "stage",
		func(e deal.FundingEvent) string { return e.FundingStage })...)
	return signals
}

func dimensionGaps(events []deal.FundingEvent, now time.Time, window time.Duration,
	dimension string, key func(deal.FundingEvent) string) []GapSignal {

	type tally struct {
		trailingCount   int
		trailingFunding float64
		priorCount      int
		priorFunding    float64
		earliest        time.Time
	}

	cutoff := now.Add(-window)
	groups := make(map[string]*tally)
	for _, e := range events {
		k := key(e)
		if k == "" {
			continue
		}
		t := groups[k]
		if t == nil {
			t = &tally{earliest: e.EventDate()}
			groups[k] = t
		}
		date := e.EventDate()
		if date.Before(t.earliest) {
			t.earliest = date
		}
		if date.After(cutoff) {
			t.trailingCount++
			t.trailingFunding += e.AmountRaised
		} else {
			t.priorCount++
			t.priorFunding += e.AmountRaised
		}
	}

	var signals []GapSignal
	for k, t := range groups {
		priorSpan := cutoff.Sub(t.earliest)
		windows := float64(priorSpan) / float64(window)
		if windows < 1 {
			continue // not enough history outside the trailing window
		}

		baselineCount := float64(t.priorCount) / windows
		baselineFunding := t.priorFunding / windows
		if baselineCount < 1 {
			continue
		}

		if float64(t.trailingCount) < gapRatio*baselineCount {
			signals = append(signals, GapSignal{
				Dimension:       dimension,
				Value:           k,
				TrailingCount:   t.trailingCount,
				BaselineCount:   baselineCount,
				TrailingFunding: t.trailingFunding,
				BaselineFunding: baselineFunding,
			})
		}
	}

	sort.Slice(signals, func(i, j int) bool { return signals[i].Value < signals[j].Value })
	return signals
}
