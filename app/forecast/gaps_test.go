package forecast

import (
	"testing"
	"time"

	"github.com/mklsv/deal-comb/app/deal"
)

func eventAt(sector, stage string, date time.Time) deal.FundingEvent {
	return deal.FundingEvent{
		CompanyName:  "Acme",
		Subsector:    sector,
		FundingStage: stage,
		AmountRaised: 5,
		ObservedAt:   date,
	}
}

func TestGaps_DetectsQuietSubsector(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// A year of steady monthly Carbon Capture deals that stop 4 months
	// before now: nothing in the trailing 90-day window.
	var events []deal.FundingEvent
	for i := 0; i < 12; i++ {
		events = append(events, eventAt("Carbon Capture", "Seed", now.AddDate(0, -16+i, 0)))
	}

	signals := Gaps(events, now, DefaultGapWindow)

	var found *GapSignal
	for i := range signals {
		if signals[i].Dimension == "subsector" && signals[i].Value == "Carbon Capture" {
			found = &signals[i]
		}
	}
	if found == nil {
		t.Fatalf("Expected gap signal for quiet subsector, got %+v", signals)
	}
	if found.TrailingCount != 0 {
		t.Errorf("Expected trailing count 0, got %d", found.TrailingCount)
	}
	if found.BaselineCount < 1 {
		t.Errorf("Expected baseline of at least 1 deal per window, got %v", found.BaselineCount)
	}
}

func TestGaps_SteadyActivityIsNotAGap(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Monthly deals continuing right up to now.
	var events []deal.FundingEvent
	for i := 0; i < 12; i++ {
		events = append(events, eventAt("Grid Modernization", "Seed", now.AddDate(0, -i, -5)))
	}

	signals := Gaps(events, now, DefaultGapWindow)
	for _, s := range signals {
		if s.Value == "Grid Modernization" || s.Value == "Seed" {
			t.Errorf("Expected no gap signal for steady activity, got %+v", s)
		}
	}
}

func TestGaps_SparseBaselineIgnored(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Two deals a year ago: well under one deal per window, so silence
	// now means nothing.
	events := []deal.FundingEvent{
		eventAt("Solar", "Seed", now.AddDate(-1, 0, 0)),
		eventAt("Solar", "Seed", now.AddDate(-1, 1, 0)),
	}

	signals := Gaps(events, now, DefaultGapWindow)
	for _, s := range signals {
		if s.Dimension == "subsector" && s.Value == "Solar" {
			t.Errorf("Expected no signal for sparse baseline, got %+v", s)
		}
	}
}

func TestGaps_ShortHistoryIgnored(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// All history inside the trailing window: no baseline to compare.
	var events []deal.FundingEvent
	for i := 0; i < 5; i++ {
		events = append(events, eventAt("Grid Modernization", "Seed", now.AddDate(0, 0, -10*i)))
	}

	signals := Gaps(events, now, DefaultGapWindow)
	if len(signals) != 0 {
		t.Errorf("Expected no signals without pre-window history, got %+v", signals)
	}
}
