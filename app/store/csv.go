package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mklsv/deal-comb/app/deal"
)

// storeHeader is fixed at store creation; append operations add rows
// without ever rewriting prior content.
var storeHeader = []string{
	"company", "sector", "stage", "amount", "lead_investor",
	"source_url", "source", "region", "confidence", "flagged",
	"announced_at", "observed_at",
}

func rowFromEvent(e deal.FundingEvent) []string {
	announced := ""
	if e.AnnouncedAt != nil {
		announced = e.AnnouncedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		e.CompanyName,
		e.Subsector,
		e.FundingStage,
		strconv.FormatFloat(e.AmountRaised, 'f', -1, 64),
		e.LeadInvestor,
		e.SourceURL,
		e.Source,
		e.Region,
		strconv.FormatFloat(e.Confidence, 'f', -1, 64),
		strconv.FormatBool(e.Flagged),
		announced,
		e.ObservedAt.UTC().Format(time.RFC3339),
	}
}

func eventFromRow(row []string) (deal.FundingEvent, error) {
	if len(row) != len(storeHeader) {
		return deal.FundingEvent{}, fmt.Errorf("expected %d columns, got %d", len(storeHeader), len(row))
	}

	amount, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return deal.FundingEvent{}, fmt.Errorf("bad amount %q: %w", row[3], err)
	}
	if amount < 0 {
		return deal.FundingEvent{}, fmt.Errorf("negative amount %q", row[3])
	}

	confidence, err := strconv.ParseFloat(row[8], 64)
	if err != nil {
		return deal.FundingEvent{}, fmt.Errorf("bad confidence %q: %w", row[8], err)
	}

	flagged, err := strconv.ParseBool(row[9])
	if err != nil {
		return deal.FundingEvent{}, fmt.Errorf("bad flagged %q: %w", row[9], err)
	}

	var announcedAt *time.Time
	if row[10] != "" {
		t, err := time.Parse(time.RFC3339, row[10])
		if err != nil {
			return deal.FundingEvent{}, fmt.Errorf("bad announced_at %q: %w", row[10], err)
		}
		announcedAt = &t
	}

	observedAt, err := time.Parse(time.RFC3339, row[11])
	if err != nil {
		return deal.FundingEvent{}, fmt.Errorf("bad observed_at %q: %w", row[11], err)
	}

	if row[0] == "" {
		return deal.FundingEvent{}, fmt.Errorf("blank company name")
	}
	if row[5] == "" {
		return deal.FundingEvent{}, fmt.Errorf("blank source URL")
	}

	// Sector and stage are taken as stored: legacy rows written under an
	// earlier thesis are never re-validated.
	return deal.FundingEvent{
		CompanyName:  row[0],
		Subsector:    row[1],
		FundingStage: row[2],
		AmountRaised: amount,
		LeadInvestor: row[4],
		SourceURL:    row[5],
		Source:       row[6],
		Region:       row[7],
		Confidence:   confidence,
		Flagged:      flagged,
		AnnouncedAt:  announcedAt,
		ObservedAt:   observedAt,
	}, nil
}
