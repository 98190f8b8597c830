package deal

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports every violated field rule, not just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid funding event: %s", strings.Join(e.Violations, "; "))
}

// NewFundingEvent validates and coerces a raw event into a FundingEvent.
// Subsector and funding stage are accepted as-is here; checking them
// against the configured target sets is the processor's job, so legacy
// and alternate values can round-trip through the store.
func NewFundingEvent(raw RawEvent) (FundingEvent, error) {
	var violations []string

	name := NormalizeCompanyName(raw.CompanyName)
	if name == "" {
		violations = append(violations, "company name is blank")
	}

	amount := 0.0
	if raw.AmountMillions != nil {
		amount = *raw.AmountMillions
		if amount < 0 {
			violations = append(violations, fmt.Sprintf("amount is negative: %v", amount))
		}
	} else {
		parsed, err := ParseAmount(raw.Amount)
		if err != nil {
			violations = append(violations, err.Error())
		} else {
			amount = parsed
		}
	}

	if raw.SourceURL == "" {
		violations = append(violations, "source URL is blank")
	}

	if raw.Confidence < 0 || raw.Confidence > 1 {
		violations = append(violations, fmt.Sprintf("confidence %v outside [0,1]", raw.Confidence))
	}

	if len(violations) > 0 {
		return FundingEvent{}, &ValidationError{Violations: violations}
	}

	return FundingEvent{
		CompanyName:  name,
		Subsector:    strings.TrimSpace(raw.Subsector),
		FundingStage: StandardizeStage(raw.FundingStage),
		AmountRaised: amount,
		LeadInvestor: strings.TrimSpace(raw.LeadInvestor),
		SourceURL:    raw.SourceURL,
		Source:       raw.Source,
		Region:       strings.TrimSpace(raw.Region),
		Confidence:   raw.Confidence,
		AnnouncedAt:  raw.AnnouncedAt,
		ObservedAt:   time.Now().UTC(),
	}, nil
}

// EventDate is the date used for time-series bucketing: the announced
// date when the article carried one, otherwise the capture time.
func (e FundingEvent) EventDate() time.Time {
	if e.AnnouncedAt != nil {
		return *e.AnnouncedAt
	}
	return e.ObservedAt
}
