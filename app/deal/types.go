package deal

import (
	"fmt"
	"time"
)

// FundingEvent is one observed funding deal. AmountRaised is in millions
// USD; zero means the source did not disclose an amount.
type FundingEvent struct {
	CompanyName  string     `json:"company_name"`
	Subsector    string     `json:"subsector"`
	FundingStage string     `json:"funding_stage"`
	AmountRaised float64    `json:"amount_raised"`
	LeadInvestor string     `json:"lead_investor"`
	SourceURL    string     `json:"source_url"`
	Source       string     `json:"source"`
	Region       string     `json:"region"`
	Confidence   float64    `json:"confidence"`
	Flagged      bool       `json:"flagged"`
	AnnouncedAt  *time.Time `json:"announced_at,omitempty"`
	ObservedAt   time.Time  `json:"observed_at"`
}

// RawEvent carries unvalidated field values as they arrive from the
// extractor or a manual submission, before type checking and coercion.
type RawEvent struct {
	CompanyName  string `json:"company_name"`
	Subsector    string `json:"subsector"`
	FundingStage string `json:"funding_stage"`
	Amount       string `json:"amount"`
	// AmountMillions takes precedence over Amount when set.
	AmountMillions *float64   `json:"amount_millions"`
	LeadInvestor   string     `json:"lead_investor"`
	SourceURL      string     `json:"source_url"`
	Source         string     `json:"source"`
	Region         string     `json:"region"`
	Confidence     float64    `json:"confidence"`
	AnnouncedAt    *time.Time `json:"announced_at"`
}

// Summary returns a concise one-line description of the deal.
func (e FundingEvent) Summary() string {
	return fmt.Sprintf("%s: $%.1fM %s led by %s (%s)",
		e.CompanyName, e.AmountRaised, e.FundingStage, e.LeadInvestor, e.Subsector)
}
