package process

import (
	"fmt"

	"github.com/mklsv/deal-comb/app/config"
	"github.com/mklsv/deal-comb/app/deal"
)

// Reason identifies why a candidate deal was rejected.
type Reason string

const (
	ReasonWrongSector              Reason = "wrong_sector"
	ReasonWrongStage               Reason = "wrong_stage"
	ReasonAmountOutOfRange         Reason = "amount_out_of_range"
	ReasonBelowConfidenceThreshold Reason = "below_confidence_threshold"
)

// Decision carries the outcome of a thesis check. On acceptance, Event
// is the candidate with the Flagged marker applied; on rejection,
// Reason and Detail say why.
type Decision struct {
	Accepted bool
	Reason   Reason
	Detail   string
	Event    deal.FundingEvent
}

// Processor applies the investment thesis to candidate deals. It is
// stateless: the same thesis and input always produce the same decision.
type Processor struct {
	thesis  *config.Thesis
	sectors map[string]bool
	stages  map[string]bool
}

func NewProcessor(thesis *config.Thesis) *Processor {
	sectors := make(map[string]bool, len(thesis.TargetSubsectors))
	for _, s := range thesis.TargetSubsectors {
		sectors[s] = true
	}
	stages := make(map[string]bool, len(thesis.TargetStages))
	for _, s := range thesis.TargetStages {
		stages[s] = true
	}
	return &Processor{thesis: thesis, sectors: sectors, stages: stages}
}

// Check returns the event unchanged (apart from the low-confidence
// flag) if it satisfies all active filters, else a rejection with a
// reason code.
func (p *Processor) Check(event deal.FundingEvent) Decision {
	if !p.sectors[event.Subsector] {
		return rejected(ReasonWrongSector,
			fmt.Sprintf("subsector %q not in target set", event.Subsector))
	}

	if !p.stages[event.FundingStage] {
		return rejected(ReasonWrongStage,
			fmt.Sprintf("stage %q not in target set", event.FundingStage))
	}

	if event.AmountRaised == 0 {
		if p.thesis.RejectUndisclosed {
			return rejected(ReasonAmountOutOfRange, "amount undisclosed")
		}
	} else if event.AmountRaised < p.thesis.MinAmount || event.AmountRaised > p.thesis.MaxAmount {
		return rejected(ReasonAmountOutOfRange,
			fmt.Sprintf("$%.1fM outside [$%.1fM, $%.1fM]",
				event.AmountRaised, p.thesis.MinAmount, p.thesis.MaxAmount))
	}

	if event.Confidence < p.thesis.MinConfidence {
		return rejected(ReasonBelowConfidenceThreshold,
			fmt.Sprintf("confidence %.2f below %.2f", event.Confidence, p.thesis.MinConfidence))
	}

	// Low-but-passing confidence is flagged for review, not discarded.
	if event.Confidence < p.thesis.FlagConfidence {
		event.Flagged = true
	}

	return Decision{Accepted: true, Event: event}
}

func rejected(reason Reason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}
