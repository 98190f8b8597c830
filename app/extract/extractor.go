/*
Package extract turns raw article text into zero-or-one candidate
funding events via a single schema-constrained model call per article.
*/
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mklsv/deal-comb/app/config"
	"github.com/mklsv/deal-comb/app/deal"
	"github.com/mklsv/deal-comb/app/source"
)

// maxContentChars caps article text sent to the model.
const maxContentChars = 2000

// payload mirrors the response schema. Amount is raw: the model is
// asked for a number but is not trusted to deliver one.
type payload struct {
	CompanyName           string          `json:"company_name"`
	Subsector             string          `json:"subsector"`
	FundingStage          string          `json:"funding_stage"`
	AmountRaised          json.RawMessage `json:"amount_raised"`
	LeadInvestor          string          `json:"lead_investor"`
	Region                string          `json:"region"`
	Confidence            float64         `json:"confidence"`
	IsFundingAnnouncement bool            `json:"is_funding_announcement"`
}

// Extractor performs one outbound model call per article and maps the
// output onto the strict FundingEvent schema at a single boundary. It
// is stateless with respect to the store and performs no I/O against it.
type Extractor struct {
	gen         Generator
	retry       RetryPolicy
	instruction string
}

func NewExtractor(gen Generator, thesis *config.Thesis, retry RetryPolicy) *Extractor {
	return &Extractor{
		gen:         gen,
		retry:       retry,
		instruction: buildInstruction(thesis),
	}
}

// Extract produces a candidate funding event from one article, or an
// *ExtractionError. Not-relevant articles are an error of kind
// KindNotRelevant, which callers count separately from failures.
func (e *Extractor) Extract(ctx context.Context, article source.Article) (deal.FundingEvent, error) {
	prompt := buildPrompt(article)

	var raw string
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		var genErr error
		raw, genErr = e.gen.Generate(ctx, e.instruction, prompt)
		return genErr
	})
	if err != nil {
		return deal.FundingEvent{}, &ExtractionError{Kind: KindUnavailable, URL: article.URL, Err: err}
	}

	return e.decode(raw, article)
}

// decode defensively parses model output: extra fields are ignored,
// missing fields zero-value, and anything that still fails the event
// schema becomes a malformed ExtractionError.
func (e *Extractor) decode(raw string, article source.Article) (deal.FundingEvent, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return deal.FundingEvent{}, &ExtractionError{Kind: KindMalformed, URL: article.URL,
			Err: fmt.Errorf("failed to unmarshal model response: %w", err)}
	}

	if !p.IsFundingAnnouncement {
		return deal.FundingEvent{}, &ExtractionError{Kind: KindNotRelevant, URL: article.URL}
	}

	amount, err := coerceAmount(p.AmountRaised)
	if err != nil {
		return deal.FundingEvent{}, &ExtractionError{Kind: KindMalformed, URL: article.URL, Err: err}
	}

	event, err := deal.NewFundingEvent(deal.RawEvent{
		CompanyName:    p.CompanyName,
		Subsector:      p.Subsector,
		FundingStage:   p.FundingStage,
		AmountMillions: amount,
		LeadInvestor:   p.LeadInvestor,
		SourceURL:      article.URL,
		Source:         article.Source,
		Region:         p.Region,
		Confidence:     clamp01(p.Confidence),
		AnnouncedAt:    article.PublishedAt,
	})
	if err != nil {
		return deal.FundingEvent{}, &ExtractionError{Kind: KindMalformed, URL: article.URL, Err: err}
	}

	return event, nil
}

// coerceAmount accepts a JSON number, a quoted currency string, or
// null for the amount field.
func coerceAmount(raw json.RawMessage) (*float64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		zero := 0.0
		return &zero, nil
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return &v, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("amount is neither number nor string: %s", text)
	}
	v, err := deal.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func buildInstruction(thesis *config.Thesis) string {
	sectors := strings.Join(thesis.TargetSubsectors, `" or "`)
	stages := strings.Join(thesis.TargetStages, `" or "`)

	return fmt.Sprintf(`You are a VC funding analyst extracting deal data for climate tech investments.

ONLY EXTRACT deals that are:
1. Subsector: "%s" (exact match required)
2. Funding Stage: "%s" (exact match required)
3. A clear funding announcement with a specific startup

Extract these fields:
- company_name: Company that raised funding
- subsector: one of the target subsectors above
- funding_stage: one of the target stages above
- amount_raised: Dollar amount in millions (numeric, 0 if undisclosed)
- lead_investor: Primary investor leading the round
- region: Geographic region of the company
- confidence: How reliable the extracted fields are (0-1)
- is_funding_announcement: false for fund announcements, IPOs, analysis, or any other general news

Set is_funding_announcement to false if the article is not a specific startup funding round in the target subsectors and stages.`, sectors, stages)
}

func buildPrompt(article source.Article) string {
	var parts []string

	if article.Title != "" {
		parts = append(parts, fmt.Sprintf("Title: %s", article.Title))
	}

	content := article.Content
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}
	if content != "" {
		parts = append(parts, fmt.Sprintf("Content: %s", content))
	}

	return strings.Join(parts, "\n\n")
}
