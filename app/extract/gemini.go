package extract

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generator is the outbound call to the extraction service. It exists
// so the extractor can be exercised without a live model.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// GeminiGenerator produces schema-constrained JSON via the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	systemContent := &genai.Content{
		Parts: []*genai.Part{
			{Text: systemInstruction},
		},
		Role: "system",
	}

	userContent := &genai.Content{
		Parts: []*genai.Part{
			{Text: prompt},
		},
		Role: "user",
	}

	contents := []*genai.Content{systemContent, userContent}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   getResponseSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	return resp.Text(), nil
}

func getResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"company_name": {
				Type:        genai.TypeString,
				Description: "Company that raised funding, empty if none.",
			},
			"subsector": {
				Type:        genai.TypeString,
				Description: "Technology subsector of the company.",
			},
			"funding_stage": {
				Type:        genai.TypeString,
				Description: "Funding round type, e.g. Seed or Series A.",
			},
			"amount_raised": {
				Type:        genai.TypeNumber,
				Description: "Amount raised in millions USD, 0 if undisclosed.",
			},
			"lead_investor": {
				Type:        genai.TypeString,
				Description: "Primary investor leading the round.",
			},
			"region": {
				Type:        genai.TypeString,
				Description: "Geographic region of the company.",
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "Extraction confidence between 0 and 1.",
			},
			"is_funding_announcement": {
				Type:        genai.TypeBoolean,
				Description: "Whether the article announces a specific funding round.",
			},
		},
		Required: []string{"company_name", "confidence", "is_funding_announcement"},
	}
}
