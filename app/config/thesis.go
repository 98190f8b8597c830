package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultThesis returns the investment criteria used when no thesis
// file is present.
func DefaultThesis() *Thesis {
	return &Thesis{
		TargetSubsectors:     []string{"Grid Modernization", "Carbon Capture"},
		TargetStages:         []string{"Seed", "Series A"},
		MinAmount:            0.5, // $500K
		MaxAmount:            100, // $100M ceiling for early stage
		MinConfidence:        0.3,
		FlagConfidence:       0.5,
		DedupAmountTolerance: 0.1,
	}
}

// LoadThesis loads the thesis file, falling back to defaults for the
// whole file or for individual omitted fields.
func LoadThesis(path string) (*Thesis, error) {
	thesis := DefaultThesis()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return thesis, nil
		}
		return nil, fmt.Errorf("failed to read thesis file: %w", err)
	}

	if err := yaml.Unmarshal(data, thesis); err != nil {
		return nil, fmt.Errorf("failed to parse thesis file: %w", err)
	}

	if err := validateThesis(thesis); err != nil {
		return nil, fmt.Errorf("invalid thesis %s: %w", path, err)
	}

	return thesis, nil
}

func validateThesis(t *Thesis) error {
	if len(t.TargetSubsectors) == 0 {
		return fmt.Errorf("at least one target subsector is required")
	}
	if len(t.TargetStages) == 0 {
		return fmt.Errorf("at least one target stage is required")
	}
	if t.MinAmount < 0 {
		return fmt.Errorf("min amount must be non-negative")
	}
	if t.MaxAmount < t.MinAmount {
		return fmt.Errorf("max amount must be >= min amount")
	}
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0,1]")
	}
	if t.FlagConfidence < 0 || t.FlagConfidence > 1 {
		return fmt.Errorf("flag confidence must be within [0,1]")
	}
	if t.DedupAmountTolerance < 0 {
		return fmt.Errorf("dedup amount tolerance must be non-negative")
	}
	return nil
}
